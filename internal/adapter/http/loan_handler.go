package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2plend/internal/usecase/loan"
)

type LoanHandler struct {
	base
	uc *loan.Usecase
}

func NewLoanHandler(uc *loan.Usecase, amounts Amounts, log *zap.SugaredLogger) *LoanHandler {
	return &LoanHandler{base: base{amounts: amounts, log: log}, uc: uc}
}

type createLoanReq struct {
	Requested  string `json:"requested"   validate:"required,decimal"`
	TermMonths int    `json:"term_months" validate:"required,gte=1,lte=360"`
	// yearly percent, e.g. "12.5"
	Rate string `json:"rate" validate:"required,decimal"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req createLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	requested, err := h.amounts.Parse(req.Requested)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rate, err := parseRate(req.Rate)
	if err != nil {
		return writeError(c, h.log, err)
	}

	dto, err := h.uc.Create(c.Request().Context(), caller, loan.CreateLoanInput{
		Requested:  requested,
		TermMonths: req.TermMonths,
		Rate:       rate,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, h.amounts.loan(dto))
}

type loanPathReq struct {
	LoanID string `param:"loan_id" json:"-" validate:"required,hex32"`
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	var req loanPathReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), req.LoanID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.amounts.loan(dto))
}
