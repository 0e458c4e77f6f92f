package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2plend/internal/usecase/funding"
	"p2plend/internal/usecase/schedule"
)

type FundingHandler struct {
	base
	uc        *funding.Usecase
	schedules *schedule.Usecase
}

func NewFundingHandler(uc *funding.Usecase, schedules *schedule.Usecase, amounts Amounts, log *zap.SugaredLogger) *FundingHandler {
	return &FundingHandler{base: base{amounts: amounts, log: log}, uc: uc, schedules: schedules}
}

type fundLoanReq struct {
	LoanID string `param:"loan_id" json:"-"      validate:"required,hex32"`
	Amount string `json:"amount"                 validate:"required,decimal"`
}

func (h *FundingHandler) FundLoan(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req fundLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	amount, err := h.amounts.Parse(req.Amount)
	if err != nil {
		return writeError(c, h.log, err)
	}
	dto, err := h.uc.Fund(c.Request().Context(), caller, req.LoanID, amount)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, h.amounts.funding(dto))
}

func (h *FundingHandler) Schedule(c echo.Context) error {
	var req loanPathReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ds, err := h.schedules.List(c.Request().Context(), req.LoanID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": req.LoanID, "installments": h.amounts.schedule(ds)})
}

// RegenerateSchedule writes a funded loan's missing schedule. Admin only.
func (h *FundingHandler) RegenerateSchedule(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req loanPathReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ds, err := h.schedules.Ensure(c.Request().Context(), caller, req.LoanID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": req.LoanID, "installments": h.amounts.schedule(ds)})
}
