package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2plend/internal/domain/identity"
	"p2plend/internal/usecase/approval"
)

type ApprovalHandler struct {
	base
	uc *approval.Usecase
}

func NewApprovalHandler(uc *approval.Usecase, log *zap.SugaredLogger) *ApprovalHandler {
	return &ApprovalHandler{base: base{log: log}, uc: uc}
}

type decideLoanReq struct {
	LoanID string `param:"loan_id" json:"-" validate:"required,hex32"`
	Note   string `json:"note"            validate:"max=500"`
}

type decideFn func(ctx context.Context, caller identity.Caller, loanID, note string) (*approval.DecisionDTO, error)

func (h *ApprovalHandler) ApproveLoan(c echo.Context) error { return h.decide(c, h.uc.Approve) }

func (h *ApprovalHandler) RejectLoan(c echo.Context) error { return h.decide(c, h.uc.Reject) }

func (h *ApprovalHandler) decide(c echo.Context, fn decideFn) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req decideLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := fn(c.Request().Context(), caller, req.LoanID, req.Note)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
