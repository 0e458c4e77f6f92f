package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2plend/internal/usecase/settlement"
)

type SettlementHandler struct {
	base
	uc *settlement.Usecase
}

func NewSettlementHandler(uc *settlement.Usecase, amounts Amounts, log *zap.SugaredLogger) *SettlementHandler {
	return &SettlementHandler{base: base{amounts: amounts, log: log}, uc: uc}
}

type settleReq struct {
	RepaymentID string `param:"repayment_id" json:"-" validate:"required,hex32"`
}

func (h *SettlementHandler) Settle(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req settleReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.Settle(c.Request().Context(), caller, req.RepaymentID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.amounts.settlement(res))
}
