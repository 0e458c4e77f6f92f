package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2plend/internal/usecase/wallet"
)

type WalletHandler struct {
	base
	uc           *wallet.Usecase
	historyLimit int
}

func NewWalletHandler(uc *wallet.Usecase, amounts Amounts, historyLimit int, log *zap.SugaredLogger) *WalletHandler {
	return &WalletHandler{base: base{amounts: amounts, log: log}, uc: uc, historyLimit: historyLimit}
}

func (h *WalletHandler) Open(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	dto, err := h.uc.Open(c.Request().Context(), caller.ID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, h.amounts.wallet(dto))
}

func (h *WalletHandler) Me(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	dto, err := h.uc.Balance(c.Request().Context(), caller.ID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.amounts.wallet(dto))
}

type historyReq struct {
	Limit int `query:"limit" validate:"gte=0,lte=500"`
}

func (h *WalletHandler) History(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req historyReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	limit := req.Limit
	if limit == 0 {
		limit = h.historyLimit
	}
	ts, err := h.uc.History(c.Request().Context(), caller.ID, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]transactionView, 0, len(ts))
	for i := range ts {
		out = append(out, h.amounts.transaction(&ts[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"transactions": out})
}
