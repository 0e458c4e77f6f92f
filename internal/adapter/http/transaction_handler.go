package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2plend/internal/usecase/otp"
)

// TransactionHandler serves the OTP-gated deposit and withdraw flow.
type TransactionHandler struct {
	base
	uc *otp.Usecase
}

func NewTransactionHandler(uc *otp.Usecase, amounts Amounts, log *zap.SugaredLogger) *TransactionHandler {
	return &TransactionHandler{base: base{amounts: amounts, log: log}, uc: uc}
}

type initiateReq struct {
	Kind        string `json:"kind"        validate:"required,oneof=deposit withdraw"`
	Amount      string `json:"amount"      validate:"required,decimal"`
	Provider    string `json:"provider"    validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

func (h *TransactionHandler) Initiate(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req initiateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	amount, err := h.amounts.Parse(req.Amount)
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.uc.Initiate(c.Request().Context(), caller, otp.InitiateInput{
		Kind:        req.Kind,
		Amount:      amount,
		Provider:    req.Provider,
		Destination: req.Destination,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, h.amounts.initiate(res))
}

type confirmReq struct {
	TransactionID string `param:"transaction_id" json:"-" validate:"required,uuid"`
	Code          string `json:"code"                   validate:"required,numeric"`
}

func (h *TransactionHandler) Confirm(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req confirmReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.Confirm(c.Request().Context(), caller, req.TransactionID, req.Code)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.amounts.confirm(res))
}

type cancelReq struct {
	TransactionID string `param:"transaction_id" validate:"required,uuid"`
}

func (h *TransactionHandler) Cancel(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthenticated(c)
	}
	var req cancelReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if err := h.uc.Cancel(c.Request().Context(), caller, req.TransactionID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
