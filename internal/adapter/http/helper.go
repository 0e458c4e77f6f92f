package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2plend/internal/adapter/middleware"
	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/identity"
	"p2plend/pkg/money"
)

const settlementFailedMsg = "settlement failed; operator alerted"

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrSettlementFatal):
		return http.StatusInternalServerError
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInsufficientFunds), errors.Is(err, errs.ErrExceedsCap):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidCode),
		errors.Is(err, money.ErrPrecision), errors.Is(err, money.ErrOverflow):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err; unexpected errors are logged and hidden from the client.
func writeError(c echo.Context, log *zap.SugaredLogger, err error) error {
	status := statusOf(err)
	if errors.Is(err, errs.ErrSettlementFatal) {
		log.Errorw("settlement failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		return c.JSON(status, ErrorResponse{Error: settlementFailedMsg})
	}
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		return c.JSON(status, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}

// bindValid binds and validates req, writing the 400/422 response itself.
// It reports false when the handler should stop.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func callerOf(c echo.Context) (identity.Caller, bool) {
	return middleware.CallerFrom(c)
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
}
