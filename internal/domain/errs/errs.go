// Package errs is the error taxonomy shared by every ledger operation.
//
// Usecases wrap these with detail (fmt.Errorf("%w: ...", errs.ErrX)); callers
// branch on errors.Is. All kinds except ErrSettlementFatal are ordinary,
// caller-recoverable rejections that leave ledger state untouched.
package errs

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrExceedsCap        = errors.New("exceeds requested amount")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidCode       = errors.New("invalid code")
	ErrExpired           = errors.New("expired")
	ErrValidation        = errors.New("validation failed")

	// ErrSettlementFatal marks a failure inside the settlement unit after the
	// borrower debit was posted. The unit is rolled back, but it indicates a
	// storage or logic bug and must reach an operator.
	ErrSettlementFatal = errors.New("settlement failed after borrower debit")
)
