package http

import (
	"fmt"

	"github.com/shopspring/decimal"

	"p2plend/internal/domain/errs"
	"p2plend/pkg/money"
)

// Amounts converts between wire decimal strings and minor units.
type Amounts struct{ Exp int32 }

func (a Amounts) Parse(s string) (money.Amount, error) {
	m, err := money.Parse(s, a.Exp)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}
	return m, nil
}

func (a Amounts) Format(m money.Amount) string { return m.Format(a.Exp) }

func parseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid rate %q", errs.ErrValidation, s)
	}
	return d, nil
}
