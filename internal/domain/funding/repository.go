package funding

import (
	"context"

	"p2plend/pkg/money"
)

type Repository interface {
	Create(ctx context.Context, f *Funding) error
	// ListByLoanID returns fundings in acceptance order.
	ListByLoanID(ctx context.Context, loanID string) ([]Funding, error)
	SumByLoanID(ctx context.Context, loanID string) (money.Amount, error)
}
