package repayment

import (
	"context"
	"time"
)

type Repository interface {
	CreateBatch(ctx context.Context, rs []Repayment) error
	// ListByLoanID returns the schedule ordered by Seq.
	ListByLoanID(ctx context.Context, loanID string) ([]Repayment, error)
	GetByRepaymentID(ctx context.Context, repaymentID string) (*Repayment, error)
	GetByRepaymentIDForUpdate(ctx context.Context, repaymentID string) (*Repayment, error)
	// MarkPaid flips a pending row to paid; it fails if the row is no longer pending.
	MarkPaid(ctx context.Context, r *Repayment, paidAt time.Time) error
}
