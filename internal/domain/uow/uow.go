package uow

import (
	"context"

	"p2plend/internal/domain/approval"
	"p2plend/internal/domain/funding"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/repayment"
	"p2plend/internal/domain/wallet"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans      loan.Repository
	Approvals  approval.Repository
	Wallets    wallet.Repository
	Fundings   funding.Repository
	Repayments repayment.Repository
	Outbox     outbox.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
