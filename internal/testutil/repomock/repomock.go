// Package repomock provides function-backed doubles for the domain
// repositories and the unit of work. Unset functions fall back to a benign
// default noted on each type.
package repomock

import (
	"context"
	"errors"

	"p2plend/internal/domain/approval"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/uow"
)

var (
	_ loan.Repository     = (*Loans)(nil)
	_ approval.Repository = (*Approvals)(nil)
	_ outbox.Repository   = (*Outbox)(nil)
	_ uow.UnitOfWork      = (*UoW)(nil)
)

var errUnimplemented = errors.New("repomock: method not implemented")

// Loans: writes default to nil, reads to context.Canceled.
type Loans struct {
	CreateFn                     func(ctx context.Context, l *loan.Loan) error
	GetByLoanIDFn                func(ctx context.Context, loanID string) (*loan.Loan, error)
	GetByLoanIDForUpdateFn       func(ctx context.Context, loanID string) (*loan.Loan, error)
	GetPendingLoanByBorrowerIDFn func(ctx context.Context, borrowerID string) (*loan.Loan, error)
	SaveFn                       func(ctx context.Context, l *loan.Loan) error
}

func (m *Loans) Create(ctx context.Context, l *loan.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Loans) GetByLoanID(ctx context.Context, loanID string) (*loan.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Loans) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Loans) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*loan.Loan, error) {
	if m.GetPendingLoanByBorrowerIDFn != nil {
		return m.GetPendingLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Loans) Save(ctx context.Context, l *loan.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

// Approvals: writes default to nil, reads to context.Canceled.
type Approvals struct {
	CreateFn          func(ctx context.Context, a *approval.Approval) error
	GetByLoanIDFn     func(ctx context.Context, loanID string) (*approval.Approval, error)
	GetByApprovalIDFn func(ctx context.Context, approvalID string) (*approval.Approval, error)
}

func (m *Approvals) Create(ctx context.Context, a *approval.Approval) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Approvals) GetByLoanID(ctx context.Context, loanID string) (*approval.Approval, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Approvals) GetByApprovalID(ctx context.Context, approvalID string) (*approval.Approval, error) {
	if m.GetByApprovalIDFn != nil {
		return m.GetByApprovalIDFn(ctx, approvalID)
	}
	return nil, context.Canceled
}

// Outbox records created events; Poll returns them in order.
type Outbox struct {
	Events    []outbox.Event
	CreateErr error
}

func (m *Outbox) Create(_ context.Context, e *outbox.Event) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	e.ID = uint64(len(m.Events) + 1)
	m.Events = append(m.Events, *e)
	return nil
}

func (m *Outbox) Poll(_ context.Context, limit int) ([]outbox.Event, error) {
	var out []outbox.Event
	for _, e := range m.Events {
		if !e.Processed && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Outbox) MarkProcessed(_ context.Context, id uint64) error {
	for i := range m.Events {
		if m.Events[i].ID == id {
			m.Events[i].Processed = true
			return nil
		}
	}
	return errUnimplemented
}

// UoW runs callbacks against Repos without a real transaction. Set the Fn
// fields to intercept; unset ones return errUnimplemented unless Repos is
// populated, in which case fn runs directly.
type UoW struct {
	Repos          *uow.Repos
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	if m.Repos != nil {
		return fn(*m.Repos)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	if m.Repos != nil {
		l, err := m.Repos.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(*m.Repos, l)
	}
	return errUnimplemented
}
