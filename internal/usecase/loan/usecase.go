package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/identity"
	"p2plend/internal/domain/loan"
	"p2plend/pkg/id"
	"p2plend/pkg/money"
)

type Usecase struct {
	repo         loan.Repository
	minRequested money.Amount
	log          *zap.SugaredLogger
}

func NewUsecase(r loan.Repository, minRequested money.Amount, log *zap.SugaredLogger) *Usecase {
	return &Usecase{repo: r, minRequested: minRequested, log: log}
}

func (u *Usecase) Create(ctx context.Context, caller identity.Caller, in CreateLoanInput) (*LoanDTO, error) {
	switch {
	case caller.ID == "":
		return nil, fmt.Errorf("%w: missing borrower", errs.ErrValidation)
	case in.Requested < u.minRequested:
		return nil, fmt.Errorf("%w: requested amount below minimum %d", errs.ErrValidation, u.minRequested)
	case in.TermMonths < 1:
		return nil, fmt.Errorf("%w: term must be at least one month", errs.ErrValidation)
	case in.Rate.IsNegative():
		return nil, fmt.Errorf("%w: rate must not be negative", errs.ErrValidation)
	}
	// The full amount owed must fit an Amount or the loan could never settle.
	interest, err := money.SimpleInterest(in.Requested, in.Rate, in.TermMonths)
	if err == nil {
		_, err = money.Add(in.Requested, interest)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}

	// Block if the borrower already has a pending loan.
	pending, err := u.repo.GetPendingLoanByBorrowerID(ctx, caller.ID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: borrower %s already has a pending loan: %s", errs.ErrInvalidState, caller.ID, pending.LoanID)
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	now := time.Now().UTC()
	l := &loan.Loan{
		LoanID:         id.NewID32(),
		BorrowerID:     caller.ID,
		Requested:      in.Requested,
		TermMonths:     in.TermMonths,
		Rate:           in.Rate,
		State:          loan.StatePending,
		StateUpdatedAt: now,
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	u.log.Infow("loan created", "loan_id", l.LoanID, "borrower_id", l.BorrowerID, "requested", l.Requested)
	return ToLoanDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return ToLoanDTO(l), nil
}
