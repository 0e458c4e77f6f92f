package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/identity"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/repayment"
	"p2plend/internal/domain/uow"
	"p2plend/pkg/id"
	"p2plend/pkg/keylock"
	"p2plend/pkg/money"
)

// Policy is the installment cadence. It does not depend on the loan term.
type Policy struct {
	Count    int
	Interval time.Duration
}

type InstallmentDTO struct {
	RepaymentID string       `json:"repayment_id"`
	Seq         int          `json:"seq"`
	DueDate     time.Time    `json:"due_date"`
	Principal   money.Amount `json:"principal"`
	Interest    money.Amount `json:"interest"`
	Total       money.Amount `json:"total"`
	Status      string       `json:"status"`
	PaidAt      *time.Time   `json:"paid_at,omitempty"`
}

type Usecase struct {
	repayments repayment.Repository
	uow        uow.UnitOfWork
	locks      *keylock.Locker
	policy     Policy
	log        *zap.SugaredLogger
}

func NewUsecase(repayments repayment.Repository, tx uow.UnitOfWork, locks *keylock.Locker, p Policy, log *zap.SugaredLogger) *Usecase {
	return &Usecase{repayments: repayments, uow: tx, locks: locks, policy: p, log: log}
}

// Build derives the installments for l with simple interest. Principal and
// interest are split evenly with the remainder of each on the last
// installment, so both sums reproduce their totals exactly.
func Build(l *loan.Loan, now time.Time, p Policy) ([]repayment.Repayment, error) {
	totalInterest, err := money.SimpleInterest(l.Requested, l.Rate, l.TermMonths)
	if err != nil {
		return nil, fmt.Errorf("%w: loan %s: %w", errs.ErrValidation, l.LoanID, err)
	}
	if _, err := money.Add(l.Requested, totalInterest); err != nil {
		return nil, fmt.Errorf("%w: loan %s: %w", errs.ErrValidation, l.LoanID, err)
	}
	principals := money.Split(l.Requested, p.Count)
	interests := money.Split(totalInterest, p.Count)

	out := make([]repayment.Repayment, p.Count)
	for i := range out {
		out[i] = repayment.Repayment{
			RepaymentID: id.NewID32(),
			LoanID:      l.LoanID,
			Seq:         i + 1,
			DueDate:     now.Add(time.Duration(i+1) * p.Interval),
			Principal:   principals[i],
			Interest:    interests[i],
			Status:      repayment.StatusPending,
		}
	}
	return out, nil
}

// Generate writes the schedule for a funded loan inside the caller's
// transaction. A loan that already has a schedule gets it back unchanged.
func (u *Usecase) Generate(ctx context.Context, r uow.Repos, l *loan.Loan, now time.Time) ([]repayment.Repayment, error) {
	existing, err := r.Repayments.ListByLoanID(ctx, l.LoanID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	if l.State != loan.StateFunded {
		return nil, fmt.Errorf("%w: loan %s is %s, schedule needs funded", errs.ErrInvalidState, l.LoanID, l.State)
	}

	rs, err := Build(l, now, u.policy)
	if err != nil {
		return nil, err
	}
	if err := r.Repayments.CreateBatch(ctx, rs); err != nil {
		return nil, err
	}
	evt, err := outbox.New("loan", l.LoanID, outbox.TypeScheduleGenerated, map[string]any{
		"loan_id":      l.LoanID,
		"installments": len(rs),
	})
	if err != nil {
		return nil, err
	}
	if err := r.Outbox.Create(ctx, evt); err != nil {
		return nil, err
	}
	u.log.Infow("schedule generated", "loan_id", l.LoanID, "installments", len(rs))
	return rs, nil
}

// Ensure lets an admin write a funded loan's schedule when it is missing, in
// its own transaction. An existing schedule comes back unchanged.
func (u *Usecase) Ensure(ctx context.Context, caller identity.Caller, loanID string) ([]InstallmentDTO, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may regenerate schedules", errs.ErrForbidden)
	}
	unlock := u.locks.Lock(keylock.LoanKey(loanID))
	defer unlock()

	var rs []repayment.Repayment
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		var gerr error
		rs, gerr = u.Generate(ctx, r, l, time.Now().UTC())
		return gerr
	})
	if err != nil {
		return nil, err
	}
	return toDTOs(rs)
}

// List returns the loan's installments in order; empty before funding.
func (u *Usecase) List(ctx context.Context, loanID string) ([]InstallmentDTO, error) {
	rs, err := u.repayments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rs)
}

func toDTOs(rs []repayment.Repayment) ([]InstallmentDTO, error) {
	out := make([]InstallmentDTO, 0, len(rs))
	for i := range rs {
		r := &rs[i]
		due, err := r.Due()
		if err != nil {
			return nil, err
		}
		out = append(out, InstallmentDTO{
			RepaymentID: r.RepaymentID,
			Seq:         r.Seq,
			DueDate:     r.DueDate,
			Principal:   r.Principal,
			Interest:    r.Interest,
			Total:       due,
			Status:      string(r.Status),
			PaidAt:      r.PaidAt,
		})
	}
	return out, nil
}
