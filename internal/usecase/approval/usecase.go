package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainApproval "p2plend/internal/domain/approval"
	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/identity"
	domainLoan "p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/uow"
	"p2plend/pkg/id"
	"p2plend/pkg/keylock"
)

type Usecase struct {
	uow   uow.UnitOfWork
	locks *keylock.Locker
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, locks *keylock.Locker, log *zap.SugaredLogger) *Usecase {
	return &Usecase{uow: tx, locks: locks, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Approve moves a pending loan to approved, opening it for funding.
func (u *Usecase) Approve(ctx context.Context, caller identity.Caller, loanID, note string) (*DecisionDTO, error) {
	return u.decide(ctx, caller, loanID, note, domainApproval.DecisionApproved, domainLoan.StateApproved)
}

// Reject closes a pending loan.
func (u *Usecase) Reject(ctx context.Context, caller identity.Caller, loanID, note string) (*DecisionDTO, error) {
	return u.decide(ctx, caller, loanID, note, domainApproval.DecisionRejected, domainLoan.StateRejected)
}

func (u *Usecase) decide(ctx context.Context, caller identity.Caller, loanID, note string, d domainApproval.Decision, to domainLoan.State) (*DecisionDTO, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: only reviewers may decide on loans", errs.ErrForbidden)
	}

	unlock := u.locks.Lock(keylock.LoanKey(loanID))
	defer unlock()

	var dto *DecisionDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.State != domainLoan.StatePending {
			return fmt.Errorf("%w: loan %s is %s, decision needs pending", errs.ErrInvalidState, loanID, l.State)
		}

		if _, err := r.Approvals.GetByLoanID(ctx, loanID); err == nil {
			return fmt.Errorf("%w: loan %s already decided", errs.ErrInvalidState, loanID)
		} else if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		now := u.now()
		a := &domainApproval.Approval{
			ApprovalID: id.NewID32(),
			LoanID:     loanID,
			Decision:   d,
			ReviewerID: caller.ID,
			Note:       note,
			DecidedAt:  now,
		}
		if err := r.Approvals.Create(ctx, a); err != nil {
			return err
		}

		if !l.Transition(to, now) {
			return fmt.Errorf("%w: loan %s cannot move to %s", errs.ErrInvalidState, loanID, to)
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		ev, err := outbox.New("loan", loanID, outbox.TypeLoanDecided, map[string]any{
			"loan_id":     loanID,
			"decision":    d,
			"reviewer_id": caller.ID,
			"decided_at":  now,
		})
		if err != nil {
			return err
		}
		if err := r.Outbox.Create(ctx, ev); err != nil {
			return err
		}

		dto = toDecisionDTO(a, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Infow("loan decided", "loan_id", loanID, "decision", d, "reviewer_id", caller.ID)
	return dto, nil
}
