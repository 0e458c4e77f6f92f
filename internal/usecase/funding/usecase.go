package funding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	fundingDomain "p2plend/internal/domain/funding"
	"p2plend/internal/domain/identity"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/uow"
	walletDomain "p2plend/internal/domain/wallet"
	"p2plend/internal/usecase/schedule"
	"p2plend/internal/usecase/wallet"
	"p2plend/pkg/id"
	"p2plend/pkg/keylock"
	"p2plend/pkg/money"
)

type FundingDTO struct {
	FundingID   string       `json:"funding_id"`
	LoanID      string       `json:"loan_id"`
	LenderID    string       `json:"lender_id"`
	Amount      money.Amount `json:"amount"`
	FundedTotal money.Amount `json:"funded_total"`
	Remaining   money.Amount `json:"remaining"`
	LoanState   string       `json:"loan_state"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Usecase struct {
	wallets   walletDomain.Repository
	uow       uow.UnitOfWork
	locks     *keylock.Locker
	schedules *schedule.Usecase
	log       *zap.SugaredLogger
}

func NewUsecase(wallets walletDomain.Repository, tx uow.UnitOfWork, locks *keylock.Locker, schedules *schedule.Usecase, log *zap.SugaredLogger) *Usecase {
	return &Usecase{wallets: wallets, uow: tx, locks: locks, schedules: schedules, log: log}
}

// Fund accepts the caller's contribution toward loanID. The cap check, the
// lender debit and the funding row commit together under the loan lock, so
// concurrent contributions are accepted in lock acquisition order and never
// jointly overshoot the requested amount. The contribution that completes
// the loan also moves it to funded and writes its schedule.
func (u *Usecase) Fund(ctx context.Context, caller identity.Caller, loanID string, amount money.Amount) (*FundingDTO, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", errs.ErrValidation, amount)
	}
	lw, err := u.wallets.GetByOwnerID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	unlock := u.locks.Lock(keylock.LoanKey(loanID), keylock.WalletKey(lw.WalletID))
	defer unlock()

	var out *FundingDTO
	err = u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.BorrowerID == caller.ID {
			return fmt.Errorf("%w: borrower cannot fund own loan %s", errs.ErrForbidden, loanID)
		}
		switch l.State {
		case loan.StateApproved:
		case loan.StateFunded:
			return fmt.Errorf("%w: loan %s is fully funded", errs.ErrExceedsCap, loanID)
		default:
			return fmt.Errorf("%w: loan %s is %s, funding needs approved", errs.ErrInvalidState, loanID, l.State)
		}

		sum, err := r.Fundings.SumByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		newTotal := sum + amount
		if newTotal > l.Requested {
			return fmt.Errorf("%w: loan %s has %d remaining, offered %d", errs.ErrExceedsCap, loanID, l.Requested-sum, amount)
		}

		if _, _, err := wallet.Post(ctx, r, wallet.Posting{
			WalletID:  lw.WalletID,
			Direction: walletDomain.DirectionDebit,
			Amount:    amount,
			Tag:       walletDomain.TagLoanFunding,
			LoanID:    loanID,
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		f := &fundingDomain.Funding{
			FundingID: id.NewID32(),
			LoanID:    loanID,
			LenderID:  caller.ID,
			Amount:    amount,
			CreatedAt: now,
		}
		if err := r.Fundings.Create(ctx, f); err != nil {
			return err
		}

		if newTotal == l.Requested {
			if !l.Transition(loan.StateFunded, now) {
				return fmt.Errorf("%w: loan %s cannot move %s -> funded", errs.ErrInvalidState, loanID, l.State)
			}
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			if _, err := u.schedules.Generate(ctx, r, l, now); err != nil {
				return err
			}
			evt, err := outbox.New("loan", loanID, outbox.TypeLoanFunded, map[string]any{
				"loan_id":   loanID,
				"requested": l.Requested,
			})
			if err != nil {
				return err
			}
			if err := r.Outbox.Create(ctx, evt); err != nil {
				return err
			}
		}

		out = &FundingDTO{
			FundingID:   f.FundingID,
			LoanID:      loanID,
			LenderID:    caller.ID,
			Amount:      amount,
			FundedTotal: newTotal,
			Remaining:   l.Requested - newTotal,
			LoanState:   string(l.State),
			CreatedAt:   f.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Infow("funding accepted", "loan_id", loanID, "lender_id", caller.ID, "amount", amount, "remaining", out.Remaining)
	return out, nil
}
