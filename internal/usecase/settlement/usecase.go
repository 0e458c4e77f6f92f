package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	fundingDomain "p2plend/internal/domain/funding"
	"p2plend/internal/domain/identity"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/repayment"
	"p2plend/internal/domain/uow"
	walletDomain "p2plend/internal/domain/wallet"
	"p2plend/internal/usecase/wallet"
	"p2plend/pkg/keylock"
	"p2plend/pkg/money"
)

type Result struct {
	RepaymentID string       `json:"repayment_id"`
	LoanID      string       `json:"loan_id"`
	Due         money.Amount `json:"due"`
	Payouts     []Payout     `json:"payouts"`
	PaidAt      time.Time    `json:"paid_at"`
}

// Repos is the read side settlement needs before it takes any lock.
type Repos struct {
	Loans      loan.Repository
	Wallets    walletDomain.Repository
	Fundings   fundingDomain.Repository
	Repayments repayment.Repository
}

type Usecase struct {
	reads  Repos
	uow    uow.UnitOfWork
	locks  *keylock.Locker
	policy RemainderPolicy
	log    *zap.SugaredLogger
	// fatal receives failures that happen after the borrower was debited.
	fatal *zap.SugaredLogger
}

func NewUsecase(reads Repos, tx uow.UnitOfWork, locks *keylock.Locker, policy RemainderPolicy, log, fatal *zap.SugaredLogger) *Usecase {
	return &Usecase{reads: reads, uow: tx, locks: locks, policy: policy, log: log, fatal: fatal}
}

// Settle collects one installment from the borrower and pays every lender
// their proportional share. The debit, all credits and the paid mark commit
// together or not at all.
func (u *Usecase) Settle(ctx context.Context, caller identity.Caller, repaymentID string) (*Result, error) {
	rp, err := u.reads.Repayments.GetByRepaymentID(ctx, repaymentID)
	if err != nil {
		return nil, err
	}
	l, err := u.reads.Loans.GetByLoanID(ctx, rp.LoanID)
	if err != nil {
		return nil, err
	}
	if l.BorrowerID != caller.ID {
		return nil, fmt.Errorf("%w: repayment %s belongs to another borrower", errs.ErrForbidden, repaymentID)
	}

	keys, err := u.lockKeys(ctx, l)
	if err != nil {
		return nil, err
	}
	unlock := u.locks.Lock(keys...)
	defer unlock()

	var res *Result
	err = u.uow.WithinLoanTx(ctx, l.LoanID, func(r uow.Repos, l *loan.Loan) error {
		rp, err := r.Repayments.GetByRepaymentIDForUpdate(ctx, repaymentID)
		if err != nil {
			return err
		}
		if rp.Status != repayment.StatusPending {
			return fmt.Errorf("%w: repayment %s is %s", errs.ErrInvalidState, repaymentID, rp.Status)
		}
		bw, err := r.Wallets.GetByOwnerID(ctx, l.BorrowerID)
		if err != nil {
			return err
		}

		due, err := rp.Due()
		if err != nil {
			return fmt.Errorf("%w: repayment %s: %w", errs.ErrValidation, repaymentID, err)
		}
		if _, _, err := wallet.Post(ctx, r, wallet.Posting{
			WalletID:  bw.WalletID,
			Direction: walletDomain.DirectionDebit,
			Amount:    due,
			Tag:       walletDomain.TagLoanRepayment,
			LoanID:    l.LoanID,
		}); err != nil {
			return err
		}

		res, err = u.distribute(ctx, r, l, rp, due)
		if err != nil {
			return fmt.Errorf("%w: %w", errs.ErrSettlementFatal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrSettlementFatal) {
			u.fatal.Errorw("settlement rolled back after borrower debit",
				"repayment_id", repaymentID, "loan_id", l.LoanID, "err", err)
		}
		return nil, err
	}
	u.log.Infow("repayment settled", "repayment_id", repaymentID, "loan_id", l.LoanID, "due", res.Due, "lenders", len(res.Payouts))
	return res, nil
}

// lockKeys names the loan and every wallet the settlement will touch. Wallet
// ownership and the funding set of a repaying loan are fixed, so resolving
// them before locking is safe.
func (u *Usecase) lockKeys(ctx context.Context, l *loan.Loan) ([]string, error) {
	keys := []string{keylock.LoanKey(l.LoanID)}
	bw, err := u.reads.Wallets.GetByOwnerID(ctx, l.BorrowerID)
	if err != nil {
		return nil, err
	}
	keys = append(keys, keylock.WalletKey(bw.WalletID))

	fs, err := u.reads.Fundings.ListByLoanID(ctx, l.LoanID)
	if err != nil {
		return nil, err
	}
	cs, _ := fundingDomain.Aggregate(fs)
	for _, c := range cs {
		w, err := u.reads.Wallets.GetByOwnerID(ctx, c.LenderID)
		if err != nil {
			return nil, err
		}
		keys = append(keys, keylock.WalletKey(w.WalletID))
	}
	return keys, nil
}

func (u *Usecase) distribute(ctx context.Context, r uow.Repos, l *loan.Loan, rp *repayment.Repayment, due money.Amount) (*Result, error) {
	fs, err := r.Fundings.ListByLoanID(ctx, l.LoanID)
	if err != nil {
		return nil, err
	}
	cs, total := fundingDomain.Aggregate(fs)
	if total <= 0 {
		return nil, fmt.Errorf("loan %s has no contributions", l.LoanID)
	}

	payouts := Distribute(due, cs, total, u.policy)
	var paid money.Amount
	for _, p := range payouts {
		paid += p.Amount
		if p.Amount == 0 {
			continue
		}
		lw, err := r.Wallets.GetByOwnerID(ctx, p.LenderID)
		if err != nil {
			return nil, fmt.Errorf("lender %s wallet: %w", p.LenderID, err)
		}
		if _, _, err := wallet.Post(ctx, r, wallet.Posting{
			WalletID:  lw.WalletID,
			Direction: walletDomain.DirectionCredit,
			Amount:    p.Amount,
			Tag:       walletDomain.TagLoanRepayment,
			LoanID:    l.LoanID,
		}); err != nil {
			return nil, fmt.Errorf("credit lender %s: %w", p.LenderID, err)
		}
	}
	if paid != due {
		return nil, fmt.Errorf("payouts %d do not match due %d", paid, due)
	}

	now := time.Now().UTC()
	if err := r.Repayments.MarkPaid(ctx, rp, now); err != nil {
		return nil, err
	}

	res := &Result{RepaymentID: rp.RepaymentID, LoanID: l.LoanID, Due: due, Payouts: payouts, PaidAt: now}
	evt, err := outbox.New("repayment", rp.RepaymentID, outbox.TypeRepaymentSettled, res)
	if err != nil {
		return nil, err
	}
	if err := r.Outbox.Create(ctx, evt); err != nil {
		return nil, err
	}
	return res, nil
}
