package wallet

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/uow"
	walletDomain "p2plend/internal/domain/wallet"
	"p2plend/pkg/id"
	"p2plend/pkg/keylock"
	"p2plend/pkg/money"
)

// maxConflictRetries bounds the retry loop when another instance changed the
// wallet row between our read and conditional update.
const maxConflictRetries = 3

type Usecase struct {
	wallets  walletDomain.Repository
	uow      uow.UnitOfWork
	locks    *keylock.Locker
	currency string
	log      *zap.SugaredLogger
}

func NewUsecase(wallets walletDomain.Repository, tx uow.UnitOfWork, locks *keylock.Locker, currency string, log *zap.SugaredLogger) *Usecase {
	return &Usecase{wallets: wallets, uow: tx, locks: locks, currency: currency, log: log}
}

// Open creates the owner's wallet. An owner holds at most one.
func (u *Usecase) Open(ctx context.Context, ownerID string) (*WalletDTO, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", errs.ErrValidation)
	}
	unlock := u.locks.Lock("owner:" + ownerID)
	defer unlock()

	var out *walletDomain.Wallet
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		existing, err := r.Wallets.GetByOwnerID(ctx, ownerID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: owner %s already has wallet %s", errs.ErrInvalidState, ownerID, existing.WalletID)
		case !errors.Is(err, errs.ErrNotFound):
			return err
		}
		out = &walletDomain.Wallet{
			WalletID: id.NewID32(),
			OwnerID:  ownerID,
			Currency: u.currency,
		}
		return r.Wallets.Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	u.log.Infow("wallet opened", "wallet_id", out.WalletID, "owner_id", ownerID)
	return toWalletDTO(out), nil
}

func (u *Usecase) Credit(ctx context.Context, walletID string, amount money.Amount, tag, loanID string) (*TransactionDTO, error) {
	return u.apply(ctx, Posting{WalletID: walletID, Direction: walletDomain.DirectionCredit, Amount: amount, Tag: tag, LoanID: loanID})
}

// Debit fails with errs.ErrInsufficientFunds, posting nothing, when amount
// exceeds the balance.
func (u *Usecase) Debit(ctx context.Context, walletID string, amount money.Amount, tag, loanID string) (*TransactionDTO, error) {
	return u.apply(ctx, Posting{WalletID: walletID, Direction: walletDomain.DirectionDebit, Amount: amount, Tag: tag, LoanID: loanID})
}

func (u *Usecase) apply(ctx context.Context, p Posting) (*TransactionDTO, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", errs.ErrValidation, p.Amount)
	}
	unlock := u.locks.Lock(keylock.WalletKey(p.WalletID))
	defer unlock()

	var (
		t   *walletDomain.Transaction
		err error
	)
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
			var perr error
			t, _, perr = Post(ctx, r, p)
			return perr
		})
		if !errors.Is(err, walletDomain.ErrVersionConflict) {
			break
		}
		u.log.Warnw("wallet version conflict, retrying", "wallet_id", p.WalletID, "attempt", attempt+1)
	}
	if err != nil {
		return nil, err
	}
	return ToTransactionDTO(t), nil
}

// Balance returns the owner's wallet.
func (u *Usecase) Balance(ctx context.Context, ownerID string) (*WalletDTO, error) {
	w, err := u.wallets.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toWalletDTO(w), nil
}

// ByOwner resolves an owner's wallet id. Wallet ownership never changes, so
// the answer is safe to use for lock keys before a transaction starts.
func (u *Usecase) ByOwner(ctx context.Context, ownerID string) (*walletDomain.Wallet, error) {
	return u.wallets.GetByOwnerID(ctx, ownerID)
}

// History lists the owner's most recent ledger entries, newest first.
func (u *Usecase) History(ctx context.Context, ownerID string, limit int) ([]TransactionDTO, error) {
	w, err := u.wallets.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	ts, err := u.wallets.ListTransactions(ctx, w.WalletID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionDTO, 0, len(ts))
	for i := range ts {
		out = append(out, *ToTransactionDTO(&ts[i]))
	}
	return out, nil
}
