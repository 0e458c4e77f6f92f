package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/identity"
	"p2plend/internal/domain/pending"
	walletDomain "p2plend/internal/domain/wallet"
	"p2plend/internal/usecase/wallet"
)

// retentionFactor keeps entries in the store past their expiry so a late
// confirm reports expired rather than not found; the sweep removes them.
const retentionFactor = 2

type Usecase struct {
	store   pending.Store
	wallets *wallet.Usecase
	sender  Sender
	policy  Policy
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewUsecase(store pending.Store, wallets *wallet.Usecase, sender Sender, p Policy, log *zap.SugaredLogger) *Usecase {
	return &Usecase{store: store, wallets: wallets, sender: sender, policy: p, log: log, now: time.Now}
}

func (u *Usecase) retention() time.Duration { return retentionFactor * u.policy.Expiry }

// Initiate validates the request, parks it in the pending store and sends
// the caller a one-time code. A delivery failure is reported in the result
// and never aborts the request.
func (u *Usecase) Initiate(ctx context.Context, caller identity.Caller, in InitiateInput) (*InitiateResult, error) {
	kind := pending.Kind(in.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", errs.ErrValidation, in.Kind)
	}
	if in.Amount < u.policy.MinAmount {
		return nil, fmt.Errorf("%w: amount %d below minimum %d", errs.ErrValidation, in.Amount, u.policy.MinAmount)
	}
	prov, ok := u.policy.Providers[in.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", errs.ErrValidation, in.Provider)
	}
	if !prov.Pattern.MatchString(in.Destination) {
		return nil, fmt.Errorf("%w: destination not valid for %s provider %s", errs.ErrValidation, prov.Kind, in.Provider)
	}
	if _, err := u.wallets.ByOwner(ctx, caller.ID); err != nil {
		return nil, err
	}

	code, err := newCode(u.policy.CodeLength)
	if err != nil {
		return nil, err
	}
	pt := &pending.Transaction{
		ID:          uuid.NewString(),
		RequesterID: caller.ID,
		Kind:        kind,
		Amount:      in.Amount,
		Provider:    in.Provider,
		Destination: in.Destination,
		Code:        code,
		CreatedAt:   u.now().UTC(),
	}
	if err := u.store.Put(ctx, pt, u.retention()); err != nil {
		return nil, err
	}

	res := &InitiateResult{
		TransactionID: pt.ID,
		Kind:          string(kind),
		Amount:        pt.Amount,
		Delivered:     true,
		ExpiresAt:     pt.ExpiresAt(u.policy.Expiry),
	}
	if err := u.deliver(ctx, caller, pt); err != nil {
		u.log.Warnw("otp delivery failed", "transaction_id", pt.ID, "channel", u.sender.Channel(), "err", err)
		res.Delivered = false
		res.DeliveryError = err.Error()
		if u.policy.EchoCodeOnFailure {
			res.Code = code
		}
	}
	u.log.Infow("transaction initiated", "transaction_id", pt.ID, "kind", kind, "requester_id", caller.ID, "delivered", res.Delivered)
	return res, nil
}

func (u *Usecase) deliver(ctx context.Context, caller identity.Caller, pt *pending.Transaction) error {
	var to string
	switch u.sender.Channel() {
	case ChannelSMS:
		if u.policy.Providers[pt.Provider].Kind != ProviderMobileMoney {
			return errors.New("no phone number on record for sms delivery")
		}
		to = pt.Destination
	default:
		if caller.Email == "" {
			return errors.New("no email address on record")
		}
		to = caller.Email
	}
	return u.sender.SendCode(ctx, to, pt.Code)
}

// Confirm checks the code and, on a match, consumes the pending entry and
// moves the money. Exactly one confirm can consume an entry; everyone else
// sees errs.ErrNotFound.
func (u *Usecase) Confirm(ctx context.Context, caller identity.Caller, transactionID, code string) (*ConfirmResult, error) {
	pt, err := u.store.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	if !now.Before(pt.ExpiresAt(u.policy.Expiry)) {
		if _, err := u.store.Delete(ctx, transactionID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: transaction %s", errs.ErrExpired, transactionID)
	}
	if pt.RequesterID != caller.ID {
		return nil, fmt.Errorf("%w: transaction %s belongs to another user", errs.ErrForbidden, transactionID)
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(pt.Code)) != 1 {
		n, err := u.store.IncrAttempts(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if u.policy.MaxAttempts > 0 && n >= u.policy.MaxAttempts {
			if _, err := u.store.Delete(ctx, transactionID); err != nil {
				return nil, err
			}
			u.log.Warnw("otp attempts exhausted", "transaction_id", transactionID, "attempts", n)
			return nil, fmt.Errorf("%w: attempts exhausted, transaction %s discarded", errs.ErrInvalidCode, transactionID)
		}
		return nil, fmt.Errorf("%w: transaction %s", errs.ErrInvalidCode, transactionID)
	}

	deleted, err := u.store.Delete(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, fmt.Errorf("%w: transaction %s already consumed", errs.ErrNotFound, transactionID)
	}

	tx, err := u.apply(ctx, pt)
	if err != nil {
		u.restore(ctx, pt)
		return nil, err
	}
	u.log.Infow("transaction confirmed", "transaction_id", transactionID, "kind", pt.Kind, "wallet_tx", tx.TransactionID)
	return &ConfirmResult{Transaction: tx, Balance: tx.BalanceAfter}, nil
}

func (u *Usecase) apply(ctx context.Context, pt *pending.Transaction) (*wallet.TransactionDTO, error) {
	w, err := u.wallets.ByOwner(ctx, pt.RequesterID)
	if err != nil {
		return nil, err
	}
	if pt.Kind == pending.KindDeposit {
		return u.wallets.Credit(ctx, w.WalletID, pt.Amount, walletDomain.TagDeposit, "")
	}
	return u.wallets.Debit(ctx, w.WalletID, pt.Amount, walletDomain.TagWithdraw, "")
}

// restore puts a claimed entry back after the wallet refused the movement,
// keeping whatever retention it had left.
func (u *Usecase) restore(ctx context.Context, pt *pending.Transaction) {
	left := pt.CreatedAt.Add(u.retention()).Sub(u.now())
	if left <= 0 {
		return
	}
	if err := u.store.Put(ctx, pt, left); err != nil {
		u.log.Errorw("restore pending transaction", "transaction_id", pt.ID, "err", err)
	}
}

// Cancel drops a pending transaction owned by the caller.
func (u *Usecase) Cancel(ctx context.Context, caller identity.Caller, transactionID string) error {
	pt, err := u.store.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if pt.RequesterID != caller.ID {
		return fmt.Errorf("%w: transaction %s belongs to another user", errs.ErrForbidden, transactionID)
	}
	deleted, err := u.store.Delete(ctx, transactionID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: transaction %s", errs.ErrNotFound, transactionID)
	}
	return nil
}

// Sweep removes entries whose confirmation window has passed.
func (u *Usecase) Sweep(ctx context.Context) (int, error) {
	n, err := u.store.Sweep(ctx, u.now().Add(-u.policy.Expiry))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Infow("swept expired transactions", "count", n)
	}
	return n, nil
}

func newCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
