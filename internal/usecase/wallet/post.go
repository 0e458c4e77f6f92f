package wallet

import (
	"context"
	"fmt"
	"time"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/uow"
	walletDomain "p2plend/internal/domain/wallet"
	"p2plend/pkg/id"
	"p2plend/pkg/money"
)

type postedEvent struct {
	TransactionID string       `json:"transaction_id"`
	WalletID      string       `json:"wallet_id"`
	Amount        money.Amount `json:"amount"`
	BalanceAfter  money.Amount `json:"balance_after"`
	Tag           string       `json:"tag"`
	LoanID        string       `json:"loan_id,omitempty"`
}

// Post applies p inside the caller's transaction: it row-locks the wallet,
// checks the balance, writes the new balance, and appends the ledger entry
// plus its outbox event. The caller must already hold the wallet's keylock.
func Post(ctx context.Context, r uow.Repos, p Posting) (*walletDomain.Transaction, *walletDomain.Wallet, error) {
	if !p.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be positive, got %d", errs.ErrValidation, p.Amount)
	}

	w, err := r.Wallets.GetByWalletIDForUpdate(ctx, p.WalletID)
	if err != nil {
		return nil, nil, err
	}

	before := w.Balance
	var after money.Amount
	var evtType string
	switch p.Direction {
	case walletDomain.DirectionCredit:
		after = before + p.Amount
		if after < before {
			return nil, nil, fmt.Errorf("%w: credit overflows wallet %s", errs.ErrValidation, w.WalletID)
		}
		evtType = outbox.TypeWalletCredited
	case walletDomain.DirectionDebit:
		if p.Amount > before {
			return nil, nil, fmt.Errorf("%w: wallet %s has %d, needs %d", errs.ErrInsufficientFunds, w.WalletID, before, p.Amount)
		}
		after = before - p.Amount
		evtType = outbox.TypeWalletDebited
	default:
		return nil, nil, fmt.Errorf("%w: unknown direction %q", errs.ErrValidation, p.Direction)
	}

	if err := r.Wallets.UpdateBalance(ctx, w, after); err != nil {
		return nil, nil, err
	}

	t := &walletDomain.Transaction{
		TransactionID: id.NewID32(),
		WalletID:      w.WalletID,
		Direction:     p.Direction,
		Amount:        p.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Tag:           p.Tag,
		CreatedAt:     time.Now().UTC(),
	}
	if p.LoanID != "" {
		loanID := p.LoanID
		t.LoanID = &loanID
	}
	if err := r.Wallets.AppendTransaction(ctx, t); err != nil {
		return nil, nil, err
	}

	evt, err := outbox.New("wallet", w.WalletID, evtType, postedEvent{
		TransactionID: t.TransactionID,
		WalletID:      w.WalletID,
		Amount:        p.Amount,
		BalanceAfter:  after,
		Tag:           p.Tag,
		LoanID:        p.LoanID,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := r.Outbox.Create(ctx, evt); err != nil {
		return nil, nil, err
	}
	return t, w, nil
}
