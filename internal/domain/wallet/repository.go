package wallet

import (
	"context"
	"errors"

	"p2plend/pkg/money"
)

// ErrVersionConflict means the row changed between read and conditional update.
var ErrVersionConflict = errors.New("wallet version conflict")

type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	GetByWalletID(ctx context.Context, walletID string) (*Wallet, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*Wallet, error)
	GetByWalletIDForUpdate(ctx context.Context, walletID string) (*Wallet, error)
	// UpdateBalance writes newBalance only if w.Version is still current and
	// bumps the version in w on success.
	UpdateBalance(ctx context.Context, w *Wallet, newBalance money.Amount) error
	AppendTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, walletID string, limit int) ([]Transaction, error)
}
