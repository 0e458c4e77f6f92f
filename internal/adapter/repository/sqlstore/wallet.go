package sqlstore

import (
	"context"
	"time"

	walletDomain "p2plend/internal/domain/wallet"
	"p2plend/pkg/money"

	"gorm.io/gorm"
)

type WalletRepository struct{ db *gorm.DB }

func NewWalletRepository(db *gorm.DB) *WalletRepository { return &WalletRepository{db: db} }

func (r *WalletRepository) Create(ctx context.Context, w *walletDomain.Wallet) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WalletRepository) GetByWalletID(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	var out walletDomain.Wallet
	if err := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).First(&out).Error; err != nil {
		return nil, notFound(err, "wallet", walletID)
	}
	return &out, nil
}

func (r *WalletRepository) GetByOwnerID(ctx context.Context, ownerID string) (*walletDomain.Wallet, error) {
	var out walletDomain.Wallet
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&out).Error; err != nil {
		return nil, notFound(err, "wallet for owner", ownerID)
	}
	return &out, nil
}

// GetByWalletIDForUpdate locks the wallet row.
func (r *WalletRepository) GetByWalletIDForUpdate(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	var out walletDomain.Wallet
	if err := r.db.WithContext(ctx).Clauses(forUpdate).Where("wallet_id = ?", walletID).First(&out).Error; err != nil {
		return nil, notFound(err, "wallet", walletID)
	}
	return &out, nil
}

// UpdateBalance with optimistic lock.
func (r *WalletRepository) UpdateBalance(ctx context.Context, w *walletDomain.Wallet, newBalance money.Amount) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&walletDomain.Wallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]any{
			"balance":    int64(newBalance),
			"version":    w.Version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return walletDomain.ErrVersionConflict
	}
	w.Balance = newBalance
	w.Version++
	w.UpdatedAt = now
	return nil
}

func (r *WalletRepository) AppendTransaction(ctx context.Context, t *walletDomain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListTransactions returns the newest entries first.
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID string, limit int) ([]walletDomain.Transaction, error) {
	var out []walletDomain.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
