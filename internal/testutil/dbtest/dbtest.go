// Package dbtest opens a migrated in-memory sqlite database for tests.
package dbtest

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"p2plend/internal/domain/wallet"
	"p2plend/internal/infrastructure/db"
	"p2plend/pkg/id"
	"p2plend/pkg/money"
)

// Open returns a fresh database holding every ledger table. Each call gets
// its own database; the pool is a single connection so it survives the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenGorm("sqlite", ":memory:", zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// SeedWallet inserts a wallet for owner holding balance and returns it.
func SeedWallet(t *testing.T, gdb *gorm.DB, owner string, balance money.Amount) *wallet.Wallet {
	t.Helper()
	w := &wallet.Wallet{WalletID: id.NewID32(), OwnerID: owner, Balance: balance, Currency: "IDR"}
	if err := gdb.Create(w).Error; err != nil {
		t.Fatalf("seed wallet %s: %v", owner, err)
	}
	return w
}

// BalanceOf reads the stored balance of walletID.
func BalanceOf(t *testing.T, gdb *gorm.DB, walletID string) money.Amount {
	t.Helper()
	var w wallet.Wallet
	if err := gdb.Where("wallet_id = ?", walletID).First(&w).Error; err != nil {
		t.Fatalf("load wallet %s: %v", walletID, err)
	}
	return w.Balance
}
