package wallet

import (
	"time"

	"p2plend/pkg/money"
)

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction tags.
const (
	TagDeposit       = "deposit"
	TagWithdraw      = "withdraw"
	TagLoanFunding   = "loan_funding"
	TagLoanRepayment = "loan_repayment"
)

type Wallet struct {
	ID       uint64       `gorm:"primaryKey;column:id" json:"-"`
	WalletID string       `gorm:"size:32;not null;uniqueIndex:ux_wallets_wallet_id" json:"wallet_id"`
	OwnerID  string       `gorm:"size:64;not null;uniqueIndex:ux_wallets_owner" json:"owner_id"`
	Balance  money.Amount `gorm:"not null;default:0" json:"balance"`
	Currency string       `gorm:"size:3;not null" json:"currency"`
	// Version is bumped on every balance change; updates are conditional on it.
	Version   uint64    `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

// Transaction is an append-only ledger entry; rows are never updated.
type Transaction struct {
	ID            uint64       `gorm:"primaryKey;column:id" json:"-"`
	TransactionID string       `gorm:"size:32;not null;uniqueIndex:ux_wallet_tx_id" json:"transaction_id"`
	WalletID      string       `gorm:"size:32;not null;index:idx_wallet_tx_wallet" json:"wallet_id"`
	Direction     Direction    `gorm:"size:8;not null" json:"direction"`
	Amount        money.Amount `gorm:"not null" json:"amount"`
	BalanceBefore money.Amount `gorm:"not null" json:"balance_before"`
	BalanceAfter  money.Amount `gorm:"not null" json:"balance_after"`
	Tag           string       `gorm:"size:32;not null" json:"tag"`
	LoanID        *string      `gorm:"size:32;index:idx_wallet_tx_loan" json:"loan_id,omitempty"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "wallet_transactions" }
