package wallet

import (
	"time"

	walletDomain "p2plend/internal/domain/wallet"
	"p2plend/pkg/money"
)

type WalletDTO struct {
	WalletID  string       `json:"wallet_id"`
	OwnerID   string       `json:"owner_id"`
	Balance   money.Amount `json:"balance"`
	Currency  string       `json:"currency"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type TransactionDTO struct {
	TransactionID string       `json:"transaction_id"`
	WalletID      string       `json:"wallet_id"`
	Direction     string       `json:"direction"`
	Amount        money.Amount `json:"amount"`
	BalanceBefore money.Amount `json:"balance_before"`
	BalanceAfter  money.Amount `json:"balance_after"`
	Tag           string       `json:"tag"`
	LoanID        string       `json:"loan_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Posting is one balance change against a single wallet.
type Posting struct {
	WalletID  string
	Direction walletDomain.Direction
	Amount    money.Amount
	Tag       string
	// LoanID is empty when the movement is not tied to a loan.
	LoanID string
}

func toWalletDTO(w *walletDomain.Wallet) *WalletDTO {
	return &WalletDTO{
		WalletID:  w.WalletID,
		OwnerID:   w.OwnerID,
		Balance:   w.Balance,
		Currency:  w.Currency,
		UpdatedAt: w.UpdatedAt,
	}
}

func ToTransactionDTO(t *walletDomain.Transaction) *TransactionDTO {
	dto := &TransactionDTO{
		TransactionID: t.TransactionID,
		WalletID:      t.WalletID,
		Direction:     string(t.Direction),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Tag:           t.Tag,
		CreatedAt:     t.CreatedAt,
	}
	if t.LoanID != nil {
		dto.LoanID = *t.LoanID
	}
	return dto
}
