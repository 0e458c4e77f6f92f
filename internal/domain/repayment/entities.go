package repayment

import (
	"time"

	"p2plend/pkg/money"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Repayment is one scheduled installment of a loan.
type Repayment struct {
	ID          uint64       `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID string       `gorm:"size:32;not null;uniqueIndex:ux_repayments_repayment_id" json:"repayment_id"`
	LoanID      string       `gorm:"size:32;not null;uniqueIndex:ux_repayments_loan_seq" json:"loan_id"`
	Seq         int          `gorm:"not null;uniqueIndex:ux_repayments_loan_seq" json:"seq"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	Principal   money.Amount `gorm:"not null" json:"principal"`
	Interest    money.Amount `gorm:"not null" json:"interest"`
	Status      Status       `gorm:"size:16;not null;default:'pending'" json:"status"`
	PaidAt      *time.Time   `json:"paid_at,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Repayment) TableName() string { return "repayments" }

// Due is the total owed for the installment.
func (r *Repayment) Due() (money.Amount, error) { return money.Add(r.Principal, r.Interest) }
