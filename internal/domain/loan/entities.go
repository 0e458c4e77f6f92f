package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"p2plend/pkg/money"
)

type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateFunded   State = "funded"
	StateRejected State = "rejected"
)

// transitions lists the only forward moves a loan may make.
var transitions = map[State][]State{
	StatePending:  {StateApproved, StateRejected},
	StateApproved: {StateFunded},
}

type Loan struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID         string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID     string          `gorm:"size:64;index:idx_loans_borrower_state" json:"borrower_id"`
	Requested      money.Amount    `gorm:"column:requested;not null" json:"requested"`
	TermMonths     int             `gorm:"column:term_months;not null" json:"term_months"`
	Rate           decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"rate"`
	State          State           `gorm:"size:16;not null;default:'pending';index:idx_loans_borrower_state" json:"state"`
	StateUpdatedAt time.Time       `json:"state_updated_at"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

func (l *Loan) CanTransition(to State) bool {
	for _, s := range transitions[l.State] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the loan forward and stamps the state time. It reports
// false, leaving the loan untouched, when the move is not allowed.
func (l *Loan) Transition(to State, at time.Time) bool {
	if !l.CanTransition(to) {
		return false
	}
	l.State = to
	l.StateUpdatedAt = at
	if to == StateApproved {
		t := at
		l.ApprovedAt = &t
	}
	return true
}
