package funding

import (
	"time"

	"p2plend/pkg/money"
)

// Funding is one lender's accepted contribution to a loan. Immutable.
type Funding struct {
	ID        uint64       `gorm:"primaryKey;column:id" json:"-"`
	FundingID string       `gorm:"size:32;not null;uniqueIndex:ux_fundings_funding_id" json:"funding_id"`
	LoanID    string       `gorm:"size:32;not null;index:idx_fundings_loan" json:"loan_id"`
	LenderID  string       `gorm:"size:64;not null" json:"lender_id"`
	Amount    money.Amount `gorm:"not null" json:"amount"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Funding) TableName() string { return "loan_fundings" }

// Contribution is a lender's total stake in one loan.
type Contribution struct {
	LenderID string
	Amount   money.Amount
	// Order is the position of the lender's first funding within the loan.
	Order int
}

// Aggregate folds fundings (ordered by acceptance) into one Contribution per
// lender, keeping first-funding order.
func Aggregate(fs []Funding) ([]Contribution, money.Amount) {
	idx := make(map[string]int, len(fs))
	var out []Contribution
	var total money.Amount
	for _, f := range fs {
		total += f.Amount
		if i, ok := idx[f.LenderID]; ok {
			out[i].Amount += f.Amount
			continue
		}
		idx[f.LenderID] = len(out)
		out = append(out, Contribution{LenderID: f.LenderID, Amount: f.Amount, Order: len(out)})
	}
	return out, total
}
