package loan

import (
	"time"

	"github.com/shopspring/decimal"

	loanDomain "p2plend/internal/domain/loan"
	"p2plend/pkg/money"
)

type CreateLoanInput struct {
	Requested  money.Amount
	TermMonths int
	// Rate is the yearly interest rate in percent.
	Rate decimal.Decimal
}

type LoanDTO struct {
	LoanID     string          `json:"loan_id"`
	BorrowerID string          `json:"borrower_id"`
	Requested  money.Amount    `json:"requested"`
	TermMonths int             `json:"term_months"`
	Rate       decimal.Decimal `json:"rate"`
	State      string          `json:"state"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func ToLoanDTO(l *loanDomain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:     l.LoanID,
		BorrowerID: l.BorrowerID,
		Requested:  l.Requested,
		TermMonths: l.TermMonths,
		Rate:       l.Rate,
		State:      string(l.State),
		ApprovedAt: l.ApprovedAt,
		CreatedAt:  l.CreatedAt,
	}
}
