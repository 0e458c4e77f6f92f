package approval

import (
	"time"

	domainApproval "p2plend/internal/domain/approval"
	domainLoan "p2plend/internal/domain/loan"
)

type DecisionDTO struct {
	ApprovalID string    `json:"approval_id"`
	LoanID     string    `json:"loan_id"`
	Decision   string    `json:"decision"`
	ReviewerID string    `json:"reviewer_id"`
	Note       string    `json:"note,omitempty"`
	LoanState  string    `json:"loan_state"`
	DecidedAt  time.Time `json:"decided_at"`
}

func toDecisionDTO(a *domainApproval.Approval, l *domainLoan.Loan) *DecisionDTO {
	return &DecisionDTO{
		ApprovalID: a.ApprovalID,
		LoanID:     a.LoanID,
		Decision:   string(a.Decision),
		ReviewerID: a.ReviewerID,
		Note:       a.Note,
		LoanState:  string(l.State),
		DecidedAt:  a.DecidedAt,
	}
}
