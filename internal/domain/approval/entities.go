package approval

import (
	"time"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Approval is the audit row written when a reviewer decides on a pending loan.
type Approval struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	ApprovalID string `gorm:"column:approval_id;size:32;not null;uniqueIndex:ux_approvals_approval_id"`
	// At most one decision per loan
	LoanID     string    `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_approvals_loan"`
	Decision   Decision  `gorm:"column:decision;size:16;not null"`
	ReviewerID string    `gorm:"column:reviewer_id;size:64;not null"`
	Note       string    `gorm:"column:note;type:text"`
	DecidedAt  time.Time `gorm:"column:decided_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Approval) TableName() string { return "approvals" }
