package sqlstore

import (
	"context"
	"fmt"
	"time"

	"p2plend/internal/domain/errs"
	repaymentDomain "p2plend/internal/domain/repayment"

	"gorm.io/gorm"
)

type RepaymentRepository struct{ db *gorm.DB }

func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository { return &RepaymentRepository{db: db} }

func (r *RepaymentRepository) CreateBatch(ctx context.Context, rs []repaymentDomain.Repayment) error {
	if len(rs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rs).Error
}

func (r *RepaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]repaymentDomain.Repayment, error) {
	var out []repaymentDomain.Repayment
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("seq ASC").Find(&out).Error
	return out, err
}

func (r *RepaymentRepository) GetByRepaymentID(ctx context.Context, repaymentID string) (*repaymentDomain.Repayment, error) {
	var out repaymentDomain.Repayment
	if err := r.db.WithContext(ctx).Where("repayment_id = ?", repaymentID).First(&out).Error; err != nil {
		return nil, notFound(err, "repayment", repaymentID)
	}
	return &out, nil
}

func (r *RepaymentRepository) GetByRepaymentIDForUpdate(ctx context.Context, repaymentID string) (*repaymentDomain.Repayment, error) {
	var out repaymentDomain.Repayment
	if err := r.db.WithContext(ctx).Clauses(forUpdate).Where("repayment_id = ?", repaymentID).First(&out).Error; err != nil {
		return nil, notFound(err, "repayment", repaymentID)
	}
	return &out, nil
}

func (r *RepaymentRepository) MarkPaid(ctx context.Context, rp *repaymentDomain.Repayment, paidAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&repaymentDomain.Repayment{}).
		Where("id = ? AND status = ?", rp.ID, repaymentDomain.StatusPending).
		Updates(map[string]any{"status": repaymentDomain.StatusPaid, "paid_at": paidAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: repayment %s is not pending", errs.ErrInvalidState, rp.RepaymentID)
	}
	rp.Status = repaymentDomain.StatusPaid
	rp.PaidAt = &paidAt
	return nil
}
