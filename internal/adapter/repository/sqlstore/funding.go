package sqlstore

import (
	"context"

	fundingDomain "p2plend/internal/domain/funding"
	"p2plend/pkg/money"

	"gorm.io/gorm"
)

type FundingRepository struct{ db *gorm.DB }

func NewFundingRepository(db *gorm.DB) *FundingRepository { return &FundingRepository{db: db} }

func (r *FundingRepository) Create(ctx context.Context, f *fundingDomain.Funding) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FundingRepository) ListByLoanID(ctx context.Context, loanID string) ([]fundingDomain.Funding, error) {
	var out []fundingDomain.Funding
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *FundingRepository) SumByLoanID(ctx context.Context, loanID string) (money.Amount, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&fundingDomain.Funding{}).
		Where("loan_id = ?", loanID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return money.Amount(sum), err
}
