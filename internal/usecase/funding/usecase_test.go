package funding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p2plend/internal/adapter/repository/sqlstore"
	"p2plend/internal/domain/errs"
	fundingDomain "p2plend/internal/domain/funding"
	"p2plend/internal/domain/identity"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/repayment"
	"p2plend/internal/testutil/dbtest"
	"p2plend/internal/testutil/repomock"
	"p2plend/internal/usecase/schedule"
	"p2plend/pkg/keylock"
	"p2plend/pkg/money"
)

func setup(t *testing.T) (*Usecase, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	tx := sqlstore.NewGormUoW(db)
	locks := keylock.New()
	log := zap.NewNop().Sugar()
	sched := schedule.NewUsecase(sqlstore.NewRepaymentRepository(db), tx, locks, schedule.Policy{Count: 4, Interval: 7 * 24 * time.Hour}, log)
	return NewUsecase(sqlstore.NewWalletRepository(db), tx, locks, sched, log), db
}

func seedLoan(t *testing.T, db *gorm.DB, loanID string, state loan.State, requested money.Amount) {
	t.Helper()
	l := &loan.Loan{
		LoanID:         loanID,
		BorrowerID:     "borrower",
		Requested:      requested,
		TermMonths:     12,
		Rate:           decimal.NewFromInt(12),
		State:          state,
		StateUpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(l).Error)
}

func lender(id string) identity.Caller { return identity.Caller{ID: id, Role: identity.RoleUser} }

func loadLoan(t *testing.T, db *gorm.DB, loanID string) loan.Loan {
	t.Helper()
	var l loan.Loan
	require.NoError(t, db.Where("loan_id = ?", loanID).First(&l).Error)
	return l
}

func TestFund_PartialThenComplete(t *testing.T) {
	u, db := setup(t)
	ctx := context.Background()
	seedLoan(t, db, "L1", loan.StateApproved, 100_000)
	a := dbtest.SeedWallet(t, db, "A", 70_000)
	b := dbtest.SeedWallet(t, db, "B", 40_000)

	got, err := u.Fund(ctx, lender("A"), "L1", 60_000)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(40_000), got.Remaining)
	assert.Equal(t, string(loan.StateApproved), got.LoanState)
	assert.Equal(t, money.Amount(10_000), dbtest.BalanceOf(t, db, a.WalletID))

	got, err = u.Fund(ctx, lender("B"), "L1", 40_000)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), got.Remaining)
	assert.Equal(t, string(loan.StateFunded), got.LoanState)
	assert.Equal(t, money.Amount(0), dbtest.BalanceOf(t, db, b.WalletID))

	l := loadLoan(t, db, "L1")
	assert.Equal(t, loan.StateFunded, l.State)

	var rs []repayment.Repayment
	require.NoError(t, db.Where("loan_id = ?", "L1").Order("seq").Find(&rs).Error)
	require.Len(t, rs, 4)
	due, err := rs[0].Due()
	require.NoError(t, err)
	assert.Equal(t, money.Amount(28_000), due)

	var funded int64
	require.NoError(t, db.Model(&outbox.Event{}).Where("event_type = ?", outbox.TypeLoanFunded).Count(&funded).Error)
	assert.Equal(t, int64(1), funded)
}

func TestFund_Rejections(t *testing.T) {
	u, db := setup(t)
	ctx := context.Background()
	seedLoan(t, db, "APPROVED", loan.StateApproved, 100_000)
	seedLoan(t, db, "PENDING", loan.StatePending, 100_000)
	seedLoan(t, db, "FUNDED", loan.StateFunded, 100_000)
	dbtest.SeedWallet(t, db, "A", 500_000)
	dbtest.SeedWallet(t, db, "poor", 10)
	dbtest.SeedWallet(t, db, "borrower", 500_000)

	cases := []struct {
		name   string
		caller string
		loanID string
		amount money.Amount
		want   error
	}{
		{"overshoot", "A", "APPROVED", 100_001, errs.ErrExceedsCap},
		{"already funded", "A", "FUNDED", 1, errs.ErrExceedsCap},
		{"not approved", "A", "PENDING", 1_000, errs.ErrInvalidState},
		{"own loan", "borrower", "APPROVED", 1_000, errs.ErrForbidden},
		{"insufficient", "poor", "APPROVED", 1_000, errs.ErrInsufficientFunds},
		{"missing loan", "A", "NOPE", 1_000, errs.ErrNotFound},
		{"no wallet", "ghost", "APPROVED", 1_000, errs.ErrNotFound},
		{"zero", "A", "APPROVED", 0, errs.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := u.Fund(ctx, lender(tc.caller), tc.loanID, tc.amount)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var n int64
	require.NoError(t, db.Model(&fundingDomain.Funding{}).Count(&n).Error)
	assert.Zero(t, n, "rejected fundings must not leave rows")
	assert.Equal(t, loan.StateApproved, loadLoan(t, db, "APPROVED").State)
}

func TestFund_ConcurrentNeverOvershoots(t *testing.T) {
	u, db := setup(t)
	ctx := context.Background()
	seedLoan(t, db, "L1", loan.StateApproved, 100_000)

	const n = 10
	for i := 0; i < n; i++ {
		dbtest.SeedWallet(t, db, fmt.Sprintf("lender-%d", i), 25_000)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, capped := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := u.Fund(ctx, lender(fmt.Sprintf("lender-%d", i)), "L1", 25_000)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, errs.ErrExceedsCap):
				capped++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, accepted)
	assert.Equal(t, n-4, capped)

	sum, err := sqlstore.NewFundingRepository(db).SumByLoanID(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, money.Amount(100_000), sum)
	assert.Equal(t, loan.StateFunded, loadLoan(t, db, "L1").State)
}

// slowSums holds the loan's funding total open for a while after reading it,
// so contributions that are not serialized by the loan lock read the same sum.
type slowSums struct{ fundingDomain.Repository }

func (s slowSums) SumByLoanID(ctx context.Context, loanID string) (money.Amount, error) {
	sum, err := s.Repository.SumByLoanID(ctx, loanID)
	time.Sleep(5 * time.Millisecond)
	return sum, err
}

// Runs without a database transaction, leaving the keylock as the only thing
// ordering contributions to one loan.
func TestFund_LoanLockSerializesContributions(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	locks := keylock.New()
	log := zap.NewNop().Sugar()

	repos := sqlstore.NewGormUoW(db).Repos()
	repos.Fundings = slowSums{repos.Fundings}
	tx := &repomock.UoW{Repos: &repos}
	sched := schedule.NewUsecase(repos.Repayments, tx, locks, schedule.Policy{Count: 4, Interval: 7 * 24 * time.Hour}, log)
	u := NewUsecase(repos.Wallets, tx, locks, sched, log)

	seedLoan(t, db, "L1", loan.StateApproved, 100_000)
	const n = 8
	for i := 0; i < n; i++ {
		dbtest.SeedWallet(t, db, fmt.Sprintf("lender-%d", i), 50_000)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, capped := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := u.Fund(ctx, lender(fmt.Sprintf("lender-%d", i)), "L1", 30_000)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, errs.ErrExceedsCap):
				capped++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
	assert.Equal(t, n-3, capped)

	sum, err := sqlstore.NewFundingRepository(db).SumByLoanID(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, money.Amount(90_000), sum)
	assert.Equal(t, loan.StateApproved, loadLoan(t, db, "L1").State)
}
