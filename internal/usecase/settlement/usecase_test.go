package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"p2plend/internal/adapter/repository/sqlstore"
	"p2plend/internal/domain/errs"
	fundingDomain "p2plend/internal/domain/funding"
	"p2plend/internal/domain/identity"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/repayment"
	"p2plend/internal/domain/uow"
	"p2plend/internal/logger"
	"p2plend/internal/testutil/dbtest"
	"p2plend/internal/usecase/schedule"
	"p2plend/pkg/id"
	"p2plend/pkg/keylock"
	"p2plend/pkg/money"
)

type fixture struct {
	db       *gorm.DB
	u        *Usecase
	logs     *observer.ObservedLogs
	borrower string
	lenders  map[string]string // owner -> wallet id
	schedule []repayment.Repayment
}

func readsFor(db *gorm.DB) Repos {
	return Repos{
		Loans:      sqlstore.NewLoanRepository(db),
		Wallets:    sqlstore.NewWalletRepository(db),
		Fundings:   sqlstore.NewFundingRepository(db),
		Repayments: sqlstore.NewRepaymentRepository(db),
	}
}

// newFixture builds a funded 100,000 loan at 12% over 12 months with the
// given contributions (lender, amount) and a borrower holding borrowerBalance.
func newFixture(t *testing.T, tx func(*gorm.DB) uow.UnitOfWork, borrowerBalance money.Amount, contributions ...fundingDomain.Funding) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core).Sugar()

	l := &loan.Loan{
		LoanID:         "L1",
		BorrowerID:     "borrower",
		Requested:      100_000,
		TermMonths:     12,
		Rate:           decimal.NewFromInt(12),
		State:          loan.StateFunded,
		StateUpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(l).Error)
	bw := dbtest.SeedWallet(t, db, "borrower", borrowerBalance)

	f := &fixture{db: db, logs: logs, borrower: bw.WalletID, lenders: map[string]string{}}
	base := time.Now().UTC()
	for i, c := range contributions {
		if _, ok := f.lenders[c.LenderID]; !ok {
			f.lenders[c.LenderID] = dbtest.SeedWallet(t, db, c.LenderID, 0).WalletID
		}
		c.FundingID = id.NewID32()
		c.LoanID = "L1"
		c.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, db.Create(&c).Error)
	}

	rs, err := schedule.Build(l, base, schedule.Policy{Count: 4, Interval: 7 * 24 * time.Hour})
	require.NoError(t, err)
	f.schedule = rs
	require.NoError(t, db.Create(&f.schedule).Error)

	f.u = NewUsecase(readsFor(db), tx(db), keylock.New(), RemainderLargest, log, logger.Alert(log, "settlement.fatal"))
	return f
}

func gormUoW(db *gorm.DB) uow.UnitOfWork { return sqlstore.NewGormUoW(db) }

func borrower() identity.Caller { return identity.Caller{ID: "borrower", Role: identity.RoleUser} }

func TestSettle_ProportionalPayout(t *testing.T) {
	f := newFixture(t, gormUoW, 30_000,
		fundingDomain.Funding{LenderID: "A", Amount: 60_000},
		fundingDomain.Funding{LenderID: "B", Amount: 40_000},
	)
	ctx := context.Background()

	res, err := f.u.Settle(ctx, borrower(), f.schedule[0].RepaymentID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(28_000), res.Due)
	assert.Equal(t, []Payout{{"A", 16_800}, {"B", 11_200}}, res.Payouts)

	assert.Equal(t, money.Amount(2_000), dbtest.BalanceOf(t, f.db, f.borrower))
	assert.Equal(t, money.Amount(16_800), dbtest.BalanceOf(t, f.db, f.lenders["A"]))
	assert.Equal(t, money.Amount(11_200), dbtest.BalanceOf(t, f.db, f.lenders["B"]))

	var rp repayment.Repayment
	require.NoError(t, f.db.Where("repayment_id = ?", res.RepaymentID).First(&rp).Error)
	assert.Equal(t, repayment.StatusPaid, rp.Status)
	assert.NotNil(t, rp.PaidAt)

	_, err = f.u.Settle(ctx, borrower(), res.RepaymentID)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestSettle_AggregatesRepeatLenders(t *testing.T) {
	f := newFixture(t, gormUoW, 28_000,
		fundingDomain.Funding{LenderID: "A", Amount: 30_000},
		fundingDomain.Funding{LenderID: "B", Amount: 40_000},
		fundingDomain.Funding{LenderID: "A", Amount: 30_000},
	)

	res, err := f.u.Settle(context.Background(), borrower(), f.schedule[0].RepaymentID)
	require.NoError(t, err)
	assert.Equal(t, []Payout{{"A", 16_800}, {"B", 11_200}}, res.Payouts)
	assert.Equal(t, money.Amount(0), dbtest.BalanceOf(t, f.db, f.borrower))
}

func TestSettle_Rejections(t *testing.T) {
	f := newFixture(t, gormUoW, 10_000,
		fundingDomain.Funding{LenderID: "A", Amount: 100_000},
	)
	ctx := context.Background()
	rid := f.schedule[0].RepaymentID

	_, err := f.u.Settle(ctx, identity.Caller{ID: "A"}, rid)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.u.Settle(ctx, borrower(), "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.u.Settle(ctx, borrower(), rid)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assert.NotErrorIs(t, err, errs.ErrSettlementFatal)

	assert.Equal(t, money.Amount(10_000), dbtest.BalanceOf(t, f.db, f.borrower))
	assert.Equal(t, money.Amount(0), dbtest.BalanceOf(t, f.db, f.lenders["A"]))
	var rp repayment.Repayment
	require.NoError(t, f.db.Where("repayment_id = ?", rid).First(&rp).Error)
	assert.Equal(t, repayment.StatusPending, rp.Status)
	assert.Zero(t, fatalEntries(f.logs).Len())
}

func fatalEntries(logs *observer.ObservedLogs) *observer.ObservedLogs {
	return logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "settlement.fatal" })
}

// brokenMarkPaid fails the last step of the settlement unit.
type brokenMarkPaid struct{ repayment.Repository }

func (brokenMarkPaid) MarkPaid(context.Context, *repayment.Repayment, time.Time) error {
	return errors.New("disk full")
}

type failingUoW struct{ *sqlstore.GormUoW }

func (f failingUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
	return f.GormUoW.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		r.Repayments = brokenMarkPaid{r.Repayments}
		return fn(r, l)
	})
}

func TestSettle_FatalAfterDebitRollsBackAndAlerts(t *testing.T) {
	f := newFixture(t, func(db *gorm.DB) uow.UnitOfWork { return failingUoW{sqlstore.NewGormUoW(db)} }, 28_000,
		fundingDomain.Funding{LenderID: "A", Amount: 60_000},
		fundingDomain.Funding{LenderID: "B", Amount: 40_000},
	)

	_, err := f.u.Settle(context.Background(), borrower(), f.schedule[0].RepaymentID)
	require.ErrorIs(t, err, errs.ErrSettlementFatal)

	assert.Equal(t, money.Amount(28_000), dbtest.BalanceOf(t, f.db, f.borrower))
	assert.Equal(t, money.Amount(0), dbtest.BalanceOf(t, f.db, f.lenders["A"]))
	assert.Equal(t, money.Amount(0), dbtest.BalanceOf(t, f.db, f.lenders["B"]))

	alerts := fatalEntries(f.logs).All()
	require.Len(t, alerts, 1)
	assert.Equal(t, zapcore.ErrorLevel, alerts[0].Level)
	assert.Equal(t, true, alerts[0].ContextMap()["alert"])
}
