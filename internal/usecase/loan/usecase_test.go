package loan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/identity"
	domain "p2plend/internal/domain/loan"
	"p2plend/internal/testutil/repomock"
)

const borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

var borrower = identity.Caller{ID: borrowerID, Role: identity.RoleUser}

func newUC(r *repomock.Loans) *Usecase {
	return NewUsecase(r, 100_000, zap.NewNop().Sugar())
}

func TestCreate_Success_NoPendingLoan(t *testing.T) {
	var created *domain.Loan
	uc := newUC(&repomock.Loans{
		// no pending loan
		GetPendingLoanByBorrowerIDFn: func(ctx context.Context, borrowerID string) (*domain.Loan, error) {
			return nil, errs.ErrNotFound
		},
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			l.CreatedAt = time.Now().UTC()
			created = l
			return nil
		},
	})

	in := CreateLoanInput{Requested: 5_000_000, TermMonths: 12, Rate: decimal.NewFromInt(12)}
	dto, err := uc.Create(context.Background(), borrower, in)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if len(dto.LoanID) != 32 {
		t.Fatalf("LoanID length: %d", len(dto.LoanID))
	}
	if dto.State != string(domain.StatePending) {
		t.Fatalf("state=%s", dto.State)
	}
	if created == nil || created.BorrowerID != borrowerID || created.Requested != 5_000_000 {
		t.Fatalf("stored loan mismatch: %+v", created)
	}
}

func TestCreate_Rejects_WhenPendingLoanExists(t *testing.T) {
	const existingLoanID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	uc := newUC(&repomock.Loans{
		GetPendingLoanByBorrowerIDFn: func(ctx context.Context, id string) (*domain.Loan, error) {
			if id != borrowerID {
				return nil, fmt.Errorf("unexpected borrower id: %s", id)
			}
			return &domain.Loan{LoanID: existingLoanID, BorrowerID: borrowerID, State: domain.StatePending}, nil
		},
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			t.Fatalf("Create must not be called when pending loan exists")
			return nil
		},
	})

	_, err := uc.Create(context.Background(), borrower, CreateLoanInput{
		Requested: 7_000_000, TermMonths: 6, Rate: decimal.NewFromInt(10),
	})
	if !errors.Is(err, errs.ErrInvalidState) {
		t.Fatalf("want ErrInvalidState, got %v", err)
	}
}

func TestCreate_SurfacesLookupError(t *testing.T) {
	boom := errors.New("db down")
	uc := newUC(&repomock.Loans{
		GetPendingLoanByBorrowerIDFn: func(context.Context, string) (*domain.Loan, error) { return nil, boom },
	})
	_, err := uc.Create(context.Background(), borrower, CreateLoanInput{
		Requested: 100_000, TermMonths: 1, Rate: decimal.Zero,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want db error, got %v", err)
	}
}

func TestGet_Success(t *testing.T) {
	const LID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	now := time.Now().UTC()
	uc := newUC(&repomock.Loans{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return &domain.Loan{
				LoanID: LID, BorrowerID: borrowerID,
				Requested: 1_000_000, TermMonths: 12, Rate: decimal.NewFromInt(12),
				State: domain.StatePending, CreatedAt: now,
			}, nil
		},
	})
	dto, err := uc.Get(context.Background(), LID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if dto.LoanID != LID || dto.Requested != 1_000_000 {
		t.Fatalf("got %+v", dto)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	uc := newUC(&repomock.Loans{})
	cases := []struct {
		name   string
		caller identity.Caller
		in     CreateLoanInput
	}{
		{"anonymous", identity.Caller{}, CreateLoanInput{Requested: 100_000, TermMonths: 1}},
		{"below minimum", borrower, CreateLoanInput{Requested: 99_999, TermMonths: 1}},
		{"zero term", borrower, CreateLoanInput{Requested: 100_000, TermMonths: 0}},
		{"negative rate", borrower, CreateLoanInput{Requested: 100_000, TermMonths: 1, Rate: decimal.NewFromInt(-1)}},
		{"total owed overflows", borrower, CreateLoanInput{Requested: 9_000_000_000_000_000_000, TermMonths: 12, Rate: decimal.NewFromInt(12)}},
		{"interest overflows", borrower, CreateLoanInput{Requested: 9_000_000_000_000_000_000, TermMonths: 240, Rate: decimal.NewFromInt(100)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), tc.caller, tc.in)
			if !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}
