// Package pending models OTP-gated money movements awaiting confirmation.
// These live only in an ephemeral TTL store, never in the SQL database.
package pending

import (
	"context"
	"time"

	"p2plend/pkg/money"
)

type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

func (k Kind) Valid() bool { return k == KindDeposit || k == KindWithdraw }

type Transaction struct {
	ID          string       `json:"id"`
	RequesterID string       `json:"requester_id"`
	Kind        Kind         `json:"kind"`
	Amount      money.Amount `json:"amount"`
	Provider    string       `json:"provider"`
	Destination string       `json:"destination"`
	Code        string       `json:"code"`
	Attempts    int          `json:"attempts"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ExpiresAt is CreatedAt plus the window the entry stays usable.
func (t *Transaction) ExpiresAt(window time.Duration) time.Time {
	return t.CreatedAt.Add(window)
}

// Store is a concurrency-safe key-value store with TTL support.
//
// Delete is the arbiter for single use: of any number of concurrent callers
// only one observes deleted == true.
type Store interface {
	Put(ctx context.Context, t *Transaction, ttl time.Duration) error
	// Get returns errs.ErrNotFound when the entry is absent or its TTL elapsed.
	Get(ctx context.Context, id string) (*Transaction, error)
	// IncrAttempts bumps the failed-attempt counter and returns the new value.
	IncrAttempts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) (deleted bool, err error)
	// Sweep drops entries created before cutoff and reports how many went.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}
