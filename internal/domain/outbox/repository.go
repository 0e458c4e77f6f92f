package outbox

import "context"

type Repository interface {
	Create(ctx context.Context, e *Event) error
	// Poll returns up to limit unprocessed events, oldest first.
	Poll(ctx context.Context, limit int) ([]Event, error)
	MarkProcessed(ctx context.Context, id uint64) error
}
