package sqlstore

import (
	"context"
	"time"

	outboxDomain "p2plend/internal/domain/outbox"

	"gorm.io/gorm"
)

type OutboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) *OutboxRepository { return &OutboxRepository{db: db} }

// Create writes event.
func (r *OutboxRepository) Create(ctx context.Context, e *outboxDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Poll pulls unprocessed events.
func (r *OutboxRepository) Poll(ctx context.Context, limit int) ([]outboxDomain.Event, error) {
	var evts []outboxDomain.Event
	err := r.db.WithContext(ctx).Where("processed = ?", false).Order("created_at, id").Limit(limit).Find(&evts).Error
	return evts, err
}

// MarkProcessed sets processed flag.
func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uint64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&outboxDomain.Event{}).Where("id = ?", id).
		Updates(map[string]any{"processed": true, "processed_at": &now}).Error
}
