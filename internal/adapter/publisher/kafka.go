// Package publisher relays outbox events to Kafka.
package publisher

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"p2plend/internal/domain/outbox"
)

// MessageWriter is the part of *kafka.Writer the relay uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

type Relay struct {
	events outbox.Repository
	w      MessageWriter
	batch  int
	log    *zap.SugaredLogger
}

func NewRelay(events outbox.Repository, w MessageWriter, batch int, log *zap.SugaredLogger) *Relay {
	if batch <= 0 {
		batch = 100
	}
	return &Relay{events: events, w: w, batch: batch, log: log}
}

// message keys by aggregate id so one loan's events stay ordered within a partition.
func message(e outbox.Event) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.Aggregate + ":" + e.AggregateID),
		Value: []byte(e.Payload),
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "event_id", Value: []byte(strconv.FormatUint(e.ID, 10))},
		},
	}
}

// RunOnce publishes one batch in order and stops at the first failure so a
// later event is never marked ahead of an earlier one.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.events.Poll(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, e := range events {
		if err := r.w.WriteMessages(ctx, message(e)); err != nil {
			r.log.Errorw("publish event", "id", e.ID, "type", e.EventType, "err", err)
			return sent, err
		}
		if err := r.events.MarkProcessed(ctx, e.ID); err != nil {
			r.log.Errorw("mark processed", "id", e.ID, "err", err)
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Run polls every interval until ctx is done.
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	r.log.Infow("outbox relay started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			n, err := r.RunOnce(ctx)
			if err != nil {
				continue
			}
			if n > 0 {
				r.log.Infow("events published", "count", n)
			}
		}
	}
}
