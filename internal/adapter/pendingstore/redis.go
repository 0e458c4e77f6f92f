package pendingstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/pending"
	"p2plend/pkg/money"
)

var _ pending.Store = (*Redis)(nil)

const (
	keyPrefix = "pending:tx:"
	indexKey  = "pending:index"
)

// incrIfExists bumps attempts only on a live entry so an expired key is not
// resurrected as an empty hash.
var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("HINCRBY", KEYS[1], "attempts", 1)
end
return -1
`)

// Redis stores each pending transaction as a hash with a TTL, shared by every
// instance. A sorted set indexed by creation time drives Sweep.
type Redis struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

func NewRedis(rdb *redis.Client, log *zap.SugaredLogger) *Redis { return &Redis{rdb: rdb, log: log} }

func key(id string) string { return keyPrefix + id }

func (s *Redis) Put(ctx context.Context, t *pending.Transaction, ttl time.Duration) error {
	k := key(t.ID)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, map[string]any{
			"id":           t.ID,
			"requester_id": t.RequesterID,
			"kind":         string(t.Kind),
			"amount":       int64(t.Amount),
			"provider":     t.Provider,
			"destination":  t.Destination,
			"code":         t.Code,
			"attempts":     t.Attempts,
			"created_at":   t.CreatedAt.UnixNano(),
		})
		p.PExpire(ctx, k, ttl)
		p.ZAdd(ctx, indexKey, redis.Z{Score: float64(t.CreatedAt.Unix()), Member: t.ID})
		return nil
	})
	return err
}

func (s *Redis) Get(ctx context.Context, id string) (*pending.Transaction, error) {
	h, err := s.rdb.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("%w: pending transaction %s", errs.ErrNotFound, id)
	}
	return decode(h)
}

func decode(h map[string]string) (*pending.Transaction, error) {
	amount, err := strconv.ParseInt(h["amount"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	attempts, err := strconv.Atoi(h["attempts"])
	if err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	created, err := strconv.ParseInt(h["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	return &pending.Transaction{
		ID:          h["id"],
		RequesterID: h["requester_id"],
		Kind:        pending.Kind(h["kind"]),
		Amount:      money.Amount(amount),
		Provider:    h["provider"],
		Destination: h["destination"],
		Code:        h["code"],
		Attempts:    attempts,
		CreatedAt:   time.Unix(0, created).UTC(),
	}, nil
}

func (s *Redis) IncrAttempts(ctx context.Context, id string) (int, error) {
	n, err := incrIfExists.Run(ctx, s.rdb, []string{key(id)}).Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: pending transaction %s", errs.ErrNotFound, id)
	}
	return n, nil
}

// Delete relies on DEL being atomic: of two racing callers only one sees 1.
// The DEL alone decides the outcome. A failed index cleanup leaves a stale
// member that the next Sweep removes.
func (s *Redis) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return false, err
	}
	if err := s.rdb.ZRem(ctx, indexKey, id).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warnw("pending index cleanup failed", "transaction_id", id, "err", err)
	}
	return n == 1, nil
}

func (s *Redis) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		deleted, err := s.Delete(ctx, id)
		if err != nil {
			return n, err
		}
		if deleted {
			n++
		}
	}
	return n, nil
}
