package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"p2plend/internal/adapter/repository/sqlstore"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/testutil/dbtest"
)

type fakeWriter struct {
	msgs   []kafka.Message
	failAt int // 1-based message index that fails, 0 = never
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if f.failAt > 0 && len(f.msgs)+1 == f.failAt {
			return errors.New("broker unavailable")
		}
		f.msgs = append(f.msgs, m)
	}
	return nil
}

func seed(t *testing.T, repo *sqlstore.OutboxRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		e, err := outbox.New("loan", "L1", outbox.TypeLoanFunded, map[string]int{"seq": i})
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), e))
	}
}

func TestRelay_PublishesAndMarks(t *testing.T) {
	db := dbtest.Open(t)
	repo := sqlstore.NewOutboxRepository(db)
	seed(t, repo, 3)

	w := &fakeWriter{}
	r := NewRelay(repo, w, 10, zap.NewNop().Sugar())

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "loan:L1", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"seq":0}`, string(w.msgs[0].Value))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, outbox.TypeLoanFunded, string(w.msgs[0].Headers[0].Value))

	left, err := repo.Poll(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, left)

	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelay_StopsAtFirstFailure(t *testing.T) {
	db := dbtest.Open(t)
	repo := sqlstore.NewOutboxRepository(db)
	seed(t, repo, 3)

	w := &fakeWriter{failAt: 2}
	r := NewRelay(repo, w, 10, zap.NewNop().Sugar())

	n, err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)

	left, err := repo.Poll(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, left, 2, "failed and later events stay pending")

	w.failAt = 0
	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	db := dbtest.Open(t)
	repo := sqlstore.NewOutboxRepository(db)
	seed(t, repo, 1)

	w := &fakeWriter{}
	r := NewRelay(repo, w, 0, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx, 10*time.Millisecond); close(done) }()

	require.Eventually(t, func() bool {
		left, err := repo.Poll(context.Background(), 10)
		return err == nil && len(left) == 0
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
