package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) Sweep(context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestScheduler_RunsSweep(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(zap.New(core).Sugar())
	sw := &countingSweeper{}
	require.NoError(t, s.AddSweep("@every 1s", sw))

	s.Start()
	require.Eventually(t, func() bool { return sw.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	assert.NotZero(t, logs.FilterMessage("swept expired pending transactions").Len())
}

func TestScheduler_LogsSweepError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(zap.New(core).Sugar())
	sw := &countingSweeper{err: errors.New("redis down")}
	require.NoError(t, s.AddSweep("@every 1s", sw))

	s.Start()
	require.Eventually(t, func() bool { return sw.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	assert.NotZero(t, logs.FilterMessage("sweep pending transactions").Len())
}

func TestScheduler_BadSpec(t *testing.T) {
	s := New(zap.NewNop().Sugar())
	assert.Error(t, s.AddSweep("every minute", &countingSweeper{}))
}
