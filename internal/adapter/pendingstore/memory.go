// Package pendingstore holds OTP-gated transactions until they are confirmed,
// cancelled or expire.
package pendingstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"p2plend/internal/domain/errs"
	"p2plend/internal/domain/pending"
)

var _ pending.Store = (*Memory)(nil)

type memItem struct {
	t        pending.Transaction
	deadline time.Time
}

// Memory is a process-local store for single-instance deployments. Entries
// past their TTL are invisible and dropped on the next touch or sweep.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

func (m *Memory) Put(_ context.Context, t *pending.Transaction, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[t.ID] = memItem{t: *t, deadline: m.now().Add(ttl)}
	return nil
}

// live returns the entry if present and within TTL. Caller holds mu.
func (m *Memory) live(id string) (memItem, bool) {
	it, ok := m.items[id]
	if !ok {
		return memItem{}, false
	}
	if !m.now().Before(it.deadline) {
		delete(m.items, id)
		return memItem{}, false
	}
	return it, true
}

func (m *Memory) Get(_ context.Context, id string) (*pending.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.live(id)
	if !ok {
		return nil, fmt.Errorf("%w: pending transaction %s", errs.ErrNotFound, id)
	}
	t := it.t
	return &t, nil
}

func (m *Memory) IncrAttempts(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.live(id)
	if !ok {
		return 0, fmt.Errorf("%w: pending transaction %s", errs.ErrNotFound, id)
	}
	it.t.Attempts++
	m.items[id] = it
	return it.t.Attempts, nil
}

func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(id); !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *Memory) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, it := range m.items {
		if it.t.CreatedAt.Before(cutoff) || !now.Before(it.deadline) {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many entries are held, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
