// Package keylock serializes work per string key inside one process.
package keylock

import (
	"sort"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per key and drops it once nobody holds or waits on it.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Locker { return &Locker{entries: make(map[string]*entry)} }

// Lock acquires every key in sorted order and returns a func releasing them all.
// Duplicate keys are collapsed. Always taking keys in the same order keeps two
// callers with overlapping key sets from deadlocking each other.
func (l *Locker) Lock(keys ...string) (unlock func()) {
	ks := dedupe(keys)
	held := make([]*entry, 0, len(ks))
	for _, k := range ks {
		e := l.acquire(k)
		e.mu.Lock()
		held = append(held, e)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				l.release(ks[i])
			}
		})
	}
}

func (l *Locker) acquire(k string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[k]
	if !ok {
		e = &entry{}
		l.entries[k] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(k string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[k]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, k)
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func LoanKey(loanID string) string     { return "loan:" + loanID }
func WalletKey(walletID string) string { return "wallet:" + walletID }
