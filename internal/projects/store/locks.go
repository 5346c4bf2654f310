package store

import (
	"context"
	"sync"
)

// lockTable hands out one exclusive slot per project ID so that all
// read-modify-write operations on the same project are serialized.
// Slots are channel-based so callers can give up when their context expires.
// Entries are never evicted; the table is bounded by the number of projects
// touched during the process lifetime.
type lockTable struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{m: make(map[string]chan struct{})}
}

func (t *lockTable) slot(id string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.m[id]
	if !ok {
		ch = make(chan struct{}, 1)
		t.m[id] = ch
	}
	return ch
}

// acquire blocks until the project slot is free or ctx is done.
// The returned release func must be called exactly once.
func (t *lockTable) acquire(ctx context.Context, id string) (func(), error) {
	ch := t.slot(id)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
