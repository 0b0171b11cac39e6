package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gymsched/internal/store"
)

// lockTable hands out one slot per resource id. Conflicts are only possible
// within a resource, so mutations serialize per resource rather than behind a
// single store-wide lock.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (t *lockTable) slot(resourceID string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[resourceID]
	if !ok {
		s = make(chan struct{}, 1)
		t.slots[resourceID] = s
	}
	return s
}

// acquire takes the slots for every given resource in sorted order, sharing
// one deadline across the whole set. On timeout it releases whatever it
// already holds and reports ErrBusy.
func (t *lockTable) acquire(ctx context.Context, resourceIDs []string, timeout time.Duration) (func(), error) {
	ids := make([]string, 0, len(resourceIDs))
	seen := make(map[string]struct{}, len(resourceIDs))
	for _, id := range resourceIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	held := make([]chan struct{}, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, id := range ids {
		s := t.slot(id)
		select {
		case s <- struct{}{}:
			held = append(held, s)
		case <-timer.C:
			release()
			return nil, store.ErrBusy
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}
