// Package memory provides an in-memory storage.RunStore for one-shot
// invocations and lightweight deployments. Runs are lost when the
// process restarts. Optional eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/rhuss/probelauf/pkg/storage"
)

// Store is an in-memory RunStore with optional eviction of the oldest
// entries.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]*entry
	order   *list.List // front = most recently saved, back = oldest
	maxSize int        // 0 = unlimited
}

type entry struct {
	run  *storage.Run
	elem *list.Element
}

// Ensure Store implements storage.RunStore at compile time.
var _ storage.RunStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the oldest run is evicted when the
// limit is reached.
func New(maxSize int) *Store {
	return &Store{
		runs:    make(map[string]*entry),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// SaveRun persists a run in memory.
func (s *Store) SaveRun(_ context.Context, run *storage.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.runs) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.order.PushFront(run.ID)
	s.runs[run.ID] = &entry{run: run, elem: elem}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(_ context.Context, id string) (*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.runs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e.run, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *Store) ListRuns(_ context.Context, limit int) ([]*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*storage.Run, 0, len(s.runs))
	for _, e := range s.runs {
		runs = append(runs, e.run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the oldest run. Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.order.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.order.Remove(back)
	delete(s.runs, id)
}
