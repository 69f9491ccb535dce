// Package store keeps summaries of completed runs in memory. Only derived
// stats are retained; uploaded rows never enter the store.
package store

import (
	"sync"

	"github.com/manojkp08/adpulse/internal/models"
)

// RunStore is a capped, mutex-guarded history of run summaries.
type RunStore struct {
	mu   sync.RWMutex
	runs []models.RunSummary // oldest first
	max  int
}

// NewRunStore caps history at max entries; max <= 0 means 100.
func NewRunStore(max int) *RunStore {
	if max <= 0 {
		max = 100
	}
	return &RunStore{max: max}
}

// Save appends a summary, evicting the oldest entries beyond the cap.
func (s *RunStore) Save(run models.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	if len(s.runs) > s.max {
		s.runs = s.runs[len(s.runs)-s.max:]
	}
}

// Get returns the summary with the given id.
func (s *RunStore) Get(id string) (models.RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].ID == id {
			return s.runs[i], true
		}
	}
	return models.RunSummary{}, false
}

// Recent returns up to n summaries, newest first.
func (s *RunStore) Recent(n int) []models.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.runs) {
		n = len(s.runs)
	}
	out := make([]models.RunSummary, 0, n)
	for i := len(s.runs) - 1; i >= len(s.runs)-n; i-- {
		out = append(out, s.runs[i])
	}
	return out
}

// Query returns all summaries matching f, oldest first. A nil filter
// matches everything.
func (s *RunStore) Query(f func(models.RunSummary) bool) []models.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RunSummary
	for _, r := range s.runs {
		if f == nil || f(r) {
			out = append(out, r)
		}
	}
	return out
}

// Len reports how many summaries are currently held.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
