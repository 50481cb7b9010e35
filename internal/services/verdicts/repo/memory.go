package repo

import (
	"context"
	"slices"
	"sync"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
)

// Memory keeps the latest verdict per repository, evicting the oldest
// analysis once more than capacity repositories are held
type Memory struct {
	mu       sync.RWMutex
	capacity int
	byID     map[string]analyze.Verdict
}

// NewMemory holds up to capacity repositories; zero means 1000
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Memory{capacity: capacity, byID: map[string]analyze.Verdict{}}
}

var _ Storage = (*Memory)(nil)

// Upsert implements Storage
func (m *Memory) Upsert(_ context.Context, v analyze.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := v.Repository.Key()
	if prev, ok := m.byID[key]; ok && prev.AnalyzedAt.After(v.AnalyzedAt) {
		return nil
	}
	m.byID[key] = v

	for len(m.byID) > m.capacity {
		oldest := ""
		for k, x := range m.byID {
			if oldest == "" || x.AnalyzedAt.Before(m.byID[oldest].AnalyzedAt) {
				oldest = k
			}
		}
		delete(m.byID, oldest)
	}
	return nil
}

// Get implements Storage
func (m *Memory) Get(_ context.Context, ref repo.Ref) (analyze.Verdict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byID[ref.Key()]
	if !ok {
		return analyze.Verdict{}, perr.NotFoundf("no verdict for %s", ref)
	}
	return v, nil
}

// List implements Storage, newest first
func (m *Memory) List(_ context.Context, f domain.Filter) ([]analyze.Verdict, error) {
	m.mu.RLock()
	out := make([]analyze.Verdict, 0, len(m.byID))
	for _, v := range m.byID {
		if f.SuspiciousOnly && !v.IsSuspicious {
			continue
		}
		out = append(out, v)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b analyze.Verdict) int { return b.AnalyzedAt.Compare(a.AnalyzedAt) })
	if n := clampLimit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
