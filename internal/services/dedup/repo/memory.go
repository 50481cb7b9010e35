package repo

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local claim store; expired keys are swept lazily
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
	claims  int
}

// NewMemory uses now for expiry checks; nil means time.Now
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{entries: map[string]time.Time{}, now: now}
}

// Claim implements Repo
func (m *Memory) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.entries[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.entries[key] = now.Add(ttl)

	m.claims++
	if m.claims%1024 == 0 {
		for k, exp := range m.entries {
			if !now.Before(exp) {
				delete(m.entries, k)
			}
		}
	}
	return true, nil
}

// Len returns the number of stored keys, live or not yet swept
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
