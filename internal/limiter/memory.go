package limiter

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process Limiter for single-instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	policy  Policy
	now     func() time.Time
	entries map[string]*entry
	swept   time.Time
}

// NewMemory constructs an in-memory limiter. A nil clock uses time.Now.
func NewMemory(p Policy, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{policy: p, now: now, entries: map[string]*entry{}}
}

func memKey(username string, client []byte) string { return username + "\x00" + string(client) }

// Allow implements Limiter.
func (m *Memory) Allow(_ context.Context, username string, client []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[memKey(username, client)]
	if !ok {
		return true, 0, nil
	}
	if now := m.now(); e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success implements Limiter.
func (m *Memory) Success(_ context.Context, username string, client []byte) error {
	m.mu.Lock()
	delete(m.entries, memKey(username, client))
	m.mu.Unlock()
	return nil
}

// Failure implements Limiter.
func (m *Memory) Failure(_ context.Context, username string, client []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	k := memKey(username, client)
	e, ok := m.entries[k]
	if !ok || now.Sub(e.updatedAt) > m.policy.Window {
		e = &entry{}
		m.entries[k] = e
	}
	e.fails++
	e.updatedAt = now
	if e.fails >= m.policy.MaxFails {
		e.blockedUntil = now.Add(m.policy.BlockFor)
		return true, m.policy.BlockFor, nil
	}
	return false, 0, nil
}

// sweep drops entries that are outside the window and no longer blocked.
// It runs at most once per window.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.swept) < m.policy.Window {
		return
	}
	m.swept = now
	for k, e := range m.entries {
		if now.Sub(e.updatedAt) > m.policy.Window && !e.blockedUntil.After(now) {
			delete(m.entries, k)
		}
	}
}
