package cache

import (
	"sync"
	"time"
)

// Memory is a process-lifetime Store backed by a map.
// Readers share the lock; a writer holds it only for a single insert, so no
// caller ever sees a half-written entry and no lock is held across a fetch.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// Option configures a Memory cache
type Option func(*Memory)

// WithClock replaces the clock used to stamp new entries
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty in-memory cache
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Get implements Reader
func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	return e, ok
}

// Put implements Writer
func (m *Memory) Put(key, content string) Entry {
	e := Entry{Content: content, FetchedAt: m.now()}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()

	return e
}

// Len returns the number of cached keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Store = (*Memory)(nil)
