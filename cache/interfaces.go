// Package cache provides the in-memory page cache used by the resolver,
// with TTL-based freshness checks and no eviction.
package cache

import "time"

// Entry represents a cached page or library file with its fetch time
type Entry struct {
	Content   string    `json:"data"`
	FetchedAt time.Time `json:"lastUpdatedAt"`
}

// Fresh reports whether the entry is still usable at now for the given maxAge.
// An entry is fresh iff now - FetchedAt < maxAge.
func (e Entry) Fresh(maxAge time.Duration, now time.Time) bool {
	return now.Sub(e.FetchedAt) < maxAge
}

// Reader defines the interface for reading cache entries
type Reader interface {
	// Get returns a copy of the entry stored under key, if any.
	// Freshness is the caller's decision.
	Get(key string) (Entry, bool)
}

// Writer defines the interface for writing cache entries
type Writer interface {
	// Put stamps content with the current time, replaces any previous
	// entry for key and returns the stored entry.
	Put(key, content string) Entry
}

// Store combines both cache operations
type Store interface {
	Reader
	Writer
}
