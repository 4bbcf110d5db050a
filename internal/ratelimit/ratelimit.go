// Package ratelimit implements a sliding-window admission check.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute
)

// SlidingWindow admits at most limit events in any window-long interval
// ending at the time of the check.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
}

// New returns a limiter. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &SlidingWindow{limit: limit, window: window}
}

// Admit prunes timestamps older than the window, then records now and
// reports true if fewer than limit events remain. A rejected event is not
// recorded.
func (s *SlidingWindow) Admit(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	kept := s.stamps[:0]
	for _, t := range s.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.stamps = kept

	if len(s.stamps) >= s.limit {
		return false
	}
	s.stamps = append(s.stamps, now)
	return true
}

// Count returns the number of events inside the window ending at now
func (s *SlidingWindow) Count(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	n := 0
	for _, t := range s.stamps {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// Limit returns the configured maximum
func (s *SlidingWindow) Limit() int {
	return s.limit
}
