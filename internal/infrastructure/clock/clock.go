package clock

import (
	"sync"
	"time"
)

// UTC is the wall clock in UTC. It never goes backwards: a reading earlier
// than the previous one is clamped to the previous one, which keeps expiry
// comparisons stable across NTP adjustments.
type UTC struct {
	mu   sync.Mutex
	last time.Time
}

func New() *UTC { return &UTC{} }

func (c *UTC) Now() time.Time {
	now := time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Before(c.last) {
		now = c.last
	}
	c.last = now
	return now
}

// Manual is a clock moved by hand, for tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual { return &Manual{now: start.UTC()} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}
