package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/connectaword/internal/dependencies/clock"
)

// MockClock is a Clock that only moves when told to. Sessions read it from
// server goroutines while tests advance it, so access is locked.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock stopped at t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time
func (c *MockClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
