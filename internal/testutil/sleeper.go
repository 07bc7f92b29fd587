package testutil

import (
	"context"
	"sync"
	"time"
)

// Sleeper records requested sleeps without waiting. Its Sleep method has
// the session.SleepFunc signature.
type Sleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

// NewSleeper creates an empty Sleeper.
func NewSleeper() *Sleeper {
	return &Sleeper{}
}

// Sleep records d and returns immediately, or returns ctx.Err() if the
// context is already done.
func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return nil
}

// Calls returns the recorded durations in order.
func (s *Sleeper) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

// Total returns the sum of recorded durations.
func (s *Sleeper) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, d := range s.calls {
		total += d
	}
	return total
}

// FixedTime returns a now func that always reports t.
func FixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
