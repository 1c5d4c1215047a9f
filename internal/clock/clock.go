// Package clock abstracts wall-clock reads so that slice deadlines can be
// driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real is the system clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// Step is a deterministic clock that advances by a fixed step on every read.
// Reading it N times moves it forward by N*step, which turns a wall-clock
// budget into a checkpoint budget: with budget B a slice sees about B/step
// clock reads before its deadline passes.
type Step struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	reads int
}

// NewStep creates a Step clock starting at start.
func NewStep(start time.Time, step time.Duration) *Step {
	return &Step{now: start, step: step}
}

// Now returns the current time and then advances the clock by one step.
func (s *Step) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now
	s.now = s.now.Add(s.step)
	s.reads++
	return t
}

// Advance moves the clock forward by d without counting a read.
func (s *Step) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// Reads returns how many times Now has been called.
func (s *Step) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
