package sorting

import (
	"time"

	"github.com/ChuLiYu/timeslice-sort/internal/clock"
)

// Deadline is the time budget of a single slice.
type Deadline struct {
	clock      clock.Clock
	at         time.Time
	progressed bool
	steps      int
}

// NewDeadline returns a deadline that expires once c reports a time at or
// after at.
func NewDeadline(c clock.Clock, at time.Time) *Deadline {
	return &Deadline{clock: c, at: at}
}

// Unbounded returns a deadline that never expires.
func Unbounded() *Deadline {
	return &Deadline{}
}

// Expired reports whether the slice must yield. It is false until the slice
// has completed at least one atomic step.
func (d *Deadline) Expired() bool {
	if d.clock == nil || !d.progressed {
		return false
	}
	return !d.clock.Now().Before(d.at)
}

// Steps returns the number of atomic steps completed under this deadline.
func (d *Deadline) Steps() int {
	return d.steps
}

func (d *Deadline) step() {
	d.progressed = true
	d.steps++
}
