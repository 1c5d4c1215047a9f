// ============================================================================
// Timeslice Worker - Time-sliced Sorting Unit
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Function: Receives work units, sorts for at most one time slice, replies
//
// State machine:
//
//   Idle ──(WorkUnit)──> Sorting ──(reply sent)──> Idle
//    │
//    └──(Stop / link closed)──> Terminated
//
// Per work unit:
//   1. Record receive time; deadline = receive time + TimeLimit
//   2. Buffer already sorted -> Done, algorithm not invoked
//   3. Run the algorithm over the unit's Range under the deadline
//   4. Completed and verified -> Done, otherwise Continue with the same Range
//   5. Algorithm panic -> Error reply, worker keeps serving
//
// Each worker runs in its own goroutine and owns the buffer it is working on
// until the reply has been handed to its Port.
//
// ============================================================================

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ChuLiYu/timeslice-sort/internal/clock"
	"github.com/ChuLiYu/timeslice-sort/internal/logging"
	"github.com/ChuLiYu/timeslice-sort/internal/sorting"
	"github.com/ChuLiYu/timeslice-sort/internal/transport"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// logPrefix is how many leading elements are shown in progress logs.
const logPrefix = 10

// Worker is one of the two cooperating sorters.
type Worker struct {
	id        int
	algorithm types.Algorithm
	timeLimit time.Duration
	clock     clock.Clock
	port      transport.Port
	logger    *slog.Logger
	observer  Observer

	mu    sync.Mutex
	stats types.WorkerStats
}

// New creates a Worker serving port.
func New(cfg Config, port transport.Port, logger *slog.Logger, opts ...Option) (*Worker, error) {
	alg, err := types.ParseAlgorithm(string(cfg.Algorithm))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorker, err)
	}
	if cfg.TimeLimit < 0 {
		return nil, fmt.Errorf("%w: negative time limit %s", ErrInvalidWorker, cfg.TimeLimit)
	}
	if port == nil {
		return nil, fmt.Errorf("%w: nil port", ErrInvalidWorker)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		id:        cfg.ID,
		algorithm: alg,
		timeLimit: cfg.TimeLimit,
		clock:     cfg.Clock,
		port:      port,
		logger:    logger.With(logging.SourceKey, fmt.Sprintf("Worker %d", cfg.ID)),
		stats:     types.WorkerStats{ID: cfg.ID, State: types.StateIdle},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ID returns the worker's identity.
func (w *Worker) ID() int { return w.id }

// Stats returns a snapshot of the worker's counters.
func (w *Worker) Stats() types.WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run serves requests until a stop signal arrives, the link is closed, or
// ctx is cancelled. The port is closed on return so the coordinator can
// observe termination.
func (w *Worker) Run(ctx context.Context) error {
	defer func() {
		w.setState(types.StateTerminated)
		_ = w.port.Close()
	}()

	for {
		req, err := w.port.Receive(ctx)
		if errors.Is(err, io.EOF) {
			w.logger.Info("Link closed, terminating")
			return nil
		}
		if err != nil {
			return fmt.Errorf("worker %d: receive: %w", w.id, err)
		}

		if req.Kind == types.RequestStop {
			w.logger.Info("Stop signal received. Terminating.")
			return nil
		}

		res := w.Handle(req.Unit)
		if err := w.port.Reply(ctx, res); err != nil {
			return fmt.Errorf("worker %d: reply: %w", w.id, err)
		}
	}
}

// Handle runs one time slice over unit and builds the reply. It never
// panics; an algorithm fault becomes an Error result.
func (w *Worker) Handle(unit types.WorkUnit) types.WorkResult {
	received := w.clock.Now()
	iteration := w.begin()
	w.logger.Info(fmt.Sprintf("Iteration %d", iteration), "range", unit.Range.String(), "size", len(unit.Buffer))

	if sorting.IsSorted([]int(unit.Buffer)) {
		elapsed := received.Sub(unit.IssuedAt)
		w.logger.Info("Vector already sorted, no processing required")
		return w.finish(types.Done(w.id, unit.Buffer, elapsed))
	}

	completed, err := w.slice(unit, received)
	elapsed := w.clock.Now().Sub(received)
	if err != nil {
		w.logger.Error("Error during sort", "error", err)
		return w.finish(types.Failure(w.id, err.Error()))
	}

	if completed && sorting.IsSorted([]int(unit.Buffer)) {
		w.logger.Info(fmt.Sprintf("Sort completed in %.2fs", elapsed.Seconds()))
		w.logger.Info(fmt.Sprintf("First sorted elements: %v", unit.Buffer.Prefix(logPrefix)))
		return w.finish(types.Done(w.id, unit.Buffer, elapsed))
	}

	w.logger.Info(fmt.Sprintf("Time limit exceeded (%s)", w.timeLimit))
	w.logger.Info(fmt.Sprintf("Current progress: %v", unit.Buffer.Prefix(logPrefix)))
	return w.finish(types.Continue(w.id, unit.Buffer, unit.Range, elapsed))
}

// slice invokes the algorithm once under a deadline measured from start.
func (w *Worker) slice(unit types.WorkUnit, start time.Time) (completed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			completed = false
			err = fmt.Errorf("%w: %v", ErrAlgorithmFault, r)
		}
	}()

	w.mu.Lock()
	w.stats.Invocations++
	w.mu.Unlock()

	deadline := sorting.NewDeadline(w.clock, start.Add(w.timeLimit))
	return sorting.Sort(w.algorithm, []int(unit.Buffer), unit.Range, deadline)
}

func (w *Worker) begin() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Iterations++
	w.stats.State = types.StateSorting
	return w.stats.Iterations
}

func (w *Worker) finish(res types.WorkResult) types.WorkResult {
	w.mu.Lock()
	w.stats.State = types.StateIdle
	w.stats.LastOutcome = res.Status
	w.mu.Unlock()

	if w.observer != nil {
		w.observer.ObserveSlice(w.id, res.Status, res.Elapsed)
	}
	return res
}

func (w *Worker) setState(s types.WorkerState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.State = s
}
