package worker

// ============================================================================
// Worker / Pool Test File
// Purpose: Verify slice outcomes, stop handling, and pool lifecycle
// ============================================================================

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/timeslice-sort/internal/clock"
	"github.com/ChuLiYu/timeslice-sort/internal/logging"
	"github.com/ChuLiYu/timeslice-sort/internal/transport"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestWorker(t *testing.T, cfg Config, opts ...Option) (*Worker, *transport.PipeLink) {
	t.Helper()
	link, port := transport.NewPipe(1)
	w, err := New(cfg, port, logging.Discard(), opts...)
	require.NoError(t, err)
	return w, link
}

func sorted(buf types.Buffer) types.Buffer {
	out := buf.Clone()
	sort.Ints(out)
	return out
}

// recordingObserver collects slice outcomes.
type recordingObserver struct {
	mu       sync.Mutex
	outcomes []types.Status
}

func (r *recordingObserver) ObserveSlice(_ int, outcome types.Status, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

// ============================================================================
// Construction
// ============================================================================

// TestNewRejectsBadConfig verifies invalid configs are refused up front.
func TestNewRejectsBadConfig(t *testing.T) {
	_, port := transport.NewPipe(1)

	_, err := New(Config{Algorithm: "bogosort", TimeLimit: time.Second}, port, nil)
	assert.ErrorIs(t, err, ErrInvalidWorker)

	_, err = New(Config{Algorithm: types.Heapsort, TimeLimit: -time.Second}, port, nil)
	assert.ErrorIs(t, err, ErrInvalidWorker)

	_, err = New(Config{Algorithm: types.Heapsort}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidWorker)
}

// ============================================================================
// Slice outcomes
// ============================================================================

// TestHandleAlreadySorted verifies a sorted buffer is answered without
// invoking the algorithm and elapsed is measured from the issue time.
func TestHandleAlreadySorted(t *testing.T) {
	clk := clock.NewStep(epoch, time.Millisecond)
	w, _ := newTestWorker(t, Config{ID: 1, Algorithm: types.Quicksort, TimeLimit: time.Second, Clock: clk})

	unit := types.WorkUnit{
		Buffer:   types.Buffer{1, 2, 2, 3},
		Range:    types.FullRange(4),
		IssuedAt: epoch.Add(-2 * time.Second),
	}
	res := w.Handle(unit)

	assert.Equal(t, types.StatusDone, res.Status)
	assert.Equal(t, 1, res.WorkerID)
	assert.Equal(t, types.Buffer{1, 2, 2, 3}, res.Buffer)
	assert.Equal(t, 2*time.Second, res.Elapsed)

	stats := w.Stats()
	assert.Equal(t, 1, stats.Iterations)
	assert.Equal(t, 0, stats.Invocations)
	assert.Equal(t, types.StateIdle, stats.State)
}

// TestHandleCompletesWithinLimit verifies the example run finishes in one
// slice under a generous limit.
func TestHandleCompletesWithinLimit(t *testing.T) {
	for _, alg := range types.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			w, _ := newTestWorker(t, Config{Algorithm: alg, TimeLimit: time.Hour})
			res := w.Handle(types.WorkUnit{Buffer: types.Buffer{5, 3, 4, 1, 2}, Range: types.FullRange(5), IssuedAt: time.Now()})

			assert.Equal(t, types.StatusDone, res.Status)
			assert.Equal(t, types.Buffer{1, 2, 3, 4, 5}, res.Buffer)
			assert.Equal(t, 1, w.Stats().Invocations)
		})
	}
}

// TestHandleZeroLimitContinues verifies a zero budget yields after one step
// and echoes the range unchanged.
func TestHandleZeroLimitContinues(t *testing.T) {
	for _, alg := range types.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			clk := clock.NewStep(epoch, time.Millisecond)
			w, _ := newTestWorker(t, Config{Algorithm: alg, TimeLimit: 0, Clock: clk})

			buf := types.Buffer{5, 3, 4, 1, 2}
			res := w.Handle(types.WorkUnit{Buffer: buf, Range: types.Range{Low: 0, High: 4}, IssuedAt: epoch})

			assert.Equal(t, types.StatusContinue, res.Status)
			assert.Equal(t, types.Range{Low: 0, High: 4}, res.Range)
			assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, []int(res.Buffer))
			assert.Equal(t, types.StatusContinue, w.Stats().LastOutcome)
		})
	}
}

// TestHandleRepeatedSlicesFinish verifies feeding Continue results back in
// eventually yields Done with the sorted permutation.
func TestHandleRepeatedSlicesFinish(t *testing.T) {
	input := types.Buffer{9, 4, 7, 1, 8, 2, 2, 6, 0, 5, 3}
	for _, alg := range types.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			clk := clock.NewStep(epoch, time.Millisecond)
			w, _ := newTestWorker(t, Config{Algorithm: alg, TimeLimit: 0, Clock: clk})

			unit := types.WorkUnit{Buffer: input.Clone(), Range: types.FullRange(len(input)), IssuedAt: epoch}
			var res types.WorkResult
			for i := 0; i < 100; i++ {
				res = w.Handle(unit)
				if res.Status != types.StatusContinue {
					break
				}
				unit.Buffer = res.Buffer
			}
			require.Equal(t, types.StatusDone, res.Status)
			assert.Equal(t, sorted(input), res.Buffer)
		})
	}
}

// TestHandleAlgorithmFault verifies a panicking slice becomes an Error
// reply instead of crashing the worker.
func TestHandleAlgorithmFault(t *testing.T) {
	w, _ := newTestWorker(t, Config{Algorithm: types.Mergesort, TimeLimit: time.Second})

	res := w.Handle(types.WorkUnit{Buffer: types.Buffer{3, 1, 2}, Range: types.Range{Low: 0, High: 10}, IssuedAt: time.Now()})

	assert.Equal(t, types.StatusError, res.Status)
	assert.Contains(t, res.Message, ErrAlgorithmFault.Error())
	assert.Equal(t, types.StateIdle, w.Stats().State)
}

// TestObserverSeesEverySlice verifies the observer hook fires per reply.
func TestObserverSeesEverySlice(t *testing.T) {
	obs := &recordingObserver{}
	w, _ := newTestWorker(t, Config{Algorithm: types.Heapsort, TimeLimit: time.Hour}, WithObserver(obs))

	w.Handle(types.WorkUnit{Buffer: types.Buffer{1, 2}, Range: types.FullRange(2)})
	w.Handle(types.WorkUnit{Buffer: types.Buffer{2, 1}, Range: types.FullRange(2)})

	assert.Equal(t, []types.Status{types.StatusDone, types.StatusDone}, obs.outcomes)
}

// ============================================================================
// Run loop
// ============================================================================

// TestRunServesUntilStop verifies the Idle -> Sorting -> Idle -> Terminated
// cycle over a pipe.
func TestRunServesUntilStop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, link := newTestWorker(t, Config{ID: 0, Algorithm: types.Quicksort, TimeLimit: time.Hour})
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	unit := types.WorkUnit{Buffer: types.Buffer{3, 1, 2}, Range: types.FullRange(3), IssuedAt: time.Now()}
	require.NoError(t, link.Send(ctx, types.Work(unit)))

	res, ok, err := link.Poll(ctx, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Buffer{1, 2, 3}, res.Buffer)

	require.NoError(t, link.Send(ctx, types.Stop()))
	require.NoError(t, link.Wait(ctx))
	require.NoError(t, <-errCh)

	assert.Equal(t, types.StateTerminated, w.Stats().State)
}

// TestRunExitsWhenLinkCloses verifies a closed link terminates the worker.
func TestRunExitsWhenLinkCloses(t *testing.T) {
	w, link := newTestWorker(t, Config{Algorithm: types.Heapsort})
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(context.Background()) }()

	require.NoError(t, link.Close())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after link close")
	}
}

// TestRunHonoursContext verifies cancellation unblocks an idle worker.
func TestRunHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w, _ := newTestWorker(t, Config{Algorithm: types.Heapsort})

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
}

// ============================================================================
// Pool
// ============================================================================

// TestNewPool tests creating a Worker Pool
func TestNewPool(t *testing.T) {
	pool := NewPool(1, nil)
	assert.NotNil(t, pool)
	assert.Equal(t, 0, pool.GetWorkerCount())
	assert.False(t, pool.IsStarted())

	_, err := pool.Links()
	assert.ErrorIs(t, err, ErrPoolNotStarted)
}

// TestPoolStart tests starting and double starting
func TestPoolStart(t *testing.T) {
	pool := NewPool(1, logging.Discard())
	cfg := Config{Algorithm: types.Mergesort, TimeLimit: time.Second}

	require.NoError(t, pool.Start(context.Background(), 2, cfg))
	assert.Equal(t, 2, pool.GetWorkerCount())
	assert.True(t, pool.IsStarted())

	assert.ErrorIs(t, pool.Start(context.Background(), 2, cfg), ErrPoolAlreadyStarted)

	stats := pool.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, 0, stats[0].ID)
	assert.Equal(t, 1, stats[1].ID)

	require.NoError(t, pool.Stop())
}

// TestPoolStartRejectsBadConfig tests that no goroutine starts on error
func TestPoolStartRejectsBadConfig(t *testing.T) {
	pool := NewPool(1, logging.Discard())
	err := pool.Start(context.Background(), 2, Config{Algorithm: "nope"})
	assert.ErrorIs(t, err, ErrInvalidWorker)
	assert.False(t, pool.IsStarted())
}

// TestPoolWorkersAreIndependent tests that each link reaches its own worker
func TestPoolWorkersAreIndependent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := NewPool(1, logging.Discard())
	require.NoError(t, pool.Start(ctx, 2, Config{Algorithm: types.Heapsort, TimeLimit: time.Hour}))
	links, err := pool.Links()
	require.NoError(t, err)
	require.Len(t, links, 2)

	for i, l := range links {
		unit := types.WorkUnit{Buffer: types.Buffer{2, 1}, Range: types.FullRange(2), IssuedAt: time.Now()}
		require.NoError(t, l.Send(ctx, types.Work(unit)))
		res, ok, err := l.Poll(ctx, 5*time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, res.WorkerID)
	}

	for _, l := range links {
		require.NoError(t, l.Send(ctx, types.Stop()))
	}
	require.NoError(t, pool.Wait())

	for _, s := range pool.Stats() {
		assert.Equal(t, types.StateTerminated, s.State)
		assert.Equal(t, 1, s.Iterations)
	}
}

// TestStopBeforeStart tests stopping before starting
func TestStopBeforeStart(t *testing.T) {
	pool := NewPool(1, nil)
	assert.NotPanics(t, func() {
		_ = pool.Stop()
	})
}

// TestLinksAfterStop tests that a stopped pool hands out no links
func TestLinksAfterStop(t *testing.T) {
	pool := NewPool(1, logging.Discard())
	require.NoError(t, pool.Start(context.Background(), 2, Config{Algorithm: types.Quicksort}))
	require.NoError(t, pool.Stop())

	_, err := pool.Links()
	assert.ErrorIs(t, err, ErrPoolClosed)
}
