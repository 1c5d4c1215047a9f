package journal

// ============================================================================
// Batch Writer
// Purpose: Accumulate events and sync them once, reducing fsync count
// ============================================================================

import (
	"fmt"
	"sync"
	"time"
)

// BatchWriter buffers events in front of a Journal
//
// Design:
// - Append only buffers; the batch is written when it reaches maxBatchSize
//   or when flushInterval elapses, whichever comes first
// - Each flush writes every buffered event and then syncs once
// - Timestamps are taken at Append time, not at flush time
//
// Events still buffered when the process crashes are lost.
type BatchWriter struct {
	journal *Journal // Underlying journal, not closed by the writer

	mu      sync.Mutex
	buffer  []Event
	lastErr error // first background flush failure, reported by the next call
	closed  bool

	maxBatchSize  int
	flushInterval time.Duration

	done chan struct{}
	wg   sync.WaitGroup
	now  func() time.Time
}

// NewBatchWriter creates a batch writer and starts its flush loop
//
// Parameters:
//
//	journal       - Underlying journal (opened without sync-on-append)
//	maxBatchSize  - Flush immediately after accumulating this many events
//	flushInterval - Maximum wait time before flush (even if not full)
func NewBatchWriter(journal *Journal, maxBatchSize int, flushInterval time.Duration) *BatchWriter {
	if maxBatchSize <= 0 {
		maxBatchSize = 1
	}
	bw := &BatchWriter{
		journal:       journal,
		buffer:        make([]Event, 0, maxBatchSize),
		maxBatchSize:  maxBatchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
		now:           time.Now,
	}
	if flushInterval > 0 {
		bw.wg.Add(1)
		go bw.flushLoop()
	}
	return bw
}

// Append adds event to the buffer, flushing when the batch is full
func (bw *BatchWriter) Append(event Event) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.closed {
		return ErrJournalClosed
	}
	if err := bw.takeErr(); err != nil {
		return err
	}

	if event.Timestamp == 0 {
		event.Timestamp = bw.now().UnixMilli()
	}
	bw.buffer = append(bw.buffer, event)
	if len(bw.buffer) >= bw.maxBatchSize {
		return bw.flushLocked()
	}
	return nil
}

// Flush immediately writes all buffered events
func (bw *BatchWriter) Flush() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if err := bw.takeErr(); err != nil {
		return err
	}
	return bw.flushLocked()
}

// Pending returns how many events are waiting for the next flush
func (bw *BatchWriter) Pending() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

// Close stops the flush loop and writes the remaining events
// The underlying journal stays open (caller's responsibility)
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return nil
	}
	bw.closed = true
	bw.mu.Unlock()

	close(bw.done)
	bw.wg.Wait()

	bw.mu.Lock()
	defer bw.mu.Unlock()
	if err := bw.takeErr(); err != nil {
		return err
	}
	return bw.flushLocked()
}

// ============================================================================
// Private Methods
// ============================================================================

// flushLocked writes the buffer and syncs once; caller holds mu
// A failed write keeps the unwritten tail buffered for the next attempt.
func (bw *BatchWriter) flushLocked() error {
	if len(bw.buffer) == 0 {
		return nil
	}
	for i, event := range bw.buffer {
		if err := bw.journal.Append(event); err != nil {
			bw.buffer = append(bw.buffer[:0], bw.buffer[i:]...)
			return fmt.Errorf("batch flush: %w", err)
		}
	}
	bw.buffer = bw.buffer[:0]

	if err := bw.journal.Sync(); err != nil {
		return fmt.Errorf("batch sync: %w", err)
	}
	return nil
}

func (bw *BatchWriter) takeErr() error {
	err := bw.lastErr
	bw.lastErr = nil
	return err
}

// flushLoop background periodic flush loop
func (bw *BatchWriter) flushLoop() {
	defer bw.wg.Done()

	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bw.done:
			return
		case <-ticker.C:
			bw.mu.Lock()
			if err := bw.flushLocked(); err != nil && bw.lastErr == nil {
				bw.lastErr = err
			}
			bw.mu.Unlock()
		}
	}
}
