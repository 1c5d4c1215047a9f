package transport

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// pipe is the shared state of an in-process channel pair.
type pipe struct {
	requests chan types.Request
	results  chan types.WorkResult

	linkOnce   sync.Once
	linkClosed chan struct{} // coordinator side released the link
	portOnce   sync.Once
	portClosed chan struct{} // worker terminated
}

// PipeLink is the coordinator end of an in-process channel pair.
type PipeLink struct {
	p *pipe
}

// PipePort is the worker end of an in-process channel pair.
type PipePort struct {
	p *pipe
}

// NewPipe creates a connected Link/Port pair whose channels hold up to
// bufferSize messages in each direction.
func NewPipe(bufferSize int) (*PipeLink, *PipePort) {
	if bufferSize < 1 {
		bufferSize = 1
	}
	p := &pipe{
		requests:   make(chan types.Request, bufferSize),
		results:    make(chan types.WorkResult, bufferSize),
		linkClosed: make(chan struct{}),
		portClosed: make(chan struct{}),
	}
	return &PipeLink{p: p}, &PipePort{p: p}
}

// Send implements Link.
func (l *PipeLink) Send(ctx context.Context, req types.Request) error {
	select {
	case <-l.p.linkClosed:
		return ErrClosed
	case <-l.p.portClosed:
		return ErrClosed
	default:
	}

	req.Unit.Buffer = req.Unit.Buffer.Clone()
	select {
	case l.p.requests <- req:
		return nil
	case <-l.p.portClosed:
		return ErrClosed
	case <-l.p.linkClosed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poll implements Link.
func (l *PipeLink) Poll(ctx context.Context, wait time.Duration) (types.WorkResult, bool, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case res, ok := <-l.p.results:
		if !ok {
			return types.WorkResult{}, false, ErrClosed
		}
		return res, true, nil
	case <-timer.C:
		return types.WorkResult{}, false, nil
	case <-ctx.Done():
		return types.WorkResult{}, false, ctx.Err()
	}
}

// Wait implements Link. Results still in flight are discarded.
func (l *PipeLink) Wait(ctx context.Context) error {
	for {
		select {
		case _, ok := <-l.p.results:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close implements Link.
func (l *PipeLink) Close() error {
	l.p.linkOnce.Do(func() { close(l.p.linkClosed) })
	return nil
}

// Receive implements Port. Requests queued before the link was closed are
// still delivered.
func (pp *PipePort) Receive(ctx context.Context) (types.Request, error) {
	select {
	case req := <-pp.p.requests:
		return req, nil
	case <-pp.p.linkClosed:
		select {
		case req := <-pp.p.requests:
			return req, nil
		default:
			return types.Request{}, io.EOF
		}
	case <-ctx.Done():
		return types.Request{}, ctx.Err()
	}
}

// Reply implements Port.
func (pp *PipePort) Reply(ctx context.Context, res types.WorkResult) error {
	select {
	case <-pp.p.portClosed:
		return ErrClosed
	default:
	}

	res.Buffer = res.Buffer.Clone()
	select {
	case pp.p.results <- res:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Port. It must not race with Reply; the worker calls it
// from the same goroutine once it stops serving.
func (pp *PipePort) Close() error {
	pp.p.portOnce.Do(func() {
		close(pp.p.portClosed)
		close(pp.p.results)
	})
	return nil
}
