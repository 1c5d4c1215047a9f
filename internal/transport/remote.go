package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// outcome is one Slice RPC's result as seen by Poll.
type outcome struct {
	res types.WorkResult
	err error
}

// RemoteLink is a Link to a worker served over gRPC.
//
// Send on a work request starts the Slice RPC in the background and returns;
// the reply is picked up by Poll. Send on a stop request issues the Stop RPC
// in the background; Wait blocks until it returns.
type RemoteLink struct {
	client SortWorkerClient
	closer io.Closer

	ctx    context.Context
	cancel context.CancelFunc

	inbox chan outcome

	// maxMessageSize rejects oversize units before they reach the wire.
	maxMessageSize int

	mu       sync.Mutex
	stopping bool
	done     chan struct{}
	stopErr  error
}

// Dial connects to a worker listening on addr.
func Dial(addr string, opts ...grpc.DialOption) (*RemoteLink, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial worker %s: %w", addr, err)
	}
	link := NewRemoteLink(conn)
	link.closer = conn
	return link, nil
}

// NewRemoteLink builds a link on an existing connection. The caller keeps
// ownership of cc.
func NewRemoteLink(cc grpc.ClientConnInterface) *RemoteLink {
	ctx, cancel := context.WithCancel(context.Background())
	return &RemoteLink{
		client: NewSortWorkerClient(cc),
		ctx:    ctx,
		cancel: cancel,
		inbox:  make(chan outcome, 1),
		done:   make(chan struct{}),

		maxMessageSize: MaxMessageSize,
	}
}

// Send implements Link.
func (l *RemoteLink) Send(ctx context.Context, req types.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.ctx.Err(); err != nil {
		return ErrClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopping {
		return ErrClosed
	}

	if req.Kind == types.RequestStop {
		l.stopping = true
		go l.stop()
		return nil
	}

	msg := EncodeUnit(req.Unit)
	if size := proto.Size(msg); size > l.maxMessageSize {
		return fmt.Errorf("%w: %d elements encode to %d bytes, limit is %d",
			ErrMessageTooLarge, len(req.Unit.Buffer), size, l.maxMessageSize)
	}
	go func() {
		resp, err := l.client.Slice(l.ctx, msg, callOptions()...)
		if err != nil {
			l.deliver(outcome{err: fmt.Errorf("slice rpc: %w", err)})
			return
		}
		res, err := DecodeResult(resp)
		l.deliver(outcome{res: res, err: err})
	}()
	return nil
}

func (l *RemoteLink) deliver(o outcome) {
	select {
	case l.inbox <- o:
	case <-l.ctx.Done():
	}
}

func (l *RemoteLink) stop() {
	defer close(l.done)
	if _, err := l.client.Stop(l.ctx, &emptypb.Empty{}, callOptions()...); err != nil {
		l.stopErr = fmt.Errorf("stop rpc: %w", err)
	}
}

// Poll implements Link.
func (l *RemoteLink) Poll(ctx context.Context, wait time.Duration) (types.WorkResult, bool, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case o := <-l.inbox:
		if o.err != nil {
			return types.WorkResult{}, false, o.err
		}
		return o.res, true, nil
	case <-timer.C:
		return types.WorkResult{}, false, nil
	case <-l.done:
		return types.WorkResult{}, false, ErrClosed
	case <-ctx.Done():
		return types.WorkResult{}, false, ctx.Err()
	}
}

// Wait implements Link. On a closed link that never issued the Stop RPC it
// returns ErrClosed instead of blocking.
func (l *RemoteLink) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.stopErr
	case <-l.ctx.Done():
		l.mu.Lock()
		stopping := l.stopping
		l.mu.Unlock()
		if !stopping {
			return ErrClosed
		}
		// the Stop RPC runs on l.ctx and returns promptly once it is cancelled
		<-l.done
		return l.stopErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Link. Outstanding RPCs are cancelled.
func (l *RemoteLink) Close() error {
	l.cancel()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
