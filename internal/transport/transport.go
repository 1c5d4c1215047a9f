// ============================================================================
// Timeslice Transport - Coordinator <-> Worker channel pair
// ============================================================================
//
// Package: internal/transport
// File: transport.go
// Purpose: The bidirectional channel between the coordinator and one worker.
//
// Every worker is reached through exactly one channel pair:
//
//   Coordinator                          Worker
//   ┌──────────┐   Request (unit|stop)   ┌──────────┐
//   │   Link   │ ──────────────────────> │   Port   │
//   │          │ <────────────────────── │          │
//   └──────────┘      WorkResult         └──────────┘
//
// Implementations:
//   - Pipe:       in-process, two buffered Go channels (pipe.go)
//   - RemoteLink: gRPC client to a worker in another process (remote.go)
//
// Ownership:
//   A Buffer carried by a message belongs to the receiver once sent. The Pipe
//   deep-copies on send so the sender keeps no alias; the gRPC transport
//   serialises, which has the same effect.
//
// Ordering:
//   Messages on one channel are delivered in send order. There is no ordering
//   across channels.
//
// ============================================================================

package transport

import (
	"context"
	"errors"
	"time"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

var (
	// ErrClosed is returned when the other side of the channel is gone.
	ErrClosed = errors.New("transport: channel closed")
	// ErrMalformed is returned when a wire message cannot be decoded.
	ErrMalformed = errors.New("transport: malformed message")
	// ErrMessageTooLarge is returned when an encoded unit exceeds MaxMessageSize.
	ErrMessageTooLarge = errors.New("transport: message too large")
)

// Link is the coordinator's end of a channel pair.
type Link interface {
	// Send delivers a request to the worker. Ownership of the unit's
	// buffer passes to the worker.
	Send(ctx context.Context, req types.Request) error

	// Poll waits at most wait for the next result. ok is false when nothing
	// arrived in time.
	Poll(ctx context.Context, wait time.Duration) (res types.WorkResult, ok bool, err error)

	// Wait blocks until the worker has terminated.
	Wait(ctx context.Context) error

	// Close releases the link. A worker still reading from it sees the
	// channel close and terminates.
	Close() error
}

// Port is the worker's end of a channel pair.
type Port interface {
	// Receive blocks until the next request arrives. It returns io.EOF once
	// the coordinator has closed the link.
	Receive(ctx context.Context) (types.Request, error)

	// Reply sends a result back to the coordinator.
	Reply(ctx context.Context, res types.WorkResult) error

	// Close marks the worker as terminated.
	Close() error
}
