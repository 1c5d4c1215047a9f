package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ChuLiYu/timeslice-sort/internal/logging"
	"github.com/ChuLiYu/timeslice-sort/internal/transport"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// pollWait bounds each wait for the local worker's reply; the RPC context
// still governs the overall call.
const pollWait = 100 * time.Millisecond

// Server implements the gRPC SortWorker service by relaying to a local
// worker over its link.
type Server struct {
	link   transport.Link
	logger *slog.Logger

	// One slice at a time: the protocol never has two units outstanding on
	// the same worker.
	sliceMu sync.Mutex

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewServer creates a new gRPC server instance for the worker behind link.
func NewServer(link transport.Link, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		link:    link,
		logger:  logger.With(logging.SourceKey, "Server"),
		stopped: make(chan struct{}),
	}
}

// Done is closed once a Stop RPC has terminated the worker.
func (s *Server) Done() <-chan struct{} {
	return s.stopped
}

// Slice handles one work unit.
func (s *Server) Slice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	unit, err := transport.DecodeUnit(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.sliceMu.Lock()
	defer s.sliceMu.Unlock()

	select {
	case <-s.stopped:
		return nil, status.Error(codes.Unavailable, "worker stopped")
	default:
	}

	if err := s.link.Send(ctx, types.Work(unit)); err != nil {
		return nil, toStatus(err)
	}
	for {
		res, ok, err := s.link.Poll(ctx, pollWait)
		if err != nil {
			return nil, toStatus(err)
		}
		if ok {
			return transport.EncodeResult(res), nil
		}
	}
}

// Stop terminates the worker and returns once it has exited.
func (s *Server) Stop(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.logger.Info("Stop requested")
	if err := s.link.Send(ctx, types.Stop()); err != nil && !errors.Is(err, transport.ErrClosed) {
		return nil, toStatus(err)
	}
	if err := s.link.Wait(ctx); err != nil {
		return nil, toStatus(err)
	}
	s.stopOnce.Do(func() { close(s.stopped) })
	return &emptypb.Empty{}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, transport.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

var _ transport.SortWorkerServer = (*Server)(nil)
