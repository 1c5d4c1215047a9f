package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ChuLiYu/timeslice-sort/internal/clock"
	"github.com/ChuLiYu/timeslice-sort/internal/coordinator"
	"github.com/ChuLiYu/timeslice-sort/internal/logging"
	"github.com/ChuLiYu/timeslice-sort/internal/transport"
	"github.com/ChuLiYu/timeslice-sort/internal/worker"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// serveWorker starts a one-worker pool behind a gRPC server on bufconn and
// returns a client connection plus the server.
func serveWorker(t *testing.T, id int, cfg worker.Config) (*grpc.ClientConn, *Server, *worker.Pool) {
	t.Helper()

	pool := worker.NewPool(1, logging.Discard())
	cfg.ID = id
	require.NoError(t, pool.Start(context.Background(), 1, cfg))
	t.Cleanup(func() { _ = pool.Stop() })
	links, err := pool.Links()
	require.NoError(t, err)

	srv := NewServer(links[0], logging.Discard())
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(transport.ServerOptions()...)
	transport.RegisterSortWorkerServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, srv, pool
}

// TestSliceOverGRPC verifies a single slice round trip.
func TestSliceOverGRPC(t *testing.T) {
	conn, _, _ := serveWorker(t, 0, worker.Config{Algorithm: types.Heapsort, TimeLimit: time.Hour})
	client := transport.NewSortWorkerClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	unit := types.WorkUnit{Buffer: types.Buffer{4, 2, 3, 1}, Range: types.FullRange(4), IssuedAt: time.Now()}
	resp, err := client.Slice(ctx, transport.EncodeUnit(unit))
	require.NoError(t, err)

	res, err := transport.DecodeResult(resp)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, res.Status)
	assert.Equal(t, types.Buffer{1, 2, 3, 4}, res.Buffer)
}

// TestSliceRejectsMalformed verifies decoding errors map to InvalidArgument.
func TestSliceRejectsMalformed(t *testing.T) {
	conn, _, _ := serveWorker(t, 0, worker.Config{Algorithm: types.Quicksort})
	client := transport.NewSortWorkerClient(conn)

	_, err := client.Slice(context.Background(), &structpb.Struct{})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestStopTerminatesWorker verifies Stop waits for the worker and closes
// Done.
func TestStopTerminatesWorker(t *testing.T) {
	conn, srv, pool := serveWorker(t, 1, worker.Config{Algorithm: types.Mergesort})
	link := transport.NewRemoteLink(conn)
	defer link.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, link.Send(ctx, types.Stop()))
	require.NoError(t, link.Wait(ctx))

	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not report stop")
	}
	require.NoError(t, pool.Wait())

	client := transport.NewSortWorkerClient(conn)
	unit := types.WorkUnit{Buffer: types.Buffer{2, 1}, Range: types.FullRange(2), IssuedAt: time.Now()}
	_, err := client.Slice(ctx, transport.EncodeUnit(unit))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

// TestCoordinatorOverGRPC runs a full job against two remote workers.
func TestCoordinatorOverGRPC(t *testing.T) {
	for _, alg := range types.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			clk := clock.NewStep(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond)
			cfg := worker.Config{Algorithm: alg, TimeLimit: 0, Clock: clk}
			conn0, _, _ := serveWorker(t, 0, cfg)
			conn1, _, _ := serveWorker(t, 1, cfg)

			links := [2]transport.Link{transport.NewRemoteLink(conn0), transport.NewRemoteLink(conn1)}
			c, err := coordinator.New(coordinator.Config{PollInterval: 10 * time.Millisecond}, links,
				coordinator.WithLogger(logging.Discard()))
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			report, err := c.Run(ctx, types.Buffer{5, 3, 4, 1, 2})
			require.NoError(t, err)
			assert.Equal(t, types.Buffer{1, 2, 3, 4, 5}, report.Buffer)
			assert.GreaterOrEqual(t, report.Transfers, 1)
		})
	}
}
