package transport

// SortWorker gRPC service.
//
//   service SortWorker {
//     rpc Slice(google.protobuf.Struct) returns (google.protobuf.Struct);
//     rpc Stop(google.protobuf.Empty) returns (google.protobuf.Empty);
//   }
//
// Messages are well-known types so no generated code is needed; the
// descriptor below is what protoc-gen-go-grpc would emit for the service.

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "timeslice.v1.SortWorker"

	sliceMethod = "/timeslice.v1.SortWorker/Slice"
	stopMethod  = "/timeslice.v1.SortWorker/Stop"
)

// SortWorkerServer is the server API for the SortWorker service.
type SortWorkerServer interface {
	// Slice runs one time slice over the encoded WorkUnit and returns the
	// encoded WorkResult.
	Slice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Stop terminates the worker. It returns once the worker has exited.
	Stop(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// SortWorkerClient is the client API for the SortWorker service.
type SortWorkerClient interface {
	Slice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Stop(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type sortWorkerClient struct {
	cc grpc.ClientConnInterface
}

// NewSortWorkerClient wraps a connection in a SortWorker client.
func NewSortWorkerClient(cc grpc.ClientConnInterface) SortWorkerClient {
	return &sortWorkerClient{cc: cc}
}

func (c *sortWorkerClient) Slice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, sliceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sortWorkerClient) Stop(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, stopMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterSortWorkerServer registers srv on s.
// MaxMessageSize bounds one encoded Slice request or reply. gRPC's 4 MiB
// default would cap vectors at roughly a million small elements.
const MaxMessageSize = 256 << 20

// ServerOptions returns the options a server hosting SortWorker needs to
// accept and return vectors up to MaxMessageSize.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	}
}

func callOptions() []grpc.CallOption {
	return []grpc.CallOption{
		grpc.MaxCallRecvMsgSize(MaxMessageSize),
		grpc.MaxCallSendMsgSize(MaxMessageSize),
	}
}

func RegisterSortWorkerServer(s grpc.ServiceRegistrar, srv SortWorkerServer) {
	s.RegisterService(&sortWorkerServiceDesc, srv)
}

func sliceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SortWorkerServer).Slice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: sliceMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SortWorkerServer).Slice(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func stopHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SortWorkerServer).Stop(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: stopMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SortWorkerServer).Stop(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var sortWorkerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SortWorkerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Slice", Handler: sliceHandler},
		{MethodName: "Stop", Handler: stopHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "timeslice/v1/worker.proto",
}
