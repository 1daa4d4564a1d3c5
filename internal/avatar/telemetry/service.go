package telemetry

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "posetrack.telemetry.PoseStream"

const (
	statusMethod      = "/" + ServiceName + "/Status"
	streamPosesMethod = "/" + ServiceName + "/StreamPoses"
)

// PoseStreamServer is the server API for the PoseStream service.
type PoseStreamServer interface {
	// Status returns the pipeline status as a Struct.
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// StreamPoses sends one Struct per processed frame until the client
	// goes away. The request Struct carries StreamRequest options.
	StreamPoses(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

// PoseStreamServiceDesc describes the service for grpc.Server.
var PoseStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PoseStreamServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Status",
			Handler:    statusHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamPoses",
			Handler:       streamPosesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "posetrack/telemetry.proto",
}

// RegisterPoseStreamServer registers srv with s.
func RegisterPoseStreamServer(s grpc.ServiceRegistrar, srv PoseStreamServer) {
	s.RegisterService(&PoseStreamServiceDesc, srv)
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PoseStreamServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PoseStreamServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func streamPosesHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(PoseStreamServer).StreamPoses(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// Client is a PoseStream client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Status calls PoseStream.Status.
func (c *Client) Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statusMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamPoses opens a pose stream. Cancel ctx to end it.
func (c *Client) StreamPoses(ctx context.Context, req StreamRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &PoseStreamServiceDesc.Streams[0], streamPosesMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(req.Struct()); err != nil {
		return nil, err
	}
	if err := x.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
