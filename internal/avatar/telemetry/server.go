package telemetry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/monitoring"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ PoseStreamServer = (*Server)(nil)

// StatusSource reports pipeline state. *pipeline.Pipeline satisfies it.
type StatusSource interface {
	Status() pipeline.Status
}

// Server implements PoseStreamServer on top of a Publisher.
type Server struct {
	pub    *Publisher
	source StatusSource
}

// NewServer creates a server. source may be nil, in which case Status
// is unavailable.
func NewServer(pub *Publisher, source StatusSource) *Server {
	return &Server{pub: pub, source: source}
}

// Status implements PoseStreamServer.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.source == nil {
		return nil, status.Error(codes.Unavailable, "no pipeline attached")
	}
	st, err := statusStruct(s.source.Status(), s.pub.Stats())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return st, nil
}

// StreamPoses implements PoseStreamServer.
func (s *Server) StreamPoses(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	req := RequestFromStruct(in)

	name := "unknown"
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		name = p.Addr.String()
	}
	c, unsubscribe, err := s.pub.subscribe(name)
	if errors.Is(err, ErrTooManyClients) {
		return status.Error(codes.ResourceExhausted, err.Error())
	}
	if err != nil {
		return err
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-c.ch:
			msg, err := FrameStruct(res, req)
			if err != nil {
				monitoring.Logf("[telemetry] encode frame %d: %v", res.Sequence, err)
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func statusStruct(st pipeline.Status, stats Stats) (*structpb.Struct, error) {
	m, err := toMap(st)
	if err != nil {
		return nil, err
	}
	sm, err := toMap(stats)
	if err != nil {
		return nil, err
	}
	m["telemetry"] = sm
	return structpb.NewStruct(m)
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
