package telemetry

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/geom"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fixedStatus pipeline.Status

func (f fixedStatus) Status() pipeline.Status { return pipeline.Status(f) }

func sampleResult(seq uint64) *pipeline.FrameResult {
	res := &pipeline.FrameResult{
		SessionID:      uuid.MustParse("6f1c7a52-3d0e-4f7b-9a51-2c1f0d7e8b90"),
		Sequence:       seq,
		Timestamp:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		DT:             1.0 / 30,
		EstimatedScore: 0.8,
		PoseValid:      true,
		Locks:          l4reliability.Report{Locked: []l1joints.JointID{l1joints.RightShin}},
		Bones: []pipeline.BonePose{
			{
				Joint:    l1joints.Hip,
				Bone:     l1joints.BoneHips,
				Position: geom.Vec3{0, 1, 0},
				Rotation: geom.Quat{W: 1},
			},
		},
	}
	res.Joints[l1joints.Hip] = l1joints.Joint{ID: l1joints.Hip, Enabled: true, Visible: true, Pos3D: geom.Vec3{0, 1, 0}}
	return res
}

func startServer(t *testing.T, cfg Config, source StatusSource) (*Publisher, *Client) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	pub := NewPublisher(cfg)
	pub.Serve(lis, NewServer(pub, source))
	t.Cleanup(pub.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return pub, NewClient(conn)
}

func testConfig() Config {
	return Config{MaxClients: 2, Buffer: 4}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	_, c := startServer(t, testConfig(), fixedStatus{Calibrated: true, Frames: 12, Locked: []string{"LeftFoot"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := c.Status(ctx)
	require.NoError(t, err)

	f := st.GetFields()
	assert.True(t, f["calibrated"].GetBoolValue())
	assert.Equal(t, 12.0, f["frames"].GetNumberValue())
	require.Len(t, f["locked"].GetListValue().GetValues(), 1)
	assert.Equal(t, "LeftFoot", f["locked"].GetListValue().GetValues()[0].GetStringValue())
	assert.Equal(t, 0.0, f["telemetry"].GetStructValue().GetFields()["clients"].GetNumberValue())
}

func TestStatus_NoSource(t *testing.T) {
	t.Parallel()
	_, c := startServer(t, testConfig(), nil)

	_, err := c.Status(context.Background())
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestStreamPoses(t *testing.T) {
	t.Parallel()
	pub, c := startServer(t, testConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := c.StreamPoses(ctx, StreamRequest{Bones: true, Joints: true, Root: true})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return pub.Stats().Clients == 1 }, 5*time.Second, 10*time.Millisecond)

	pub.Publish(sampleResult(7))
	msg, err := stream.Recv()
	require.NoError(t, err)

	f := msg.GetFields()
	assert.Equal(t, 7.0, f["seq"].GetNumberValue())
	assert.Equal(t, "6f1c7a52-3d0e-4f7b-9a51-2c1f0d7e8b90", f["session_id"].GetStringValue())
	assert.Equal(t, "2025-06-01T09:00:00Z", f["timestamp"].GetStringValue())
	assert.True(t, f["pose_valid"].GetBoolValue())
	assert.Equal(t, "RightShin", f["locked"].GetListValue().GetValues()[0].GetStringValue())

	bones := f["bones"].GetListValue().GetValues()
	require.Len(t, bones, 1)
	hips := bones[0].GetStructValue().GetFields()
	assert.Equal(t, "Hips", hips["bone"].GetStringValue())
	rot := hips["rotation"].GetListValue().GetValues()
	assert.Equal(t, 1.0, rot[0].GetNumberValue(), "rotation is w first")

	joints := f["joints"].GetListValue().GetValues()
	require.Len(t, joints, 1, "only enabled joints are sent")
	assert.Equal(t, "Hip", joints[0].GetStructValue().GetFields()["joint"].GetStringValue())
	assert.NotNil(t, f["root"].GetStructValue())

	cancel()
	require.Eventually(t, func() bool { return pub.Stats().Clients == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestFrameStruct_Joints(t *testing.T) {
	t.Parallel()
	res := sampleResult(1)
	res.Joints[l1joints.Nose] = l1joints.Joint{
		ID:      l1joints.Nose,
		Enabled: true,
		Pos3D:   geom.Vec3{0, 1.6, 0.1},
		Pos2D:   geom.Vec3{320, 120, 0},
	}

	s, err := FrameStruct(res, StreamRequest{Joints: true})
	require.NoError(t, err)
	assert.Nil(t, s.GetFields()["bones"])

	joints := s.GetFields()["joints"].GetListValue().GetValues()
	require.Len(t, joints, 2)
	nose := joints[0].GetStructValue().GetFields()
	assert.Equal(t, "Nose", nose["joint"].GetStringValue())
	pos2d := nose["pos2d"].GetListValue().GetValues()
	require.Len(t, pos2d, 3)
	assert.Equal(t, 320.0, pos2d[0].GetNumberValue())
	assert.Equal(t, 120.0, pos2d[1].GetNumberValue())

	hip := joints[1].GetStructValue().GetFields()
	assert.Equal(t, "Hip", hip["joint"].GetStringValue())
	assert.NotContains(t, hip, "pos2d", "synthesized joints have no image position")
}

func TestStreamPoses_TooManyClients(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.MaxClients = 1
	pub, c := startServer(t, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.StreamPoses(ctx, StreamRequest{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return pub.Stats().Clients == 1 }, 5*time.Second, 10*time.Millisecond)

	second, err := c.StreamPoses(ctx, StreamRequest{})
	require.NoError(t, err)
	_, err = second.Recv()
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestPublish_SlowClientDrops(t *testing.T) {
	t.Parallel()
	pub := NewPublisher(Config{Buffer: 1})
	pub.Publish(sampleResult(1)) // nobody listening

	c, unsubscribe, err := pub.subscribe("test")
	require.NoError(t, err)
	defer unsubscribe()
	for i := uint64(2); i <= 4; i++ {
		pub.Publish(sampleResult(i))
	}
	assert.Equal(t, Stats{Clients: 1, Published: 4, Dropped: 2}, pub.Stats())
	assert.Equal(t, uint64(2), (<-c.ch).Sequence)
}

func TestRequestFromStruct(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		req  StreamRequest
	}{
		{"bones only", StreamRequest{Bones: true}},
		{"joints and root", StreamRequest{Joints: true, Root: true}},
		{"everything", StreamRequest{Bones: true, Joints: true, Root: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.req, RequestFromStruct(tt.req.Struct()))
		})
	}
	assert.Equal(t, StreamRequest{Bones: true}, RequestFromStruct(nil))
}
