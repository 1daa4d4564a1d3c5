package telemetry

import (
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/geom"
	"google.golang.org/protobuf/types/known/structpb"
)

// StreamRequest selects what each streamed frame carries. The frame
// header (session, sequence, timestamp, score, validity and locks) is
// always sent.
type StreamRequest struct {
	Bones  bool // world pose of every driven bone
	Joints bool // filtered joint positions with visibility and lock flags
	Root   bool // root position, rotation and depth
}

// Struct encodes r as the StreamPoses request message.
func (r StreamRequest) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"bones":  structpb.NewBoolValue(r.Bones),
		"joints": structpb.NewBoolValue(r.Joints),
		"root":   structpb.NewBoolValue(r.Root),
	}}
}

// RequestFromStruct decodes a StreamPoses request. Missing fields are
// false; a nil or empty request asks for bones only.
func RequestFromStruct(s *structpb.Struct) StreamRequest {
	if s == nil || len(s.GetFields()) == 0 {
		return StreamRequest{Bones: true}
	}
	f := s.GetFields()
	return StreamRequest{
		Bones:  f["bones"].GetBoolValue(),
		Joints: f["joints"].GetBoolValue(),
		Root:   f["root"].GetBoolValue(),
	}
}

// FrameStruct encodes one result for the stream.
func FrameStruct(res *pipeline.FrameResult, req StreamRequest) (*structpb.Struct, error) {
	locked := make([]any, 0, len(res.Locked()))
	for _, id := range res.Locked() {
		locked = append(locked, id.String())
	}
	m := map[string]any{
		"session_id":      res.SessionID.String(),
		"seq":             float64(res.Sequence),
		"timestamp":       res.Timestamp.UTC().Format(time.RFC3339Nano),
		"dt":              res.DT,
		"estimated_score": res.EstimatedScore,
		"pose_valid":      res.PoseValid,
		"poor_lower_body": res.PoorLowerBody,
		"locked":          locked,
	}
	if req.Bones {
		bones := make([]any, 0, len(res.Bones))
		for _, b := range res.Bones {
			bones = append(bones, map[string]any{
				"bone":     string(b.Bone),
				"position": vec(b.Position),
				"rotation": quat(b.Rotation),
			})
		}
		m["bones"] = bones
	}
	if req.Joints {
		joints := make([]any, 0, len(res.Joints))
		for _, j := range res.Joints {
			if !j.Enabled {
				continue
			}
			entry := map[string]any{
				"joint":   j.ID.String(),
				"pos":     vec(j.Pos3D),
				"visible": j.Visible,
				"lock":    j.Lock,
			}
			// Only tracked joints carry an image-space position.
			if j.ID.IsSource() {
				entry["pos2d"] = vec(j.Pos2D)
			}
			joints = append(joints, entry)
		}
		m["joints"] = joints
	}
	if req.Root {
		m["root"] = map[string]any{
			"position":       vec(res.Retarget.RootPosition),
			"rotation":       quat(res.Retarget.RootRotation),
			"depth":          res.Retarget.Depth,
			"right_angle":    res.Retarget.RightAngleDeg,
			"up_down_angle":  res.Retarget.UpDownAngleDeg,
			"foot_ik_lift":   res.FootIK.RootLift,
			"foot_ik_drop":   res.FootIK.RootDrop,
			"foot_ik_active": res.FootIK.Applied,
		}
	}
	return structpb.NewStruct(m)
}

func vec(v geom.Vec3) []any { return []any{v[0], v[1], v[2]} }

// quat is encoded w, x, y, z.
func quat(q geom.Quat) []any { return []any{q.W, q.V[0], q.V[1], q.V[2]} }
