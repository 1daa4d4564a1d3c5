package pipeline

import (
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/avatar/l5retarget"
	"github.com/banshee-data/posetrack/internal/avatar/l6footik"
	"github.com/banshee-data/posetrack/internal/geom"
	"github.com/google/uuid"
)

// BonePose is the world pose written to one bone.
type BonePose struct {
	Joint    l1joints.JointID
	Bone     l1joints.HumanBone
	Position geom.Vec3
	Rotation geom.Quat
}

// FrameResult is everything one Process call produced. It is never
// mutated after being handed to sinks.
type FrameResult struct {
	SessionID uuid.UUID
	Sequence  uint64
	Timestamp time.Time
	DT        float64 // seconds since the previous frame

	Input  l1joints.Frame // the frame as received
	Joints [l1joints.Count]l1joints.Joint
	Bones  []BonePose

	EstimatedScore float64 // mean source confidence
	PoseValid      bool
	PoorLowerBody  bool
	Locks          l4reliability.Report
	Retarget       l5retarget.Result
	FootIK         l6footik.Result
}

// Locked lists the joints driven toward rest this frame.
func (r *FrameResult) Locked() []l1joints.JointID { return r.Locks.Locked }

// Sink receives every FrameResult. Publish is called synchronously from
// Process and must not block for long.
type Sink interface {
	Publish(r *FrameResult)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r *FrameResult)

// Publish calls f.
func (f SinkFunc) Publish(r *FrameResult) { f(r) }

// Status is a point-in-time view for operators.
type Status struct {
	Calibrated     bool                    `json:"calibrated"`
	Paused         bool                    `json:"paused"`
	ErrorMessage   string                  `json:"error_message,omitempty"`
	SessionID      string                  `json:"session_id,omitempty"`
	Frames         uint64                  `json:"frames"`
	EstimatedScore float64                 `json:"estimated_score"`
	PoseValid      bool                    `json:"pose_valid"`
	PoorLowerBody  bool                    `json:"poor_lower_body"`
	Locked         []string                `json:"locked"`
	EnabledJoints  int                     `json:"enabled_joints"`
	FilterResets   int                     `json:"filter_resets"`
	UserLocks      l4reliability.UserLocks `json:"user_locks"`
}
