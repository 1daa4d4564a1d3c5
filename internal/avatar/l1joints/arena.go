package l1joints

import (
	"fmt"
	"time"

	"github.com/banshee-data/posetrack/internal/geom"
)

// Keypoint is one estimator output sample.
type Keypoint struct {
	Pos3D geom.Vec3 `json:"pos"`
	Pos2D geom.Vec3 `json:"pos2d"`
	Score float64   `json:"score"`
}

// Frame is one estimator output frame. Keypoints are indexed by JointID
// and must cover at least SourceCount entries.
type Frame struct {
	Timestamp time.Time  `json:"timestamp"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Joint is the per-frame state of one arena slot.
type Joint struct {
	ID      JointID
	Bone    HumanBone
	Pos3D   geom.Vec3
	Pos2D   geom.Vec3
	Score3D float64

	Visible bool // score above the visibility threshold, AND-propagated to synthesized joints
	Lock    bool // rotation must not come from tracking this frame
	Enabled bool // bound to a bone that exists on the rig
}

// Arena owns every joint for the lifetime of a session. Joints refer to
// each other by JointID through the topology; there are no pointers
// between joints.
type Arena struct {
	topo   *Topology
	joints [Count]Joint
}

// NewArena returns an arena for topo with every joint disabled.
func NewArena(topo *Topology) *Arena {
	a := &Arena{topo: topo}
	for i := range a.joints {
		a.joints[i] = Joint{ID: JointID(i), Bone: topo.Specs[i].Bone}
	}
	return a
}

// Topology returns the joint table the arena was built with.
func (a *Arena) Topology() *Topology { return a.topo }

// At returns the joint for id. The pointer stays valid for the arena's
// lifetime.
func (a *Arena) At(id JointID) *Joint { return &a.joints[id] }

// Pos returns the 3D position of id.
func (a *Arena) Pos(id JointID) geom.Vec3 { return a.joints[id].Pos3D }

// SetPos overwrites the 3D position of id.
func (a *Arena) SetPos(id JointID, p geom.Vec3) { a.joints[id].Pos3D = p }

// Score returns the 3D confidence of id.
func (a *Arena) Score(id JointID) float64 { return a.joints[id].Score3D }

// Enabled reports whether id is bound to an existing bone.
func (a *Arena) Enabled(id JointID) bool { return a.joints[id].Enabled }

// Snapshot copies every joint.
func (a *Arena) Snapshot() [Count]Joint { return a.joints }

// Load copies the source keypoints of f into the arena.
func (a *Arena) Load(f Frame) error {
	if len(f.Keypoints) < SourceCount {
		return fmt.Errorf("frame has %d keypoints, need %d", len(f.Keypoints), SourceCount)
	}
	for i := 0; i < SourceCount; i++ {
		kp := f.Keypoints[i]
		if !geom.IsFinite(kp.Pos3D) {
			return fmt.Errorf("keypoint %v is not finite: %v", JointID(i), kp.Pos3D)
		}
		j := &a.joints[i]
		j.Pos3D = kp.Pos3D
		j.Pos2D = kp.Pos2D
		j.Score3D = kp.Score
	}
	return nil
}

// SourcePositions copies the 3D source positions into dst, which must
// have room for SourceCount entries.
func (a *Arena) SourcePositions(dst []geom.Vec3) {
	for i := 0; i < SourceCount; i++ {
		dst[i] = a.joints[i].Pos3D
	}
}

// SetSourcePositions writes filtered source positions back.
func (a *Arena) SetSourcePositions(src []geom.Vec3) {
	for i := 0; i < SourceCount && i < len(src); i++ {
		a.joints[i].Pos3D = src[i]
	}
}

// Source2DPositions and SetSource2DPositions mirror the 3D accessors
// for the image-space stream.
func (a *Arena) Source2DPositions(dst []geom.Vec3) {
	for i := 0; i < SourceCount; i++ {
		dst[i] = a.joints[i].Pos2D
	}
}

func (a *Arena) SetSource2DPositions(src []geom.Vec3) {
	for i := 0; i < SourceCount && i < len(src); i++ {
		a.joints[i].Pos2D = src[i]
	}
}

// ClearLocks resets every Lock flag. Locks are recomputed per frame.
func (a *Arena) ClearLocks() {
	for i := range a.joints {
		a.joints[i].Lock = false
	}
}

// SetEnabled marks id as driven or not.
func (a *Arena) SetEnabled(id JointID, enabled bool) { a.joints[id].Enabled = enabled }
