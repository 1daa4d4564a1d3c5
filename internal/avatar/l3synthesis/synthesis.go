package l3synthesis

import (
	"math"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/geom"
)

// Config holds the synthesis ratios and poor-lower-body thresholds.
type Config struct {
	NeckLiftRatio       float64 // neck lift above the shoulder line, as a fraction of shoulder width
	ShoulderSpreadRatio float64 // shoulder offset from the neck, as a fraction of half shoulder width

	PoorLowerBodyEnabled    bool
	ShoulderHeightThreshold float64 // both upper arms above this Y
	ThighHeightThreshold    float64 // and both thighs below this Y
}

// DefaultConfig returns synthesis configuration loaded from the
// canonical tuning defaults file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		NeckLiftRatio:           cfg.GetNeckLiftRatio(),
		ShoulderSpreadRatio:     cfg.GetShoulderSpreadRatio(),
		PoorLowerBodyEnabled:    cfg.GetPoorLowerBodyEnabled(),
		ShoulderHeightThreshold: cfg.GetShoulderHeightThreshold(),
		ThighHeightThreshold:    cfg.GetThighHeightThreshold(),
	}
}

// Result is the per-frame output of Synthesize.
type Result struct {
	Axes          BodyAxes
	PoorLowerBody bool
}

// Synthesize fills every synthesized joint of a from the source joints,
// in dependency order, then computes the body axes. Source joint
// visibility must already be set.
func Synthesize(a *l1joints.Arena, cfg Config) Result {
	pos := a.Pos

	pelvis := geom.Mid(pos(l1joints.RightThigh), pos(l1joints.LeftThigh))
	a.SetPos(l1joints.Pelvis, pelvis)
	derive(a, l1joints.Pelvis, l1joints.RightThigh, l1joints.LeftThigh)

	hip := geom.Mid(pos(l1joints.AbdomenUpper), pelvis)
	a.SetPos(l1joints.Hip, hip)
	derive(a, l1joints.Hip, l1joints.AbdomenUpper, l1joints.RightThigh, l1joints.LeftThigh)

	spine := pos(l1joints.AbdomenUpper)
	a.SetPos(l1joints.Spine, spine)
	derive(a, l1joints.Spine, l1joints.AbdomenUpper)

	shouldersEnabled := a.Enabled(l1joints.RightShoulder) && a.Enabled(l1joints.LeftShoulder)

	rua, lua := pos(l1joints.RightUpperArm), pos(l1joints.LeftUpperArm)
	neck := geom.Mid(rua, lua)
	if shouldersEnabled {
		// Lift the neck off the shoulder line along the upper-body up
		// axis implied by the shoulder triangle.
		fwd := geom.TriangleNormal(hip, rua, lua)
		across := geom.Normalize(rua.Sub(lua))
		up := geom.Normalize(fwd.Cross(across))
		neck = neck.Add(up.Mul(cfg.NeckLiftRatio * rua.Sub(lua).Len()))
	}
	a.SetPos(l1joints.Neck, neck)
	derive(a, l1joints.Neck, l1joints.RightUpperArm, l1joints.LeftUpperArm)

	earMid := geom.Mid(pos(l1joints.RightEar), pos(l1joints.LeftEar))
	head := earMid
	if shouldersEnabled {
		// Project the nose onto the neck-to-ears axis.
		axis := geom.Normalize(earMid.Sub(neck))
		if !geom.IsZero(axis) {
			head = neck.Add(axis.Mul(axis.Dot(pos(l1joints.Nose).Sub(neck))))
		}
	}
	a.SetPos(l1joints.Head, head)
	derive(a, l1joints.Head, l1joints.RightEye, l1joints.LeftEye)

	a.SetPos(l1joints.Chest, spine.Add(neck.Sub(spine).Mul(0.5)))
	derive(a, l1joints.Chest, l1joints.Spine, l1joints.Neck)

	axes := ComputeAxes(a)

	rightShoulder, leftShoulder := neck, neck
	if shouldersEnabled {
		lateral := geom.Normalize(axes.Up.Cross(geom.Normalize(axes.ForwardUpper.Add(axes.ForwardLower))))
		offset := lateral.Mul(cfg.ShoulderSpreadRatio * rua.Sub(lua).Len() / 2)
		rightShoulder = neck.Add(offset)
		leftShoulder = neck.Sub(offset)
	}
	a.SetPos(l1joints.RightShoulder, rightShoulder)
	a.SetPos(l1joints.LeftShoulder, leftShoulder)
	derive(a, l1joints.RightShoulder, l1joints.Neck, l1joints.RightUpperArm)
	derive(a, l1joints.LeftShoulder, l1joints.Neck, l1joints.LeftUpperArm)

	return Result{
		Axes:          axes,
		PoorLowerBody: poorLowerBody(a, cfg),
	}
}

// derive sets visibility and score of a synthesized joint from its
// inputs: visible only when every input is, scored by the weakest.
func derive(a *l1joints.Arena, id l1joints.JointID, from ...l1joints.JointID) {
	j := a.At(id)
	j.Visible = true
	j.Score3D = math.Inf(1)
	for _, f := range from {
		src := a.At(f)
		j.Visible = j.Visible && src.Visible
		j.Score3D = math.Min(j.Score3D, src.Score3D)
	}
	if len(from) == 0 {
		j.Score3D = 0
	}
}

func poorLowerBody(a *l1joints.Arena, cfg Config) bool {
	if !cfg.PoorLowerBodyEnabled {
		return false
	}
	armsHigh := a.Pos(l1joints.RightUpperArm).Y() > cfg.ShoulderHeightThreshold &&
		a.Pos(l1joints.LeftUpperArm).Y() > cfg.ShoulderHeightThreshold
	thighsLow := a.Pos(l1joints.RightThigh).Y() < cfg.ThighHeightThreshold &&
		a.Pos(l1joints.LeftThigh).Y() < cfg.ThighHeightThreshold
	return armsHigh && thighsLow
}
