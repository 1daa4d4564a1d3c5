package l5retarget

import (
	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l2smoothing"
	"github.com/banshee-data/posetrack/internal/avatar/l3synthesis"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/geom"
)

// PoseGate reports whether a body frame is plausible: the upper and lower
// right axes must agree to within maxRightDeg and the up and down axes
// must be more than minUpDownDeg apart. Both bounds are strict.
func PoseGate(rightAngleDeg, upDownAngleDeg, maxRightDeg, minUpDownDeg float64) bool {
	return rightAngleDeg < maxRightDeg && upDownAngleDeg > minUpDownDeg
}

// Result summarises one Retarget call.
type Result struct {
	PoseValid      bool
	RightAngleDeg  float64
	UpDownAngleDeg float64
	RootPosition   geom.Vec3
	RootRotation   geom.Quat
	Depth          float64
	Tall           float64
	Blended        []l1joints.JointID // locked joints eased toward rest this frame
}

// Retargeter drives a skeleton from synthesized arenas.
type Retargeter struct {
	cfg    Config
	cal    *Calibration
	sk     Skeleton
	height *BodyHeightEstimate
	depth  *l2smoothing.Kalman1D

	bendLocal [2]geom.Vec3 // cached arm bend in the upper-body frame
}

// NewRetargeter creates a retargeter bound to a calibrated skeleton.
func NewRetargeter(sk Skeleton, cal *Calibration, cfg Config) *Retargeter {
	r := &Retargeter{cfg: cfg, cal: cal, sk: sk}
	r.Reset()
	return r
}

// Reset returns every piece of cross-frame state to its calibrated value.
func (r *Retargeter) Reset() {
	r.bendLocal = r.cal.RestBendLocal
	r.height = NewBodyHeightEstimate(r.cal.RestSegments, r.cfg.HeightSmoothing)
	r.depth = l2smoothing.NewKalman1D(r.cfg.DepthKalman)
}

// Calibration returns the calibration in use.
func (r *Retargeter) Calibration() *Calibration { return r.cal }

// Height exposes the body height estimate.
func (r *Retargeter) Height() *BodyHeightEstimate { return r.height }

// Retarget writes bone rotations for one frame. The root is always
// updated; when the body frame fails the plausibility gate every other
// bone keeps its previous rotation.
func (r *Retargeter) Retarget(a *l1joints.Arena, syn l3synthesis.Result) Result {
	ax := syn.Axes
	res := Result{
		RightAngleDeg:  geom.AngleDeg(ax.RightUpper, ax.RightLower),
		UpDownAngleDeg: geom.AngleDeg(ax.Up, ax.Down),
	}

	if rec := r.cal.Records[l1joints.Hip]; rec.Valid && !ax.Degenerate() {
		res.RootRotation = geom.LookRotation(ax.ForwardLower, ax.Down.Mul(-1)).Mul(rec.InverseRotation).Normalize()
		r.sk.SetWorldRotation(l1joints.BoneHips, res.RootRotation)
	} else {
		res.RootRotation = worldRotation(r.sk, l1joints.BoneHips)
	}
	res.RootPosition, res.Depth, res.Tall = r.rootPosition(a, syn.PoorLowerBody)
	r.sk.SetWorldPosition(l1joints.BoneHips, res.RootPosition)

	res.PoseValid = !ax.Degenerate() &&
		PoseGate(res.RightAngleDeg, res.UpDownAngleDeg, r.cfg.GateMaxRightAngleDeg, r.cfg.GateMinUpDownAngleDeg)
	if !res.PoseValid {
		return res
	}

	upper := ax.UpperBodyFrame()
	var bendWorld [2]geom.Vec3
	for side := range arms {
		bendWorld[side] = upper.Rotate(r.bendLocal[side])
	}
	fs := buildFrames(a, ax, r.cfg, bendWorld)

	for _, id := range spineChain {
		r.drive(a, id, fs, false, &res)
	}

	inverseUpper := upper.Inverse()
	for side, arm := range arms {
		r.drive(a, arm.Shoulder, fs, false, &res)
		r.drive(a, arm.Upper, fs, false, &res)
		r.drive(a, arm.Fore, fs, false, &res)
		r.drive(a, arm.Hand, fs, false, &res)
		if !a.At(arm.Upper).Lock {
			r.bendLocal[side] = inverseUpper.Rotate(fs.bend[side])
		}
	}

	for _, leg := range legs {
		r.legRotate(a, leg, fs, syn.PoorLowerBody, &res)
	}
	return res
}

// legRotate drives thigh, shin and foot in order. Once a joint is locked
// every joint below it eases toward rest as well.
func (r *Retargeter) legRotate(a *l1joints.Arena, leg l4reliability.Leg, fs frameSet, forceRest bool, res *Result) {
	for _, id := range [...]l1joints.JointID{leg.Thigh, leg.Shin, leg.Foot} {
		forceRest = forceRest || a.At(id).Lock
		r.drive(a, id, fs, forceRest, res)
	}
}

// drive sets one bone from its frame, or eases it toward rest when the
// joint is locked or forceRest is set.
func (r *Retargeter) drive(a *l1joints.Arena, id l1joints.JointID, fs frameSet, forceRest bool, res *Result) {
	rec := r.cal.Records[id]
	if !a.Enabled(id) || !rec.Valid {
		return
	}
	if forceRest || a.At(id).Lock {
		r.blendToRest(id)
		res.Blended = append(res.Blended, id)
		return
	}
	q := fs.frames[id].rotation().Mul(rec.InverseRotation).Normalize()
	r.sk.SetWorldRotation(r.cal.Topology.Bone(id), q)
}

// blendToRest moves a bone a fraction of the way toward its rest rotation
// under the current parent.
func (r *Retargeter) blendToRest(id l1joints.JointID) {
	bone := r.cal.Topology.Bone(id)
	rec := r.cal.Records[id]
	target := rec.InitRotation
	if parent, ok := r.sk.Parent(bone); ok {
		target = worldRotation(r.sk, parent).Mul(rec.InitLocalRotation).Normalize()
	}
	cur := worldRotation(r.sk, bone)
	r.sk.SetWorldRotation(bone, geom.Slerp(cur, target, r.cfg.LockBlendRate))
}

// rootPosition maps the source hip onto the rig and adds depth estimated
// from apparent body height. With the lower body out of frame the height
// is unreliable and apparent head size is used instead.
func (r *Retargeter) rootPosition(a *l1joints.Arena, poorLowerBody bool) (pos geom.Vec3, depth, tall float64) {
	offset := a.Pos(l1joints.Hip).Sub(r.cfg.SourceOrigin)
	s := r.cfg.RootSensitivity
	pos = r.cal.InitRootPosition.Add(geom.Vec3{offset[0] * s[0], offset[1] * s[1], offset[2] * s[2]})

	r.height.Update(MeasureSegments(a))
	tall = r.height.Tall()
	if !r.cfg.DepthEnabled || r.cal.CenterTall <= 0 {
		return pos, 0, tall
	}
	// Taller than the reference means closer to the camera, which sits on +Z.
	raw := (tall - r.cal.CenterTall) / r.cal.CenterTall * r.cfg.DepthScale
	if head := r.height.HeadSize(); poorLowerBody && r.cal.CenterHeadSize > 0 && head > 0 {
		raw = (head - r.cal.CenterHeadSize) / r.cal.CenterHeadSize * r.cfg.DepthScale
	}
	depth = r.depth.CorrectAndPredict(raw, 0)
	pos[2] += depth
	return pos, depth, tall
}
