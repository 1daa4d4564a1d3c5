package l5retarget

import (
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l3synthesis"
	"github.com/banshee-data/posetrack/internal/geom"
)

// CalibrationRecord holds the rest-pose rotations of one driven joint.
type CalibrationRecord struct {
	InitRotation      geom.Quat // world rotation at rest
	InitLocalRotation geom.Quat // rest rotation relative to the parent bone
	Inverse           geom.Quat // inverse of the rest look-at frame
	InverseRotation   geom.Quat // Inverse composed with InitRotation
	Valid             bool
}

// Calibration is the immutable result of calibrating a skeleton.
type Calibration struct {
	Topology *l1joints.Topology
	Records  [l1joints.Count]CalibrationRecord
	Enabled  [l1joints.Count]bool

	// RestKeypoints are the source keypoints that reproduce the rest pose.
	RestKeypoints [l1joints.SourceCount]geom.Vec3
	RestAxes      l3synthesis.BodyAxes
	// RestBendLocal is each arm's initial bend direction in the
	// upper-body frame, right then left.
	RestBendLocal [2]geom.Vec3

	InitRootPosition geom.Vec3
	Scale            float64
	CenterTall       float64
	CenterHeadSize   float64
	RestSegments     Segments // rest proportions scaled to CenterTall
}

// CalibrateOptions carries everything calibration shares with runtime.
type CalibrateOptions struct {
	Topology  *l1joints.Topology
	Synthesis l3synthesis.Config
	Retarget  Config
}

// Calibrate measures sk, which must be posed at rest, and returns the
// per-joint calibration. Mandatory bones must exist; optional bones that
// are missing disable their joint and any joint that requires them.
func Calibrate(sk Skeleton, opts CalibrateOptions) (*Calibration, error) {
	if sk == nil || !sk.IsHumanoid() {
		return nil, &CalibrationError{Err: ErrNotHumanoid}
	}
	for _, b := range l1joints.MandatoryBones {
		if !sk.HasBone(b) {
			return nil, &CalibrationError{Bone: b, Err: ErrMissingBone}
		}
	}
	topo := opts.Topology
	if topo == nil {
		topo = l1joints.DefaultTopology()
	}
	if err := topo.Validate(); err != nil {
		return nil, &CalibrationError{Err: err}
	}

	cal := &Calibration{Topology: topo}
	for i := range topo.Specs {
		cal.Enabled[i] = jointEnabled(sk, topo, l1joints.JointID(i))
	}

	kps, err := restKeypoints(sk, topo)
	if err != nil {
		return nil, err
	}
	cal.RestKeypoints = kps

	arena, syn := cal.restArena(opts.Synthesis)
	if syn.Axes.Degenerate() {
		return nil, &CalibrationError{Err: ErrDegeneratePose}
	}
	cal.RestAxes = syn.Axes

	upper := syn.Axes.UpperBodyFrame().Inverse()
	var bendWorld [2]geom.Vec3
	for side, arm := range arms {
		bendWorld[side] = restArmBend(arena, arm, syn.Axes)
		cal.RestBendLocal[side] = upper.Rotate(bendWorld[side])
	}
	fs := buildFrames(arena, syn.Axes, opts.Retarget, bendWorld)

	for _, id := range DriveOrder {
		if !cal.Enabled[id] {
			continue
		}
		bone := topo.Bone(id)
		_, rot, err := readPose(sk, bone)
		if err != nil {
			return nil, err
		}
		local, err := readRestLocal(sk, bone)
		if err != nil {
			return nil, err
		}
		inv := fs.frames[id].rotation().Inverse()
		cal.Records[id] = CalibrationRecord{
			InitRotation:      rot,
			InitLocalRotation: local,
			Inverse:           inv,
			InverseRotation:   inv.Mul(rot).Normalize(),
			Valid:             true,
		}
	}

	root, _, err := readPose(sk, l1joints.BoneHips)
	if err != nil {
		return nil, err
	}
	cal.InitRootPosition = root

	cc := opts.Retarget.Calibration
	cal.Scale = 1
	if cc.HypotheticalCameraDistance > 0 {
		cal.Scale = cc.ReferenceDistance / cc.HypotheticalCameraDistance
	}
	cal.CenterTall = cc.ReferenceTall * cal.Scale
	cal.CenterHeadSize = cc.ReferenceHeadSize * cal.Scale
	cal.RestSegments = MeasureSegments(arena).ScaledTo(cal.CenterTall)
	return cal, nil
}

// jointEnabled reports whether id's bone and every bone it requires exist.
func jointEnabled(sk Skeleton, topo *l1joints.Topology, id l1joints.JointID) bool {
	bone := topo.Bone(id)
	if bone == l1joints.NoBone || !sk.HasBone(bone) {
		return false
	}
	for _, r := range topo.Spec(id).Requires {
		rb := topo.Bone(r)
		if rb != l1joints.NoBone && !sk.HasBone(rb) {
			return false
		}
	}
	return true
}

// Face landmark placement relative to the head bone, as fractions of the
// neck-to-head length.
const (
	noseForward  = 0.5
	noseUp       = 0.3
	eyeLateral   = 0.2
	eyeForward   = 0.4
	eyeUp        = 0.5
	earLateral   = 0.45
	earUp        = 0.3
	thumbReach   = 0.15
	middleReach  = 0.35
	toeReachFrac = 0.3
)

// restKeypoints derives source keypoints from the rest pose. Bone-bound
// joints read their bone; face landmarks and missing optional bones are
// placed from the head and limb geometry.
func restKeypoints(sk Skeleton, topo *l1joints.Topology) ([l1joints.SourceCount]geom.Vec3, error) {
	var kp [l1joints.SourceCount]geom.Vec3
	present := make([]bool, l1joints.SourceCount)
	for i := 0; i < l1joints.SourceCount; i++ {
		b := topo.Bone(l1joints.JointID(i))
		if b == l1joints.NoBone || !sk.HasBone(b) {
			continue
		}
		p, _, err := readPose(sk, b)
		if err != nil {
			return kp, err
		}
		kp[i] = p
		present[i] = true
	}

	read := func(b l1joints.HumanBone) (geom.Vec3, error) {
		p, _, err := readPose(sk, b)
		return p, err
	}
	hips, err := read(l1joints.BoneHips)
	if err != nil {
		return kp, err
	}
	spine, err := read(l1joints.BoneSpine)
	if err != nil {
		return kp, err
	}
	head, err := read(l1joints.BoneHead)
	if err != nil {
		return kp, err
	}
	neck := geom.Mid(kp[l1joints.RightUpperArm], kp[l1joints.LeftUpperArm])
	if sk.HasBone(l1joints.BoneNeck) {
		if neck, err = read(l1joints.BoneNeck); err != nil {
			return kp, err
		}
	}

	lateral := geom.NormalizeOr(kp[l1joints.RightThigh].Sub(kp[l1joints.LeftThigh]), geom.Right)
	up := geom.NormalizeOr(head.Sub(hips), geom.Up)
	fwd := geom.NormalizeOr(lateral.Cross(up), geom.Forward)

	headLen := head.Sub(neck).Len()
	if headLen < geom.Epsilon {
		headLen = head.Sub(spine).Len() * 0.25
	}
	at := func(side, forward, upward float64) geom.Vec3 {
		return head.Add(lateral.Mul(side * headLen)).Add(fwd.Mul(forward * headLen)).Add(up.Mul(upward * headLen))
	}
	kp[l1joints.Nose] = at(0, noseForward, noseUp)
	kp[l1joints.RightEye] = at(eyeLateral, eyeForward, eyeUp)
	kp[l1joints.LeftEye] = at(-eyeLateral, eyeForward, eyeUp)
	kp[l1joints.RightEar] = at(earLateral, 0, earUp)
	kp[l1joints.LeftEar] = at(-earLateral, 0, earUp)
	kp[l1joints.AbdomenUpper] = spine

	for _, arm := range arms {
		reach := kp[arm.Hand].Sub(kp[arm.Fore])
		if !present[arm.Thumb] {
			kp[arm.Thumb] = kp[arm.Hand].Add(reach.Mul(thumbReach)).Add(fwd.Mul(reach.Len() * thumbReach))
		}
		if !present[arm.Middle] {
			kp[arm.Middle] = kp[arm.Hand].Add(reach.Mul(middleReach))
		}
	}
	for _, leg := range legs {
		if !present[leg.Toe] {
			shin := kp[leg.Shin].Sub(kp[leg.Foot]).Len()
			kp[leg.Toe] = kp[leg.Foot].Add(fwd.Mul(shin * toeReachFrac))
		}
	}
	return kp, nil
}

// restArena loads the rest keypoints into a fresh arena and synthesizes
// it exactly as the runtime path does.
func (c *Calibration) restArena(syn l3synthesis.Config) (*l1joints.Arena, l3synthesis.Result) {
	a := l1joints.NewArena(c.Topology)
	for i, on := range c.Enabled {
		a.SetEnabled(l1joints.JointID(i), on)
	}
	for i, p := range c.RestKeypoints {
		j := a.At(l1joints.JointID(i))
		j.Pos3D = p
		j.Score3D = 1
		j.Visible = true
	}
	return a, l3synthesis.Synthesize(a, syn)
}

// RestFrame returns a frame whose keypoints reproduce the rest pose, all
// fully confident.
func (c *Calibration) RestFrame(ts time.Time) l1joints.Frame {
	f := l1joints.Frame{Timestamp: ts, Keypoints: make([]l1joints.Keypoint, l1joints.SourceCount)}
	for i, p := range c.RestKeypoints {
		f.Keypoints[i] = l1joints.Keypoint{Pos3D: p, Score: 1}
	}
	return f
}

// ApplyTPose writes the rest rotation to every driven bone and moves the
// root back to its rest position.
func (c *Calibration) ApplyTPose(sk Skeleton) {
	for _, id := range DriveOrder {
		rec := c.Records[id]
		if !c.Enabled[id] || !rec.Valid {
			continue
		}
		sk.SetWorldRotation(c.Topology.Bone(id), rec.InitRotation)
	}
	sk.SetWorldPosition(l1joints.BoneHips, c.InitRootPosition)
}

// EnabledJoints lists every joint bound to an existing bone.
func (c *Calibration) EnabledJoints() []l1joints.JointID {
	var out []l1joints.JointID
	for i, on := range c.Enabled {
		if on {
			out = append(out, l1joints.JointID(i))
		}
	}
	return out
}
