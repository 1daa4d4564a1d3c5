package l5retarget

import (
	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l3synthesis"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/geom"
)

// frame is a look-at pair. The bone's local +Z follows dir and its +Y
// leans toward up.
type frame struct {
	dir, up geom.Vec3
}

func (f frame) rotation() geom.Quat { return geom.LookRotation(f.dir, f.up) }

type armSide struct {
	Shoulder, Upper, Fore, Hand, Thumb, Middle l1joints.JointID
}

var (
	arms = [2]armSide{
		{l1joints.RightShoulder, l1joints.RightUpperArm, l1joints.RightForearm, l1joints.RightHand, l1joints.RightThumb, l1joints.RightMiddle},
		{l1joints.LeftShoulder, l1joints.LeftUpperArm, l1joints.LeftForearm, l1joints.LeftHand, l1joints.LeftThumb, l1joints.LeftMiddle},
	}
	legs = [2]l4reliability.Leg{l4reliability.RightLeg, l4reliability.LeftLeg}

	spineChain = []l1joints.JointID{l1joints.Spine, l1joints.Chest, l1joints.Neck, l1joints.Head}
)

// DriveOrder lists every joint that can own a bone rotation, parents
// before children. Rotations are written in this order so a child's
// parent is already final when the child is set.
var DriveOrder = []l1joints.JointID{
	l1joints.Hip,
	l1joints.Spine, l1joints.Chest, l1joints.Neck, l1joints.Head,
	l1joints.RightShoulder, l1joints.RightUpperArm, l1joints.RightForearm, l1joints.RightHand,
	l1joints.LeftShoulder, l1joints.LeftUpperArm, l1joints.LeftForearm, l1joints.LeftHand,
	l1joints.RightThigh, l1joints.RightShin, l1joints.RightFoot,
	l1joints.LeftThigh, l1joints.LeftShin, l1joints.LeftFoot,
}

// frameSet is every look-at frame for one arena state.
type frameSet struct {
	frames [l1joints.Count]frame
	bend   [2]geom.Vec3 // world-space arm bend actually used, right then left
}

// buildFrames evaluates every frame rule. bendCache holds the world-space
// cached arm bend for each side.
func buildFrames(a *l1joints.Arena, ax l3synthesis.BodyAxes, cfg Config, bendCache [2]geom.Vec3) frameSet {
	var fs frameSet
	pos := a.Pos
	topo := a.Topology()

	fs.frames[l1joints.Hip] = frame{ax.ForwardLower, ax.Down.Mul(-1)}

	chainUp := map[l1joints.JointID]geom.Vec3{
		l1joints.Spine: ax.ForwardLower,
		l1joints.Chest: ax.ForwardUpper,
		l1joints.Neck:  ax.ForwardUpper,
	}
	for id, up := range chainUp {
		fs.frames[id] = frame{pos(id).Sub(pos(topo.Child(id))), up}
	}
	fs.frames[l1joints.Head] = headFrame(a, ax, cfg.HeadGazeToleranceDeg)

	for side, arm := range arms {
		fs.frames[arm.Shoulder] = frame{pos(arm.Shoulder).Sub(pos(arm.Upper)), ax.ForwardUpper}

		bend := armBend(a, arm, bendCache[side], cfg)
		fs.bend[side] = bend
		fs.frames[arm.Upper] = frame{pos(arm.Upper).Sub(pos(arm.Fore)), bend}
		fs.frames[arm.Fore] = frame{pos(arm.Fore).Sub(pos(arm.Hand)), bend}

		thumb, middle := pos(arm.Thumb), pos(arm.Middle)
		fs.frames[arm.Hand] = frame{thumb.Sub(middle), geom.TriangleNormal(pos(arm.Hand), middle, thumb)}
	}

	for _, leg := range legs {
		fs.frames[leg.Thigh] = thighFrame(a, leg, ax)
		fs.frames[leg.Shin] = shinFrame(a, leg, ax, cfg)
		fs.frames[leg.Foot] = frame{pos(leg.Foot).Sub(pos(leg.Toe)), pos(leg.Shin).Sub(pos(leg.Foot))}
	}
	return fs
}

// headFrame faces along the nose when it points within tolerance of the
// upper-body forward axis, otherwise along that axis.
func headFrame(a *l1joints.Arena, ax l3synthesis.BodyAxes, toleranceDeg float64) frame {
	head := a.Pos(l1joints.Head)
	face := a.Pos(l1joints.Nose).Sub(head)
	if geom.IsZero(face) || geom.AngleDeg(face, ax.ForwardUpper) > toleranceDeg {
		face = ax.ForwardUpper
	}
	return frame{face, head.Sub(a.Pos(l1joints.Neck))}
}

// restArmBend is the bend normal a forward-bending elbow would produce
// for the current upper arm direction.
func restArmBend(a *l1joints.Arena, arm armSide, ax l3synthesis.BodyAxes) geom.Vec3 {
	upper := a.Pos(arm.Upper).Sub(a.Pos(arm.Fore))
	return geom.NormalizeOr(ax.ForwardUpper.Cross(upper), geom.Orthogonal(upper))
}

// armBend chooses the arm's up vector. A clearly bent elbow defines its
// own plane; as the arm straightens that plane becomes noise, so the
// cached direction takes over. The measured normal is flipped to agree
// with the cache, which keeps the elbow from hyperextending.
func armBend(a *l1joints.Arena, arm armSide, cached geom.Vec3, cfg Config) geom.Vec3 {
	u, f, h := a.Pos(arm.Upper), a.Pos(arm.Fore), a.Pos(arm.Hand)
	measured := geom.TriangleNormal(u, f, h)
	if geom.IsZero(measured) {
		return cached
	}
	if measured.Dot(cached) < 0 {
		measured = measured.Mul(-1)
	}
	opening := geom.AngleDeg(u.Sub(f), h.Sub(f))
	t := geom.Ramp(opening, cfg.ArmBlendStartDeg, cfg.ArmBlendFullDeg)
	return geom.NormalizeOr(geom.Lerp(measured, cached, t), cached)
}

// thighFrame takes its up vector from the knee's offset off the hip's
// lateral line, oriented to agree with the lower-body forward axis.
func thighFrame(a *l1joints.Arena, leg l4reliability.Leg, ax l3synthesis.BodyAxes) frame {
	thigh, shin := a.Pos(leg.Thigh), a.Pos(leg.Shin)
	lateral := geom.Normalize(ax.RightLower)
	onLine := thigh.Add(lateral.Mul(shin.Sub(thigh).Dot(lateral)))
	up := lateral.Cross(shin.Sub(onLine))
	if up.Dot(ax.ForwardLower) < 0 {
		up = up.Mul(-1)
	}
	if geom.IsZero(up) {
		up = ax.ForwardLower
	}
	return frame{thigh.Sub(shin), up}
}

// shinFrame uses the body forward axis while the knee is nearly straight
// and the thigh-to-foot direction once it is clearly bent.
func shinFrame(a *l1joints.Arena, leg l4reliability.Leg, ax l3synthesis.BodyAxes, cfg Config) frame {
	thigh, shin, foot := a.Pos(leg.Thigh), a.Pos(leg.Shin), a.Pos(leg.Foot)
	bend := 180 - geom.AngleDeg(thigh.Sub(shin), foot.Sub(shin))
	t := geom.Ramp(bend, cfg.ShinBlendStartDeg, cfg.ShinBlendFullDeg)
	fwd := geom.Normalize(ax.ForwardLower)
	up := geom.NormalizeOr(geom.Lerp(fwd, geom.Normalize(foot.Sub(thigh)), t), fwd)
	return frame{shin.Sub(foot), up}
}
