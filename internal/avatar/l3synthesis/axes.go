package l3synthesis

import (
	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
)

// BodyAxes is the body frame computed from hip, shoulders and thighs.
// Up points from spine to neck, Down from spine to pelvis.
type BodyAxes struct {
	ForwardUpper geom.Vec3
	ForwardLower geom.Vec3
	RightUpper   geom.Vec3
	RightLower   geom.Vec3
	Up           geom.Vec3
	Down         geom.Vec3
}

// ComputeAxes derives the body frame from the synthesized hip, spine,
// neck and pelvis together with the upper arms and thighs.
func ComputeAxes(a *l1joints.Arena) BodyAxes {
	hip := a.Pos(l1joints.Hip)
	spine := a.Pos(l1joints.Spine)

	ax := BodyAxes{
		ForwardUpper: geom.TriangleNormal(hip, a.Pos(l1joints.RightUpperArm), a.Pos(l1joints.LeftUpperArm)),
		ForwardLower: geom.TriangleNormal(hip, a.Pos(l1joints.LeftThigh), a.Pos(l1joints.RightThigh)),
		Up:           geom.Normalize(a.Pos(l1joints.Neck).Sub(spine)),
		Down:         geom.Normalize(a.Pos(l1joints.Pelvis).Sub(spine)),
	}
	ax.RightUpper = ax.Up.Cross(ax.ForwardUpper)
	ax.RightLower = ax.Down.Mul(-1).Cross(ax.ForwardLower)
	return ax
}

// UpperBodyFrame is the rotation whose forward is ForwardUpper and whose
// up is Up. Direction caches are stored relative to it.
func (b BodyAxes) UpperBodyFrame() geom.Quat {
	return geom.LookRotation(b.ForwardUpper, b.Up)
}

// Degenerate reports whether any axis collapsed to zero length.
func (b BodyAxes) Degenerate() bool {
	return geom.IsZero(b.ForwardUpper) || geom.IsZero(b.ForwardLower) ||
		geom.IsZero(b.Up) || geom.IsZero(b.Down)
}
