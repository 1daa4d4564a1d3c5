package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LookRotation builds the rotation whose local +Z axis points along
// forward and whose local +Y axis lies in the plane of forward and up.
// When up is parallel to forward an arbitrary perpendicular is used.
func LookRotation(forward, up Vec3) Quat {
	f := Normalize(forward)
	if IsZero(f) {
		return Identity()
	}
	r := Normalize(up.Cross(f))
	if IsZero(r) {
		r = Orthogonal(f)
	}
	u := f.Cross(r)
	m := mgl64.Mat3FromCols(r, u, f)
	return mgl64.Mat4ToQuat(m.Mat4()).Normalize()
}

// AxisAngle returns a rotation of angle radians about axis. A zero axis
// yields the identity.
func AxisAngle(axis Vec3, angle float64) Quat {
	a := Normalize(axis)
	if IsZero(a) {
		return Identity()
	}
	return mgl64.QuatRotate(angle, a)
}

// FromTo returns the shortest rotation carrying direction a onto b.
func FromTo(a, b Vec3) Quat {
	na, nb := Normalize(a), Normalize(b)
	if IsZero(na) || IsZero(nb) {
		return Identity()
	}
	d := na.Dot(nb)
	if d > 1-1e-12 {
		return Identity()
	}
	if d < -1+1e-12 {
		return mgl64.QuatRotate(math.Pi, Orthogonal(na))
	}
	return mgl64.QuatBetweenVectors(na, nb).Normalize()
}

// Slerp interpolates along the shorter arc between a and b.
// mgl64.QuatSlerp does not flip hemispheres on its own.
func Slerp(a, b Quat, t float64) Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	if t <= 0 {
		return a.Normalize()
	}
	if t >= 1 {
		return b.Normalize()
	}
	return mgl64.QuatSlerp(a, b, t).Normalize()
}

// QuatAngleDeg returns the angle in degrees of the rotation taking a to b.
func QuatAngleDeg(a, b Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	return mgl64.RadToDeg(2 * math.Acos(Clamp(d, -1, 1)))
}

// Rotate applies q to v.
func Rotate(q Quat, v Vec3) Vec3 { return q.Rotate(v) }
