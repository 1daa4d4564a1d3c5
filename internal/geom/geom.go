package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 and Quat alias the mathgl types so callers use one vocabulary.
type (
	Vec3 = mgl64.Vec3
	Quat = mgl64.Quat
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

var (
	Up      = Vec3{0, 1, 0}
	Down    = Vec3{0, -1, 0}
	Forward = Vec3{0, 0, 1}
	Right   = Vec3{1, 0, 0}
)

// Identity returns the identity rotation.
func Identity() Quat { return mgl64.QuatIdent() }

// IsZero reports whether v is shorter than Epsilon.
func IsZero(v Vec3) bool { return v.Len() < Epsilon }

// IsFinite reports whether every component of v is a real number.
func IsFinite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Normalize returns v scaled to unit length, or the zero vector when v is
// degenerate. mgl64.Vec3.Normalize divides by zero on empty input.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// NormalizeOr normalizes v, falling back to fallback when v is degenerate.
func NormalizeOr(v, fallback Vec3) Vec3 {
	n := Normalize(v)
	if IsZero(n) {
		return fallback
	}
	return n
}

// Mid returns the midpoint of a and b.
func Mid(a, b Vec3) Vec3 { return a.Add(b).Mul(0.5) }

// Lerp linearly interpolates between a and b.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// TriangleNormal returns the unit normal of triangle (a, b, c), computed
// as (a-b) x (a-c). Winding matters: swapping b and c flips the result.
func TriangleNormal(a, b, c Vec3) Vec3 {
	return Normalize(a.Sub(b).Cross(a.Sub(c)))
}

// Orthogonal returns some unit vector perpendicular to v.
func Orthogonal(v Vec3) Vec3 {
	n := Normalize(v)
	axis := Right
	if math.Abs(n.Dot(axis)) > 0.9 {
		axis = Up
	}
	return Normalize(axis.Cross(n))
}

// AngleDeg returns the unsigned angle between a and b in degrees.
// Degenerate input yields 0.
func AngleDeg(a, b Vec3) float64 {
	return mgl64.RadToDeg(AngleRad(a, b))
}

// AngleRad returns the unsigned angle between a and b in radians.
func AngleRad(a, b Vec3) float64 {
	na, nb := Normalize(a), Normalize(b)
	if IsZero(na) || IsZero(nb) {
		return 0
	}
	return math.Acos(Clamp(na.Dot(nb), -1, 1))
}

// SignedAngleDeg returns the angle from a to b measured around axis.
func SignedAngleDeg(a, b, axis Vec3) float64 {
	angle := AngleDeg(a, b)
	if a.Cross(b).Dot(axis) < 0 {
		return -angle
	}
	return angle
}

// ProjectOnPlane removes the component of v along the plane normal n.
func ProjectOnPlane(v, n Vec3) Vec3 {
	un := Normalize(n)
	return v.Sub(un.Mul(v.Dot(un)))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Ramp maps v from [start, end] onto [0, 1], clamped.
func Ramp(v, start, end float64) float64 {
	if end <= start {
		if v < start {
			return 0
		}
		return 1
	}
	return Clamp((v-start)/(end-start), 0, 1)
}
