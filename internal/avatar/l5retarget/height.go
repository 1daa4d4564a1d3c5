package l5retarget

import (
	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
)

// Segments are the body lengths that make up apparent height.
type Segments struct {
	Head        float64 // ear to ear
	HeadNeck    float64
	NeckSpine   float64
	SpineCrotch float64
	Thigh       float64 // mean of both sides
	Shin        float64
}

// MeasureSegments reads segment lengths from a synthesized arena.
func MeasureSegments(a *l1joints.Arena) Segments {
	d := func(x, y l1joints.JointID) float64 { return a.Pos(x).Sub(a.Pos(y)).Len() }
	return Segments{
		Head:        d(l1joints.LeftEar, l1joints.RightEar),
		HeadNeck:    d(l1joints.Head, l1joints.Neck),
		NeckSpine:   d(l1joints.Neck, l1joints.Spine),
		SpineCrotch: d(l1joints.Spine, l1joints.Pelvis),
		Thigh:       (d(l1joints.RightThigh, l1joints.RightShin) + d(l1joints.LeftThigh, l1joints.LeftShin)) / 2,
		Shin:        (d(l1joints.RightShin, l1joints.RightFoot) + d(l1joints.LeftShin, l1joints.LeftFoot)) / 2,
	}
}

// Tall sums the vertical chain from head to ankle.
func (s Segments) Tall() float64 {
	return s.HeadNeck + s.NeckSpine + s.SpineCrotch + s.Thigh + s.Shin
}

// ScaledTo returns s scaled so Tall equals tall.
func (s Segments) ScaledTo(tall float64) Segments {
	cur := s.Tall()
	if cur < geom.Epsilon {
		return s
	}
	k := tall / cur
	return Segments{
		Head:        s.Head * k,
		HeadNeck:    s.HeadNeck * k,
		NeckSpine:   s.NeckSpine * k,
		SpineCrotch: s.SpineCrotch * k,
		Thigh:       s.Thigh * k,
		Shin:        s.Shin * k,
	}
}

// BodyHeightEstimate tracks segment lengths with exponential smoothing.
// Each segment is updated on its own so a missing measurement does not
// drag the others.
type BodyHeightEstimate struct {
	seg   Segments
	alpha float64
}

// NewBodyHeightEstimate seeds the estimate. alpha is the weight given to
// each new measurement.
func NewBodyHeightEstimate(seed Segments, alpha float64) *BodyHeightEstimate {
	return &BodyHeightEstimate{seg: seed, alpha: geom.Clamp(alpha, 0, 1)}
}

// Update folds in a measurement. Non-positive lengths are skipped.
func (b *BodyHeightEstimate) Update(m Segments) {
	blend := func(cur *float64, v float64) {
		if v > 0 {
			*cur = b.alpha*v + (1-b.alpha)*(*cur)
		}
	}
	blend(&b.seg.Head, m.Head)
	blend(&b.seg.HeadNeck, m.HeadNeck)
	blend(&b.seg.NeckSpine, m.NeckSpine)
	blend(&b.seg.SpineCrotch, m.SpineCrotch)
	blend(&b.seg.Thigh, m.Thigh)
	blend(&b.seg.Shin, m.Shin)
}

// Segments returns the current estimate.
func (b *BodyHeightEstimate) Segments() Segments { return b.seg }

// Tall returns the current apparent height.
func (b *BodyHeightEstimate) Tall() float64 { return b.seg.Tall() }

// HeadSize returns the current apparent head width.
func (b *BodyHeightEstimate) HeadSize() float64 { return b.seg.Head }
