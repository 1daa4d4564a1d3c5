package l2smoothing

import "github.com/banshee-data/posetrack/internal/geom"

// Low-pass order limits.
const (
	MinLowPassOrder = 1
	MaxLowPassOrder = 10
)

// LowPass is a cascade of exponential smoothing stages. Stage 0 holds the
// raw input; each later stage blends its previous value with the stage
// before it: stage[i] = stage[i]*Smooth + stage[i-1]*(1-Smooth). The
// output is the last stage.
type LowPass struct {
	smooth float64
	stages []geom.Vec3
	seeded bool
}

// NewLowPass builds a cascade of order stages. order is clamped to
// [1, 10] and smooth to [0, 1].
func NewLowPass(order int, smooth float64) *LowPass {
	if order < MinLowPassOrder {
		order = MinLowPassOrder
	}
	if order > MaxLowPassOrder {
		order = MaxLowPassOrder
	}
	return &LowPass{
		smooth: geom.Clamp(smooth, 0, 1),
		stages: make([]geom.Vec3, order+1),
	}
}

// Order returns the number of smoothing stages.
func (l *LowPass) Order() int { return len(l.stages) - 1 }

// Apply implements Filter. dt is ignored; the cascade is per sample.
func (l *LowPass) Apply(pos geom.Vec3, _ float64) geom.Vec3 {
	if !l.seeded {
		for i := range l.stages {
			l.stages[i] = pos
		}
		l.seeded = true
		return pos
	}
	l.stages[0] = pos
	for i := 1; i < len(l.stages); i++ {
		l.stages[i] = l.stages[i].Mul(l.smooth).Add(l.stages[i-1].Mul(1 - l.smooth))
	}
	return l.stages[len(l.stages)-1]
}

// Reset implements Filter.
func (l *LowPass) Reset() {
	l.seeded = false
}
