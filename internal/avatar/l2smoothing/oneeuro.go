package l2smoothing

import (
	"math"

	"github.com/banshee-data/posetrack/internal/geom"
)

// OneEuroParams configures the speed-adaptive one-euro filter.
type OneEuroParams struct {
	MinCutoff float64 // Hz
	Beta      float64 // cutoff slope against speed
	DCutoff   float64 // Hz, derivative smoothing
}

type oneEuroAxis struct {
	x, dx float64
}

// OneEuro is a per-axis one-euro filter. When dt is unusable it reuses
// the last good interval, or 1/DefaultRate before any interval is known.
type OneEuro struct {
	params      OneEuroParams
	defaultRate float64
	axes        [3]oneEuroAxis
	lastDt      float64
	seeded      bool
}

// NewOneEuro creates a filter. defaultRate is in Hz.
func NewOneEuro(params OneEuroParams, defaultRate float64) *OneEuro {
	if defaultRate <= 0 {
		defaultRate = 30
	}
	return &OneEuro{params: params, defaultRate: defaultRate}
}

func smoothingFactor(cutoff, dt float64) float64 {
	if cutoff <= 0 {
		return 1
	}
	tau := 1 / (2 * math.Pi * cutoff)
	return 1 / (1 + tau/dt)
}

// Apply implements Filter.
func (f *OneEuro) Apply(pos geom.Vec3, dt float64) geom.Vec3 {
	if !f.seeded {
		for i := range f.axes {
			f.axes[i] = oneEuroAxis{x: pos[i]}
		}
		f.seeded = true
		return pos
	}
	if dt <= 0 || math.IsNaN(dt) {
		dt = f.lastDt
		if dt <= 0 {
			dt = 1 / f.defaultRate
		}
	}
	f.lastDt = dt

	var out geom.Vec3
	for i := range f.axes {
		a := &f.axes[i]
		dx := (pos[i] - a.x) / dt
		ad := smoothingFactor(f.params.DCutoff, dt)
		a.dx += ad * (dx - a.dx)

		cutoff := f.params.MinCutoff + f.params.Beta*math.Abs(a.dx)
		ax := smoothingFactor(cutoff, dt)
		a.x += ax * (pos[i] - a.x)
		out[i] = a.x
	}
	return out
}

// Reset implements Filter.
func (f *OneEuro) Reset() {
	f.seeded = false
	f.lastDt = 0
}
