package l2smoothing

import (
	"math"

	"github.com/banshee-data/posetrack/internal/geom"
	"gonum.org/v1/gonum/mat"
)

// KalmanModel selects the state vector of a Kalman1D.
type KalmanModel int

const (
	// ConstantPosition tracks position only; motion is process noise.
	ConstantPosition KalmanModel = iota
	// ConstantVelocity tracks position and velocity.
	ConstantVelocity
)

// KalmanParams configures one scalar Kalman filter.
type KalmanParams struct {
	Model            KalmanModel
	Noise            float64 // process noise spectral density (Q)
	MeasurementNoise float64 // measurement variance (R)
	TimeInterval     float64 // step used when FixedInterval is set or dt is unusable
	FixedInterval    bool
}

func (p KalmanParams) states() int {
	if p.Model == ConstantVelocity {
		return 2
	}
	return 1
}

// Kalman1D is a linear Kalman filter over a single scalar measurement.
// The position estimate is always state[0].
type Kalman1D struct {
	params KalmanParams
	n      int
	x      *mat.VecDense
	p      *mat.Dense
	h      *mat.VecDense
	seeded bool
}

// NewKalman1D creates an unseeded filter.
func NewKalman1D(params KalmanParams) *Kalman1D {
	n := params.states()
	h := mat.NewVecDense(n, nil)
	h.SetVec(0, 1)
	return &Kalman1D{params: params, n: n, h: h}
}

// Reset clears all state. The next measurement seeds the filter.
func (k *Kalman1D) Reset() {
	k.x = nil
	k.p = nil
	k.seeded = false
}

// Estimate returns the current prior position estimate.
func (k *Kalman1D) Estimate() float64 {
	if !k.seeded {
		return 0
	}
	return k.x.AtVec(0)
}

// CorrectAndPredict folds measurement z into the filter, returns the
// posterior position, then advances the state by dt so the next call
// corrects against a prediction. The first call seeds the state with z.
func (k *Kalman1D) CorrectAndPredict(z, dt float64) float64 {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return k.Estimate()
	}
	dt = k.step(dt)

	if !k.seeded {
		k.seed(z)
		k.predict(dt)
		return z
	}

	k.correct(z)
	est := k.x.AtVec(0)
	k.predict(dt)
	return est
}

func (k *Kalman1D) step(dt float64) float64 {
	if k.params.FixedInterval || dt <= 0 || math.IsNaN(dt) {
		if k.params.TimeInterval > 0 {
			return k.params.TimeInterval
		}
		return 1
	}
	return dt
}

func (k *Kalman1D) seed(z float64) {
	k.x = mat.NewVecDense(k.n, nil)
	k.x.SetVec(0, z)
	diag := make([]float64, k.n)
	for i := range diag {
		diag[i] = 1
	}
	diag[0] = k.params.MeasurementNoise
	k.p = mat.NewDense(k.n, k.n, nil)
	for i := range diag {
		k.p.Set(i, i, diag[i])
	}
	k.seeded = true
}

// correct applies the measurement update. H selects state[0], so
// S = P[0][0] + R and the gain is the first column of P divided by S.
func (k *Kalman1D) correct(z float64) {
	s := k.p.At(0, 0) + k.params.MeasurementNoise
	if s <= 0 {
		return
	}
	gain := mat.NewVecDense(k.n, nil)
	for i := 0; i < k.n; i++ {
		gain.SetVec(i, k.p.At(i, 0)/s)
	}

	innovation := z - k.x.AtVec(0)
	var x mat.VecDense
	x.AddScaledVec(k.x, innovation, gain)
	k.x = &x

	// P = (I - K H) P
	var kh mat.Dense
	kh.Outer(1, gain, k.h)
	ikh := mat.NewDense(k.n, k.n, nil)
	for i := 0; i < k.n; i++ {
		ikh.Set(i, i, 1)
	}
	ikh.Sub(ikh, &kh)
	var p mat.Dense
	p.Mul(ikh, k.p)
	k.p = &p
}

func (k *Kalman1D) predict(dt float64) {
	f, q := k.transition(dt)

	var x mat.VecDense
	x.MulVec(f, k.x)
	k.x = &x

	var fp, fpft, p mat.Dense
	fp.Mul(f, k.p)
	fpft.Mul(&fp, f.T())
	p.Add(&fpft, q)
	k.p = &p
}

// transition returns F and Q for one step of length dt. Constant
// velocity uses the discrete white-noise acceleration model.
func (k *Kalman1D) transition(dt float64) (*mat.Dense, *mat.Dense) {
	q := k.params.Noise
	if k.n == 1 {
		return mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{q * dt})
	}
	dt2 := dt * dt
	dt3 := dt2 * dt
	f := mat.NewDense(2, 2, []float64{
		1, dt,
		0, 1,
	})
	qm := mat.NewDense(2, 2, []float64{
		q * dt3 / 3, q * dt2 / 2,
		q * dt2 / 2, q * dt,
	})
	return f, qm
}

// KalmanFilter runs one Kalman1D per axis.
type KalmanFilter struct {
	axes [3]*Kalman1D
}

// NewKalmanFilter creates a three-axis filter with shared parameters.
func NewKalmanFilter(params KalmanParams) *KalmanFilter {
	return &KalmanFilter{axes: [3]*Kalman1D{
		NewKalman1D(params), NewKalman1D(params), NewKalman1D(params),
	}}
}

// Apply implements Filter.
func (f *KalmanFilter) Apply(pos geom.Vec3, dt float64) geom.Vec3 {
	var out geom.Vec3
	for i, k := range f.axes {
		out[i] = k.CorrectAndPredict(pos[i], dt)
	}
	return out
}

// Reset implements Filter.
func (f *KalmanFilter) Reset() {
	for _, k := range f.axes {
		k.Reset()
	}
}
