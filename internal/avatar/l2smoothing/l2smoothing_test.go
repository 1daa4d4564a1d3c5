package l2smoothing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultKalman(model KalmanModel) KalmanParams {
	return KalmanParams{
		Model:            model,
		Noise:            0.001,
		MeasurementNoise: 0.0015,
		TimeInterval:     1,
		FixedInterval:    true,
	}
}

func TestKalman1D_SeedsWithFirstMeasurement(t *testing.T) {
	t.Parallel()
	k := NewKalman1D(defaultKalman(ConstantPosition))
	assert.Equal(t, 4.2, k.CorrectAndPredict(4.2, 0))
}

func TestKalman1D_ConvergesToConstant(t *testing.T) {
	t.Parallel()
	for _, model := range []KalmanModel{ConstantPosition, ConstantVelocity} {
		k := NewKalman1D(defaultKalman(model))
		k.CorrectAndPredict(0, 0)
		var got float64
		for i := 0; i < 200; i++ {
			got = k.CorrectAndPredict(10, 0)
		}
		assert.InDelta(t, 10, got, 1e-3, "model %d", model)
	}
}

func TestKalman1D_ConstantVelocityTracksRamp(t *testing.T) {
	t.Parallel()
	params := defaultKalman(ConstantVelocity)
	params.Noise = 0.01
	k := NewKalman1D(params)
	var got float64
	for i := 0; i < 300; i++ {
		got = k.CorrectAndPredict(float64(i), 0)
	}
	assert.InDelta(t, 299, got, 0.5)
}

func TestKalman1D_IgnoresNaN(t *testing.T) {
	t.Parallel()
	k := NewKalman1D(defaultKalman(ConstantPosition))
	k.CorrectAndPredict(3, 0)
	got := k.CorrectAndPredict(math.NaN(), 0)
	assert.False(t, math.IsNaN(got))
	assert.InDelta(t, 3, got, 1e-9)
}

func TestKalman1D_ReducesNoise(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	k := NewKalman1D(defaultKalman(ConstantPosition))
	var rawErr, filtErr float64
	for i := 0; i < 500; i++ {
		z := 5 + rng.NormFloat64()*0.05
		est := k.CorrectAndPredict(z, 0)
		if i > 50 {
			rawErr += (z - 5) * (z - 5)
			filtErr += (est - 5) * (est - 5)
		}
	}
	assert.Less(t, filtErr, rawErr)
}

func TestLowPass_ClampsParameters(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, NewLowPass(0, 0.5).Order())
	assert.Equal(t, 10, NewLowPass(50, 0.5).Order())
	assert.Equal(t, 1.0, NewLowPass(2, 3).smooth)
	assert.Equal(t, 0.0, NewLowPass(2, -1).smooth)
}

func TestLowPass_Converges(t *testing.T) {
	t.Parallel()
	lp := NewLowPass(3, 0.6)
	assert.Equal(t, geom.Vec3{}, lp.Apply(geom.Vec3{}, 0))

	target := geom.Vec3{1, -2, 3}
	first := lp.Apply(target, 0)
	assert.Less(t, first.Sub(target).Len(), target.Len(), "first step moves toward input")
	assert.Greater(t, first.Sub(target).Len(), 0.0, "first step does not jump")

	var got geom.Vec3
	for i := 0; i < 200; i++ {
		got = lp.Apply(target, 0)
	}
	assert.InDelta(t, 0, got.Sub(target).Len(), 1e-6)
}

func TestLowPass_ZeroSmoothIsPassThrough(t *testing.T) {
	t.Parallel()
	lp := NewLowPass(4, 0)
	lp.Apply(geom.Vec3{}, 0)
	assert.Equal(t, geom.Vec3{5, 5, 5}, lp.Apply(geom.Vec3{5, 5, 5}, 0))
}

func TestOneEuro_Converges(t *testing.T) {
	t.Parallel()
	f := NewOneEuro(OneEuroParams{MinCutoff: 1, Beta: 0.007, DCutoff: 1}, 30)
	f.Apply(geom.Vec3{}, 0)
	var got geom.Vec3
	for i := 0; i < 300; i++ {
		got = f.Apply(geom.Vec3{2, 2, 2}, 1.0/30)
	}
	assert.InDelta(t, 0, got.Sub(geom.Vec3{2, 2, 2}).Len(), 1e-3)
}

func TestOneEuro_NonPositiveDtReusesLastInterval(t *testing.T) {
	t.Parallel()
	params := OneEuroParams{MinCutoff: 1, Beta: 0, DCutoff: 1}

	a := NewOneEuro(params, 30)
	b := NewOneEuro(params, 30)
	a.Apply(geom.Vec3{}, 0)
	b.Apply(geom.Vec3{}, 0)
	a.Apply(geom.Vec3{1, 0, 0}, 0.05)
	b.Apply(geom.Vec3{1, 0, 0}, 0.05)

	gotA := a.Apply(geom.Vec3{2, 0, 0}, 0)
	gotB := b.Apply(geom.Vec3{2, 0, 0}, 0.05)
	assert.InDelta(t, gotB[0], gotA[0], 1e-12)

	// Before any interval is known the default rate applies.
	c := NewOneEuro(params, 30)
	d := NewOneEuro(params, 30)
	c.Apply(geom.Vec3{}, 0)
	d.Apply(geom.Vec3{}, 0)
	assert.InDelta(t, d.Apply(geom.Vec3{1, 0, 0}, 1.0/30)[0], c.Apply(geom.Vec3{1, 0, 0}, -1)[0], 1e-12)
}

func TestChain_Order(t *testing.T) {
	t.Parallel()
	cfg := Config{
		KalmanEnabled:  true,
		Kalman:         defaultKalman(ConstantPosition),
		LowPassEnabled: true,
		LowPassOrder:   2,
		LowPassSmooth:  0.3,
		OneEuroEnabled: true,
		OneEuro:        OneEuroParams{MinCutoff: 1, Beta: 0.007, DCutoff: 1},
		FrameRate:      30,
	}
	c := NewChain(cfg)
	require.Equal(t, 3, c.Len())
	assert.IsType(t, &KalmanFilter{}, c.filters[0])
	assert.IsType(t, &LowPass{}, c.filters[1])
	assert.IsType(t, &OneEuro{}, c.filters[2])

	assert.Equal(t, 0, NewChain(Config{}).Len())
	assert.Equal(t, geom.Vec3{1, 2, 3}, NewChain(Config{}).Apply(geom.Vec3{1, 2, 3}, 0))
}

func TestSmoother_ConfigureResetsOnlyOnChange(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	s := NewSmoother(cfg)

	buf := []geom.Vec3{{0, 0, 0}}
	require.NoError(t, s.Smooth(Stream3D, buf, 0))
	buf[0] = geom.Vec3{10, 0, 0}
	require.NoError(t, s.Smooth(Stream3D, buf, 0))
	assert.Less(t, buf[0][0], 10.0, "history should hold the value back")

	assert.False(t, s.Configure(cfg))
	assert.Equal(t, 0, s.Resets())

	cfg.LowPassSmooth = 0.5
	assert.True(t, s.Configure(cfg))
	assert.Equal(t, 1, s.Resets())

	// After a reset the next sample seeds fresh state.
	buf[0] = geom.Vec3{42, 0, 0}
	require.NoError(t, s.Smooth(Stream3D, buf, 0))
	assert.Equal(t, 42.0, buf[0][0])
}

func TestSmoother_StreamsAreIndependent(t *testing.T) {
	t.Parallel()
	s := NewSmoother(DefaultConfig())
	a := []geom.Vec3{{0, 0, 0}}
	b := []geom.Vec3{{100, 0, 0}}
	require.NoError(t, s.Smooth(Stream3D, a, 0))
	require.NoError(t, s.Smooth(Stream2D, b, 0))
	assert.Equal(t, 100.0, b[0][0], "2D stream must seed from its own first sample")
}

func TestSmoother_ParallelMatchesSequential(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.OneEuroEnabled = true
	seq := NewSmoother(cfg)
	cfg.Parallel = true
	par := NewSmoother(cfg)

	rng := rand.New(rand.NewSource(1))
	for f := 0; f < 20; f++ {
		in := make([]geom.Vec3, l1joints.SourceCount)
		for i := range in {
			in[i] = geom.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
		}
		a := append([]geom.Vec3(nil), in...)
		b := append([]geom.Vec3(nil), in...)
		require.NoError(t, seq.Smooth(Stream3D, a, 1.0/30))
		require.NoError(t, par.Smooth(Stream3D, b, 1.0/30))
		assert.Equal(t, a, b)
	}
}

func TestSmoother_SmoothArena(t *testing.T) {
	t.Parallel()
	arena := l1joints.NewArena(l1joints.DefaultTopology())
	kps := make([]l1joints.Keypoint, l1joints.SourceCount)
	for i := range kps {
		kps[i].Pos3D = geom.Vec3{1, 1, 1}
		kps[i].Pos2D = geom.Vec3{2, 2, 0}
	}
	require.NoError(t, arena.Load(l1joints.Frame{Keypoints: kps}))

	s := NewSmoother(DefaultConfig())
	require.NoError(t, s.SmoothArena(arena, 0))
	assert.Equal(t, geom.Vec3{1, 1, 1}, arena.Pos(l1joints.Nose))
	assert.Equal(t, geom.Vec3{2, 2, 0}, arena.At(l1joints.Nose).Pos2D)
}
