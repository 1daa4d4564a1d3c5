package l2smoothing

import (
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/geom"
)

// Filter smooths a stream of positions. dt is seconds since the previous
// sample; implementations substitute a fallback when dt <= 0.
type Filter interface {
	Apply(pos geom.Vec3, dt float64) geom.Vec3
	Reset()
}

// Config selects and parameterises the filter chain. Config is
// comparable; Smoother.Configure uses == to detect changes.
type Config struct {
	KalmanEnabled  bool
	Kalman         KalmanParams
	LowPassEnabled bool
	LowPassOrder   int
	LowPassSmooth  float64
	OneEuroEnabled bool
	OneEuro        OneEuroParams
	FrameRate      float64
	Parallel       bool
	Smooth2D       bool
}

// DefaultConfig returns smoothing configuration loaded from the
// canonical tuning defaults file (config/tuning.defaults.json).
// Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	model := ConstantPosition
	if cfg.GetKalmanModel() == config.KalmanModelConstantVelocity {
		model = ConstantVelocity
	}
	return Config{
		KalmanEnabled: cfg.GetKalmanEnabled(),
		Kalman: KalmanParams{
			Model:            model,
			Noise:            cfg.GetKalmanNoise(),
			MeasurementNoise: cfg.GetKalmanMeasurementNoise(),
			TimeInterval:     cfg.GetKalmanTimeInterval(),
			FixedInterval:    cfg.GetKalmanFixedInterval(),
		},
		LowPassEnabled: cfg.GetLowPassEnabled(),
		LowPassOrder:   cfg.GetLowPassOrder(),
		LowPassSmooth:  cfg.GetLowPassSmooth(),
		OneEuroEnabled: cfg.GetOneEuroEnabled(),
		OneEuro: OneEuroParams{
			MinCutoff: cfg.GetOneEuroMinCutoff(),
			Beta:      cfg.GetOneEuroBeta(),
			DCutoff:   cfg.GetOneEuroDCutoff(),
		},
		FrameRate: cfg.GetFrameRate(),
		Parallel:  cfg.GetParallelSmoothing(),
		Smooth2D:  cfg.GetSmooth2D(),
	}
}

// Chain applies its filters in order.
type Chain struct {
	filters []Filter
}

// NewChain builds the Kalman, low-pass, one-euro chain selected by cfg.
func NewChain(cfg Config) *Chain {
	c := &Chain{}
	if cfg.KalmanEnabled {
		c.filters = append(c.filters, NewKalmanFilter(cfg.Kalman))
	}
	if cfg.LowPassEnabled {
		c.filters = append(c.filters, NewLowPass(cfg.LowPassOrder, cfg.LowPassSmooth))
	}
	if cfg.OneEuroEnabled {
		c.filters = append(c.filters, NewOneEuro(cfg.OneEuro, cfg.FrameRate))
	}
	return c
}

// Len returns the number of active stages.
func (c *Chain) Len() int { return len(c.filters) }

// Apply implements Filter.
func (c *Chain) Apply(pos geom.Vec3, dt float64) geom.Vec3 {
	for _, f := range c.filters {
		pos = f.Apply(pos, dt)
	}
	return pos
}

// Reset implements Filter.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		f.Reset()
	}
}
