package l5retarget

import (
	"github.com/banshee-data/posetrack/internal/avatar/l2smoothing"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/geom"
)

// CalibrationConfig sets the hypothetical camera used to judge depth.
type CalibrationConfig struct {
	ReferenceDistance          float64
	HypotheticalCameraDistance float64
	ReferenceTall              float64 // source-space body height at the reference distance
	ReferenceHeadSize          float64
}

// Config holds the retargeting parameters.
type Config struct {
	LockBlendRate         float64 // per-frame slerp fraction toward rest for locked bones, in (0, 1)
	GateMaxRightAngleDeg  float64
	GateMinUpDownAngleDeg float64
	HeadGazeToleranceDeg  float64
	ArmBlendStartDeg      float64 // elbow opening where the cached bend starts to take over
	ArmBlendFullDeg       float64
	ShinBlendStartDeg     float64 // knee bend where thigh-to-foot starts to take over
	ShinBlendFullDeg      float64

	RootSensitivity geom.Vec3
	SourceOrigin    geom.Vec3
	DepthEnabled    bool
	DepthScale      float64
	HeightSmoothing float64 // weight of the newest segment measurement
	DepthKalman     l2smoothing.KalmanParams

	Calibration CalibrationConfig
}

// DefaultConfig returns retargeting configuration loaded from the
// canonical tuning defaults file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		LockBlendRate:         cfg.GetLockBlendRate(),
		GateMaxRightAngleDeg:  cfg.GetGateMaxRightAngleDeg(),
		GateMinUpDownAngleDeg: cfg.GetGateMinUpDownAngleDeg(),
		HeadGazeToleranceDeg:  cfg.GetHeadGazeToleranceDeg(),
		ArmBlendStartDeg:      cfg.GetArmBlendStartDeg(),
		ArmBlendFullDeg:       cfg.GetArmBlendFullDeg(),
		ShinBlendStartDeg:     cfg.GetShinBlendStartDeg(),
		ShinBlendFullDeg:      cfg.GetShinBlendFullDeg(),
		RootSensitivity:       geom.Vec3(cfg.GetRootSensitivity()),
		SourceOrigin:          geom.Vec3(cfg.GetSourceOrigin()),
		DepthEnabled:          cfg.GetDepthEnabled(),
		DepthScale:            cfg.GetDepthScale(),
		HeightSmoothing:       cfg.GetHeightSmoothing(),
		DepthKalman: l2smoothing.KalmanParams{
			Model:            l2smoothing.ConstantPosition,
			Noise:            cfg.GetDepthKalmanNoise(),
			MeasurementNoise: cfg.GetDepthMeasurementNoise(),
			TimeInterval:     1,
			FixedInterval:    true,
		},
		Calibration: CalibrationConfig{
			ReferenceDistance:          cfg.GetReferenceDistance(),
			HypotheticalCameraDistance: cfg.GetHypotheticalCameraDistance(),
			ReferenceTall:              cfg.GetReferenceTall(),
			ReferenceHeadSize:          cfg.GetReferenceHeadSize(),
		},
	}
}
