package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Kalman motion models accepted by kalman_model.
const (
	KalmanModelConstantPosition = "constant_position"
	KalmanModelConstantVelocity = "constant_velocity"
)

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/config endpoint of the monitor so the same
// JSON can be used for both startup configuration and runtime updates.
type TuningConfig struct {
	// Smoothing params
	FrameRate              *float64 `json:"frame_rate,omitempty"` // fallback when timestamps are missing
	KalmanEnabled          *bool    `json:"kalman_enabled,omitempty"`
	KalmanModel            *string  `json:"kalman_model,omitempty"`
	KalmanNoise            *float64 `json:"kalman_noise,omitempty"`
	KalmanMeasurementNoise *float64 `json:"kalman_measurement_noise,omitempty"`
	KalmanTimeInterval     *float64 `json:"kalman_time_interval,omitempty"`
	KalmanFixedInterval    *bool    `json:"kalman_fixed_interval,omitempty"`
	LowPassEnabled         *bool    `json:"lowpass_enabled,omitempty"`
	LowPassOrder           *int     `json:"lowpass_order,omitempty"`
	LowPassSmooth          *float64 `json:"lowpass_smooth,omitempty"`
	OneEuroEnabled         *bool    `json:"one_euro_enabled,omitempty"`
	OneEuroMinCutoff       *float64 `json:"one_euro_min_cutoff,omitempty"`
	OneEuroBeta            *float64 `json:"one_euro_beta,omitempty"`
	OneEuroDCutoff         *float64 `json:"one_euro_d_cutoff,omitempty"`
	ParallelSmoothing      *bool    `json:"parallel_smoothing,omitempty"`
	Smooth2D               *bool    `json:"smooth_2d,omitempty"`

	// Synthesis params
	NeckLiftRatio           *float64 `json:"neck_lift_ratio,omitempty"`
	ShoulderSpreadRatio     *float64 `json:"shoulder_spread_ratio,omitempty"`
	PoorLowerBodyEnabled    *bool    `json:"poor_lower_body_enabled,omitempty"`
	ShoulderHeightThreshold *float64 `json:"shoulder_height_threshold,omitempty"`
	ThighHeightThreshold    *float64 `json:"thigh_height_threshold,omitempty"`

	// Reliability params
	VisibleThreshold    *float64 `json:"visible_threshold,omitempty"`
	FootCheckThreshold  *float64 `json:"foot_check_threshold,omitempty"`
	FloorThreshold      *float64 `json:"floor_threshold,omitempty"`
	ExtrapolationFactor *float64 `json:"extrapolation_factor,omitempty"`
	LockLegs            *bool    `json:"lock_legs,omitempty"`
	LockFoot            *bool    `json:"lock_foot,omitempty"`
	LockHand            *bool    `json:"lock_hand,omitempty"`

	// Retarget params
	LockBlendRate         *float64    `json:"lock_blend_rate,omitempty"`
	GateMaxRightAngleDeg  *float64    `json:"gate_max_right_angle_deg,omitempty"`
	GateMinUpDownAngleDeg *float64    `json:"gate_min_up_down_angle_deg,omitempty"`
	HeadGazeToleranceDeg  *float64    `json:"head_gaze_tolerance_deg,omitempty"`
	ArmBlendStartDeg      *float64    `json:"arm_blend_start_deg,omitempty"`
	ArmBlendFullDeg       *float64    `json:"arm_blend_full_deg,omitempty"`
	ShinBlendStartDeg     *float64    `json:"shin_blend_start_deg,omitempty"`
	ShinBlendFullDeg      *float64    `json:"shin_blend_full_deg,omitempty"`
	RootSensitivity       *[3]float64 `json:"root_sensitivity,omitempty"`
	SourceOrigin          *[3]float64 `json:"source_origin,omitempty"`
	DepthEnabled          *bool       `json:"depth_enabled,omitempty"`
	DepthScale            *float64    `json:"depth_scale,omitempty"`
	HeightSmoothing       *float64    `json:"height_smoothing,omitempty"`
	DepthKalmanNoise      *float64    `json:"depth_kalman_noise,omitempty"`
	DepthMeasurementNoise *float64    `json:"depth_measurement_noise,omitempty"`

	// Calibration params
	ReferenceDistance          *float64 `json:"reference_distance,omitempty"`
	HypotheticalCameraDistance *float64 `json:"hypothetical_camera_distance,omitempty"`
	ReferenceTall              *float64 `json:"reference_tall,omitempty"`
	ReferenceHeadSize          *float64 `json:"reference_head_size,omitempty"`

	// Foot IK params
	FootIKEnabled  *bool    `json:"foot_ik_enabled,omitempty"`
	RayOriginLift  *float64 `json:"ray_origin_lift,omitempty"`
	RayMaxDistance *float64 `json:"ray_max_distance,omitempty"`
	HeelOffset     *float64 `json:"heel_offset,omitempty"`
	GroundLayer    *uint32  `json:"ground_layer,omitempty"`

	// Outer surfaces
	TelemetryBuffer *int `json:"telemetry_buffer,omitempty"`
	HistorySize     *int `json:"history_size,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with the compiled-in
// defaults materialised as explicit values.
func DefaultTuningConfig() *TuningConfig {
	e := EmptyTuningConfig()
	sens := e.GetRootSensitivity()
	origin := e.GetSourceOrigin()
	layer := e.GetGroundLayer()
	return &TuningConfig{
		FrameRate:              ptrFloat64(e.GetFrameRate()),
		KalmanEnabled:          ptrBool(e.GetKalmanEnabled()),
		KalmanModel:            ptrString(e.GetKalmanModel()),
		KalmanNoise:            ptrFloat64(e.GetKalmanNoise()),
		KalmanMeasurementNoise: ptrFloat64(e.GetKalmanMeasurementNoise()),
		KalmanTimeInterval:     ptrFloat64(e.GetKalmanTimeInterval()),
		KalmanFixedInterval:    ptrBool(e.GetKalmanFixedInterval()),
		LowPassEnabled:         ptrBool(e.GetLowPassEnabled()),
		LowPassOrder:           ptrInt(e.GetLowPassOrder()),
		LowPassSmooth:          ptrFloat64(e.GetLowPassSmooth()),
		OneEuroEnabled:         ptrBool(e.GetOneEuroEnabled()),
		OneEuroMinCutoff:       ptrFloat64(e.GetOneEuroMinCutoff()),
		OneEuroBeta:            ptrFloat64(e.GetOneEuroBeta()),
		OneEuroDCutoff:         ptrFloat64(e.GetOneEuroDCutoff()),
		ParallelSmoothing:      ptrBool(e.GetParallelSmoothing()),
		Smooth2D:               ptrBool(e.GetSmooth2D()),

		NeckLiftRatio:           ptrFloat64(e.GetNeckLiftRatio()),
		ShoulderSpreadRatio:     ptrFloat64(e.GetShoulderSpreadRatio()),
		PoorLowerBodyEnabled:    ptrBool(e.GetPoorLowerBodyEnabled()),
		ShoulderHeightThreshold: ptrFloat64(e.GetShoulderHeightThreshold()),
		ThighHeightThreshold:    ptrFloat64(e.GetThighHeightThreshold()),

		VisibleThreshold:    ptrFloat64(e.GetVisibleThreshold()),
		FootCheckThreshold:  ptrFloat64(e.GetFootCheckThreshold()),
		FloorThreshold:      ptrFloat64(e.GetFloorThreshold()),
		ExtrapolationFactor: ptrFloat64(e.GetExtrapolationFactor()),
		LockLegs:            ptrBool(e.GetLockLegs()),
		LockFoot:            ptrBool(e.GetLockFoot()),
		LockHand:            ptrBool(e.GetLockHand()),

		LockBlendRate:         ptrFloat64(e.GetLockBlendRate()),
		GateMaxRightAngleDeg:  ptrFloat64(e.GetGateMaxRightAngleDeg()),
		GateMinUpDownAngleDeg: ptrFloat64(e.GetGateMinUpDownAngleDeg()),
		HeadGazeToleranceDeg:  ptrFloat64(e.GetHeadGazeToleranceDeg()),
		ArmBlendStartDeg:      ptrFloat64(e.GetArmBlendStartDeg()),
		ArmBlendFullDeg:       ptrFloat64(e.GetArmBlendFullDeg()),
		ShinBlendStartDeg:     ptrFloat64(e.GetShinBlendStartDeg()),
		ShinBlendFullDeg:      ptrFloat64(e.GetShinBlendFullDeg()),
		RootSensitivity:       &sens,
		SourceOrigin:          &origin,
		DepthEnabled:          ptrBool(e.GetDepthEnabled()),
		DepthScale:            ptrFloat64(e.GetDepthScale()),
		HeightSmoothing:       ptrFloat64(e.GetHeightSmoothing()),
		DepthKalmanNoise:      ptrFloat64(e.GetDepthKalmanNoise()),
		DepthMeasurementNoise: ptrFloat64(e.GetDepthMeasurementNoise()),

		ReferenceDistance:          ptrFloat64(e.GetReferenceDistance()),
		HypotheticalCameraDistance: ptrFloat64(e.GetHypotheticalCameraDistance()),
		ReferenceTall:              ptrFloat64(e.GetReferenceTall()),
		ReferenceHeadSize:          ptrFloat64(e.GetReferenceHeadSize()),

		FootIKEnabled:  ptrBool(e.GetFootIKEnabled()),
		RayOriginLift:  ptrFloat64(e.GetRayOriginLift()),
		RayMaxDistance: ptrFloat64(e.GetRayMaxDistance()),
		HeelOffset:     ptrFloat64(e.GetHeelOffset()),
		GroundLayer:    &layer,

		TelemetryBuffer: ptrInt(e.GetTelemetryBuffer()),
		HistorySize:     ptrInt(e.GetHistorySize()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseTuningConfig(data)
}

// ParseTuningConfig decodes and validates JSON tuning data. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func ParseTuningConfig(data []byte) (*TuningConfig, error) {
	cfg := EmptyTuningConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/avatar/l2smoothing/
		"../../../../" + DefaultConfigPath,    // from internal/avatar/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Merge overlays every non-nil field of other onto c.
func (c *TuningConfig) Merge(other *TuningConfig) error {
	if other == nil {
		return nil
	}
	base, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode base config: %w", err)
	}
	overlay, err := json.Marshal(other)
	if err != nil {
		return fmt.Errorf("failed to encode overlay config: %w", err)
	}
	merged := EmptyTuningConfig()
	if err := json.Unmarshal(base, merged); err != nil {
		return fmt.Errorf("failed to decode base config: %w", err)
	}
	if err := json.Unmarshal(overlay, merged); err != nil {
		return fmt.Errorf("failed to decode overlay config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	*c = *merged
	return nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.KalmanModel != nil {
		switch *c.KalmanModel {
		case KalmanModelConstantPosition, KalmanModelConstantVelocity:
		default:
			return fmt.Errorf("kalman_model must be %q or %q, got %q",
				KalmanModelConstantPosition, KalmanModelConstantVelocity, *c.KalmanModel)
		}
	}

	positive := map[string]*float64{
		"frame_rate":                   c.FrameRate,
		"kalman_measurement_noise":     c.KalmanMeasurementNoise,
		"kalman_time_interval":         c.KalmanTimeInterval,
		"one_euro_min_cutoff":          c.OneEuroMinCutoff,
		"one_euro_d_cutoff":            c.OneEuroDCutoff,
		"extrapolation_factor":         c.ExtrapolationFactor,
		"reference_distance":           c.ReferenceDistance,
		"hypothetical_camera_distance": c.HypotheticalCameraDistance,
		"reference_tall":               c.ReferenceTall,
		"reference_head_size":          c.ReferenceHeadSize,
		"ray_max_distance":             c.RayMaxDistance,
		"depth_measurement_noise":      c.DepthMeasurementNoise,
	}
	for name, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	nonNegative := map[string]*float64{
		"kalman_noise":       c.KalmanNoise,
		"one_euro_beta":      c.OneEuroBeta,
		"depth_kalman_noise": c.DepthKalmanNoise,
		"ray_origin_lift":    c.RayOriginLift,
		"neck_lift_ratio":    c.NeckLiftRatio,
	}
	for name, v := range nonNegative {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}

	unit := map[string]*float64{
		"lowpass_smooth":       c.LowPassSmooth,
		"visible_threshold":    c.VisibleThreshold,
		"foot_check_threshold": c.FootCheckThreshold,
		"height_smoothing":     c.HeightSmoothing,
	}
	for name, v := range unit {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	// A rate of 0 would freeze locked bones and 1 would snap them.
	if c.LockBlendRate != nil && (*c.LockBlendRate <= 0 || *c.LockBlendRate >= 1) {
		return fmt.Errorf("lock_blend_rate must be in (0, 1), got %f", *c.LockBlendRate)
	}

	if c.LowPassOrder != nil && (*c.LowPassOrder < 1 || *c.LowPassOrder > 10) {
		return fmt.Errorf("lowpass_order must be between 1 and 10, got %d", *c.LowPassOrder)
	}

	if c.GetArmBlendFullDeg() <= c.GetArmBlendStartDeg() {
		return fmt.Errorf("arm_blend_full_deg (%f) must exceed arm_blend_start_deg (%f)",
			c.GetArmBlendFullDeg(), c.GetArmBlendStartDeg())
	}
	if c.GetShinBlendFullDeg() <= c.GetShinBlendStartDeg() {
		return fmt.Errorf("shin_blend_full_deg (%f) must exceed shin_blend_start_deg (%f)",
			c.GetShinBlendFullDeg(), c.GetShinBlendStartDeg())
	}

	if c.TelemetryBuffer != nil && *c.TelemetryBuffer < 1 {
		return fmt.Errorf("telemetry_buffer must be at least 1, got %d", *c.TelemetryBuffer)
	}
	if c.HistorySize != nil && *c.HistorySize < 1 {
		return fmt.Errorf("history_size must be at least 1, got %d", *c.HistorySize)
	}
	return nil
}
