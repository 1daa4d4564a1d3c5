package config

// GetFrameRate returns the frame_rate value or the default.
func (c *TuningConfig) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 30
	}
	return *c.FrameRate
}

// GetKalmanEnabled returns the kalman_enabled value or the default.
func (c *TuningConfig) GetKalmanEnabled() bool {
	if c.KalmanEnabled == nil {
		return true
	}
	return *c.KalmanEnabled
}

// GetKalmanModel returns the kalman_model value or the default.
func (c *TuningConfig) GetKalmanModel() string {
	if c.KalmanModel == nil {
		return KalmanModelConstantPosition
	}
	return *c.KalmanModel
}

// GetKalmanNoise returns the kalman_noise value or the default.
func (c *TuningConfig) GetKalmanNoise() float64 {
	if c.KalmanNoise == nil {
		return 0.001
	}
	return *c.KalmanNoise
}

// GetKalmanMeasurementNoise returns the kalman_measurement_noise value or the default.
func (c *TuningConfig) GetKalmanMeasurementNoise() float64 {
	if c.KalmanMeasurementNoise == nil {
		return 0.0015
	}
	return *c.KalmanMeasurementNoise
}

// GetKalmanTimeInterval returns the kalman_time_interval value or the default.
func (c *TuningConfig) GetKalmanTimeInterval() float64 {
	if c.KalmanTimeInterval == nil {
		return 1.0 // one step per frame
	}
	return *c.KalmanTimeInterval
}

// GetKalmanFixedInterval returns the kalman_fixed_interval value or the default.
func (c *TuningConfig) GetKalmanFixedInterval() bool {
	if c.KalmanFixedInterval == nil {
		return true
	}
	return *c.KalmanFixedInterval
}

// GetLowPassEnabled returns the lowpass_enabled value or the default.
func (c *TuningConfig) GetLowPassEnabled() bool {
	if c.LowPassEnabled == nil {
		return true
	}
	return *c.LowPassEnabled
}

// GetLowPassOrder returns the lowpass_order value or the default.
func (c *TuningConfig) GetLowPassOrder() int {
	if c.LowPassOrder == nil {
		return 2
	}
	return *c.LowPassOrder
}

// GetLowPassSmooth returns the lowpass_smooth value or the default.
func (c *TuningConfig) GetLowPassSmooth() float64 {
	if c.LowPassSmooth == nil {
		return 0.3
	}
	return *c.LowPassSmooth
}

// GetOneEuroEnabled returns the one_euro_enabled value or the default.
func (c *TuningConfig) GetOneEuroEnabled() bool {
	if c.OneEuroEnabled == nil {
		return false
	}
	return *c.OneEuroEnabled
}

// GetOneEuroMinCutoff returns the one_euro_min_cutoff value or the default.
func (c *TuningConfig) GetOneEuroMinCutoff() float64 {
	if c.OneEuroMinCutoff == nil {
		return 1.0
	}
	return *c.OneEuroMinCutoff
}

// GetOneEuroBeta returns the one_euro_beta value or the default.
func (c *TuningConfig) GetOneEuroBeta() float64 {
	if c.OneEuroBeta == nil {
		return 0.007
	}
	return *c.OneEuroBeta
}

// GetOneEuroDCutoff returns the one_euro_d_cutoff value or the default.
func (c *TuningConfig) GetOneEuroDCutoff() float64 {
	if c.OneEuroDCutoff == nil {
		return 1.0
	}
	return *c.OneEuroDCutoff
}

// GetParallelSmoothing returns the parallel_smoothing value or the default.
func (c *TuningConfig) GetParallelSmoothing() bool {
	if c.ParallelSmoothing == nil {
		return false
	}
	return *c.ParallelSmoothing
}

// GetSmooth2D returns the smooth_2d value or the default.
func (c *TuningConfig) GetSmooth2D() bool {
	if c.Smooth2D == nil {
		return true
	}
	return *c.Smooth2D
}

// GetNeckLiftRatio returns the neck_lift_ratio value or the default.
func (c *TuningConfig) GetNeckLiftRatio() float64 {
	if c.NeckLiftRatio == nil {
		return 0.15
	}
	return *c.NeckLiftRatio
}

// GetShoulderSpreadRatio returns the shoulder_spread_ratio value or the default.
func (c *TuningConfig) GetShoulderSpreadRatio() float64 {
	if c.ShoulderSpreadRatio == nil {
		return 0.35
	}
	return *c.ShoulderSpreadRatio
}

// GetPoorLowerBodyEnabled returns the poor_lower_body_enabled value or the default.
func (c *TuningConfig) GetPoorLowerBodyEnabled() bool {
	if c.PoorLowerBodyEnabled == nil {
		return true
	}
	return *c.PoorLowerBodyEnabled
}

// GetShoulderHeightThreshold returns the shoulder_height_threshold value or the default.
func (c *TuningConfig) GetShoulderHeightThreshold() float64 {
	if c.ShoulderHeightThreshold == nil {
		return 120
	}
	return *c.ShoulderHeightThreshold
}

// GetThighHeightThreshold returns the thigh_height_threshold value or the default.
func (c *TuningConfig) GetThighHeightThreshold() float64 {
	if c.ThighHeightThreshold == nil {
		return -120
	}
	return *c.ThighHeightThreshold
}

// GetVisibleThreshold returns the visible_threshold value or the default.
func (c *TuningConfig) GetVisibleThreshold() float64 {
	if c.VisibleThreshold == nil {
		return 0.05
	}
	return *c.VisibleThreshold
}

// GetFootCheckThreshold returns the foot_check_threshold value or the default.
func (c *TuningConfig) GetFootCheckThreshold() float64 {
	if c.FootCheckThreshold == nil {
		return 0.2
	}
	return *c.FootCheckThreshold
}

// GetFloorThreshold returns the floor_threshold value or the default.
func (c *TuningConfig) GetFloorThreshold() float64 {
	if c.FloorThreshold == nil {
		return -180
	}
	return *c.FloorThreshold
}

// GetExtrapolationFactor returns the extrapolation_factor value or the default.
func (c *TuningConfig) GetExtrapolationFactor() float64 {
	if c.ExtrapolationFactor == nil {
		return 2.0
	}
	return *c.ExtrapolationFactor
}

// GetLockLegs returns the lock_legs value or the default.
func (c *TuningConfig) GetLockLegs() bool {
	if c.LockLegs == nil {
		return false
	}
	return *c.LockLegs
}

// GetLockFoot returns the lock_foot value or the default.
func (c *TuningConfig) GetLockFoot() bool {
	if c.LockFoot == nil {
		return false
	}
	return *c.LockFoot
}

// GetLockHand returns the lock_hand value or the default.
func (c *TuningConfig) GetLockHand() bool {
	if c.LockHand == nil {
		return false
	}
	return *c.LockHand
}

// GetLockBlendRate returns the lock_blend_rate value or the default.
func (c *TuningConfig) GetLockBlendRate() float64 {
	if c.LockBlendRate == nil {
		return 0.2
	}
	return *c.LockBlendRate
}

// GetGateMaxRightAngleDeg returns the gate_max_right_angle_deg value or the default.
func (c *TuningConfig) GetGateMaxRightAngleDeg() float64 {
	if c.GateMaxRightAngleDeg == nil {
		return 100
	}
	return *c.GateMaxRightAngleDeg
}

// GetGateMinUpDownAngleDeg returns the gate_min_up_down_angle_deg value or the default.
func (c *TuningConfig) GetGateMinUpDownAngleDeg() float64 {
	if c.GateMinUpDownAngleDeg == nil {
		return 10
	}
	return *c.GateMinUpDownAngleDeg
}

// GetHeadGazeToleranceDeg returns the head_gaze_tolerance_deg value or the default.
func (c *TuningConfig) GetHeadGazeToleranceDeg() float64 {
	if c.HeadGazeToleranceDeg == nil {
		return 60
	}
	return *c.HeadGazeToleranceDeg
}

// GetArmBlendStartDeg returns the arm_blend_start_deg value or the default.
func (c *TuningConfig) GetArmBlendStartDeg() float64 {
	if c.ArmBlendStartDeg == nil {
		return 20
	}
	return *c.ArmBlendStartDeg
}

// GetArmBlendFullDeg returns the arm_blend_full_deg value or the default.
func (c *TuningConfig) GetArmBlendFullDeg() float64 {
	if c.ArmBlendFullDeg == nil {
		return 90
	}
	return *c.ArmBlendFullDeg
}

// GetShinBlendStartDeg returns the shin_blend_start_deg value or the default.
func (c *TuningConfig) GetShinBlendStartDeg() float64 {
	if c.ShinBlendStartDeg == nil {
		return 20
	}
	return *c.ShinBlendStartDeg
}

// GetShinBlendFullDeg returns the shin_blend_full_deg value or the default.
func (c *TuningConfig) GetShinBlendFullDeg() float64 {
	if c.ShinBlendFullDeg == nil {
		return 40
	}
	return *c.ShinBlendFullDeg
}

// GetDepthEnabled returns the depth_enabled value or the default.
func (c *TuningConfig) GetDepthEnabled() bool {
	if c.DepthEnabled == nil {
		return true
	}
	return *c.DepthEnabled
}

// GetDepthScale returns the depth_scale value or the default.
func (c *TuningConfig) GetDepthScale() float64 {
	if c.DepthScale == nil {
		return 1.0
	}
	return *c.DepthScale
}

// GetHeightSmoothing returns the height_smoothing value or the default.
func (c *TuningConfig) GetHeightSmoothing() float64 {
	if c.HeightSmoothing == nil {
		return 0.7
	}
	return *c.HeightSmoothing
}

// GetDepthKalmanNoise returns the depth_kalman_noise value or the default.
func (c *TuningConfig) GetDepthKalmanNoise() float64 {
	if c.DepthKalmanNoise == nil {
		return 0.001
	}
	return *c.DepthKalmanNoise
}

// GetDepthMeasurementNoise returns the depth_measurement_noise value or the default.
func (c *TuningConfig) GetDepthMeasurementNoise() float64 {
	if c.DepthMeasurementNoise == nil {
		return 0.01
	}
	return *c.DepthMeasurementNoise
}

// GetReferenceDistance returns the reference_distance value or the default.
func (c *TuningConfig) GetReferenceDistance() float64 {
	if c.ReferenceDistance == nil {
		return 1.0
	}
	return *c.ReferenceDistance
}

// GetHypotheticalCameraDistance returns the hypothetical_camera_distance value or the default.
func (c *TuningConfig) GetHypotheticalCameraDistance() float64 {
	if c.HypotheticalCameraDistance == nil {
		return 1.0
	}
	return *c.HypotheticalCameraDistance
}

// GetReferenceTall returns the reference_tall value or the default.
func (c *TuningConfig) GetReferenceTall() float64 {
	if c.ReferenceTall == nil {
		return 160 // source units at the reference distance
	}
	return *c.ReferenceTall
}

// GetReferenceHeadSize returns the reference_head_size value or the default.
func (c *TuningConfig) GetReferenceHeadSize() float64 {
	if c.ReferenceHeadSize == nil {
		return 16
	}
	return *c.ReferenceHeadSize
}

// GetFootIKEnabled returns the foot_ik_enabled value or the default.
func (c *TuningConfig) GetFootIKEnabled() bool {
	if c.FootIKEnabled == nil {
		return false
	}
	return *c.FootIKEnabled
}

// GetRayOriginLift returns the ray_origin_lift value or the default.
func (c *TuningConfig) GetRayOriginLift() float64 {
	if c.RayOriginLift == nil {
		return 0.5
	}
	return *c.RayOriginLift
}

// GetRayMaxDistance returns the ray_max_distance value or the default.
func (c *TuningConfig) GetRayMaxDistance() float64 {
	if c.RayMaxDistance == nil {
		return 2.0
	}
	return *c.RayMaxDistance
}

// GetHeelOffset returns the heel_offset value or the default.
func (c *TuningConfig) GetHeelOffset() float64 {
	if c.HeelOffset == nil {
		return 0.0
	}
	return *c.HeelOffset
}

// GetGroundLayer returns the ground_layer value or the default.
func (c *TuningConfig) GetGroundLayer() uint32 {
	if c.GroundLayer == nil {
		return 1
	}
	return *c.GroundLayer
}

// GetTelemetryBuffer returns the telemetry_buffer value or the default.
func (c *TuningConfig) GetTelemetryBuffer() int {
	if c.TelemetryBuffer == nil {
		return 64
	}
	return *c.TelemetryBuffer
}

// GetHistorySize returns the history_size value or the default.
func (c *TuningConfig) GetHistorySize() int {
	if c.HistorySize == nil {
		return 300
	}
	return *c.HistorySize
}

// GetRootSensitivity returns the per-axis root translation gain.
func (c *TuningConfig) GetRootSensitivity() [3]float64 {
	if c.RootSensitivity == nil {
		return [3]float64{0.01, 0.01, 0.01} // centimetre sources onto a metre rig
	}
	return *c.RootSensitivity
}

// GetSourceOrigin returns the source-space point mapped onto the rest root.
func (c *TuningConfig) GetSourceOrigin() [3]float64 {
	if c.SourceOrigin == nil {
		return [3]float64{}
	}
	return *c.SourceOrigin
}
