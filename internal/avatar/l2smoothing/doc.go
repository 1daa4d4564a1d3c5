// Package l2smoothing owns Layer 2 (Smoothing) of the avatar data model.
//
// Responsibilities: per-joint temporal filtering of keypoint positions.
// Each joint gets an independent chain of filters applied in a fixed
// order: Kalman, then cascaded low-pass, then one-euro. Any stage may be
// disabled. Chains are keyed by stream (3D or 2D) and joint.
// Key types: Filter, Kalman1D, KalmanFilter, LowPass, OneEuro, Chain,
// Smoother.
//
// Dependency rule: L2 may depend on L1, but never on L3-L6.
package l2smoothing
