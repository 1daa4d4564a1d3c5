// Package l5retarget owns Layer 5 (Retargeting) of the avatar data model.
//
// Responsibilities: calibrating against a humanoid skeleton at rest,
// turning joint positions into bone world rotations, root translation
// with depth estimated from apparent body height, the whole-pose
// plausibility gate, and blending locked bones back toward rest.
// Key types: Skeleton, Calibration, CalibrationRecord, Retargeter,
// BodyHeightEstimate.
//
// Every bone rotation is produced the same way at calibration and at
// runtime: a look-at frame (direction, up) is built from joint positions
// and composed with the calibration's inverse rotation. The frame rules
// live in one place (frames.go) and are shared by both paths, so feeding
// the rest keypoints back reproduces the rest pose.
//
// Dependency rule: L5 may depend on L1-L4, but never on L6.
package l5retarget
