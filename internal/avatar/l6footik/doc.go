// Package l6footik owns Layer 6 (Foot IK) of the avatar data model.
//
// Responsibilities: after retargeting, probe the ground under each foot
// through a host-supplied Raycaster and plant the feet with an analytic
// two-bone solve. The root is raised by the deepest penetration before
// solving and lowered by the largest remaining gap afterwards, followed
// by a second pass.
// Key types: Raycaster, Config, Solver, Result.
//
// Dependency rule: L6 may depend on L1-L5, but never on pipeline.
package l6footik
