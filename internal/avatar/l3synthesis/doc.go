// Package l3synthesis owns Layer 3 (Synthesis) of the avatar data model.
//
// Responsibilities: deriving the joints the estimator does not deliver
// (hip, pelvis, spine, chest, neck, head, shoulders), propagating
// visibility onto them, computing the body frame (forward, right, up,
// down axes for the upper and lower body), and flagging frames where the
// lower body is probably out of view.
// Key types: Config, BodyAxes, Result.
//
// Dependency rule: L3 may depend on L1, but never on L4-L6.
package l3synthesis
