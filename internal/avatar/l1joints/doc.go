// Package l1joints owns Layer 1 (Joints) of the avatar data model.
//
// Responsibilities: the joint identifier space, the humanoid bone names
// joints bind to, the skeleton topology table (parents, look-at children,
// bone requirements), and the per-frame joint arena that every later
// layer reads and writes.
// Key types: JointID, HumanBone, Topology, Joint, Arena, Frame.
//
// Source keypoints arrive in a body-local space: +Y up, +Z toward the
// camera-facing front of the body, +X to the subject's right, units as
// delivered by the estimator. Synthesized joints are derived later by
// l3synthesis and live in the same space.
//
// Dependency rule: L1 depends only on internal/geom. It never imports
// any other avatar layer.
package l1joints
