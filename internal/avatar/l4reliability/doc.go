// Package l4reliability owns Layer 4 (Reliability) of the avatar data
// model.
//
// Responsibilities: marking source joints visible, and deciding each
// frame which joints are too unreliable to drive. Leg chains are checked
// by extrapolating a confident parent through a doubtful child; when the
// extrapolated point falls below the floor plane the doubtful part of
// the chain is locked. User lock switches are OR-ed on top. The gate
// keeps no state across frames, so a lock clears as soon as its cause
// does.
// Key types: Config, UserLocks, Gate, Report.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5-L6.
package l4reliability
