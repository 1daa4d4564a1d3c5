// Package rig provides an in-memory humanoid skeleton with forward
// kinematics. Rigs are described in YAML (bone name, parent, rest offset,
// optional rest rotation) and satisfy the skeleton interface the
// retargeter drives. Command-line tools and tests use it in place of a
// game-engine host.
package rig
