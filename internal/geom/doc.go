// Package geom holds the vector and quaternion helpers shared by every
// avatar layer.
//
// Conventions: right-handed, +Y up, +Z forward, +X to the character's
// right. Rotations are unit quaternions from mathgl; composition reads
// right to left, so parent.Mul(local) yields the world rotation of a child.
//
// Every helper here tolerates degenerate input (zero-length vectors,
// parallel look/up pairs) and returns a finite result instead of NaN.
package geom
