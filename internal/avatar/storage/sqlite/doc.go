// Package sqlite records keypoint sessions to a SQLite database so they
// can be replayed through the pipeline while tuning. Only the input
// frames and a few per-frame diagnostics are stored; retargeted bone
// rotations are not.
package sqlite
