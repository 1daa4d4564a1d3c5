// Package pipeline is the composition root of the avatar layers.
//
// One Pipeline drives one rig from one keypoint source. Each Process call
// runs load, smoothing, reliability marking, synthesis, the lock gate,
// retargeting and foot IK in that order, synchronously, under a single
// mutex. Results fan out to registered sinks after the lock is released.
package pipeline
