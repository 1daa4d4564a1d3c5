package l5retarget

import (
	"errors"
	"fmt"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
)

// Skeleton is the host rig the retargeter drives. Implementations may be
// a game-engine adapter or the in-memory rig package.
type Skeleton interface {
	IsHumanoid() bool
	HasBone(b l1joints.HumanBone) bool
	Parent(b l1joints.HumanBone) (l1joints.HumanBone, bool)
	WorldPose(b l1joints.HumanBone) (geom.Vec3, geom.Quat, bool)
	SetWorldRotation(b l1joints.HumanBone, q geom.Quat)
	SetWorldPosition(b l1joints.HumanBone, p geom.Vec3)
	RestLocalRotation(b l1joints.HumanBone) (geom.Quat, bool)
}

// Calibration failure causes. Test with errors.Is.
var (
	ErrNotHumanoid    = errors.New("avatar is not humanoid")
	ErrMissingBone    = errors.New("mandatory bone missing")
	ErrBoneRead       = errors.New("failed to read bone")
	ErrDegeneratePose = errors.New("rest pose is degenerate")
)

// CalibrationError reports why calibration failed and, when relevant,
// which bone caused it.
type CalibrationError struct {
	Bone l1joints.HumanBone
	Err  error
}

func (e *CalibrationError) Error() string {
	if e.Bone == l1joints.NoBone {
		return "calibration failed: " + e.Err.Error()
	}
	return fmt.Sprintf("calibration failed at bone %s: %v", e.Bone, e.Err)
}

func (e *CalibrationError) Unwrap() error { return e.Err }

// readPose reads a bone's world pose, converting host panics and missing
// bones into a CalibrationError.
func readPose(sk Skeleton, b l1joints.HumanBone) (pos geom.Vec3, rot geom.Quat, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CalibrationError{Bone: b, Err: fmt.Errorf("%w: %v", ErrBoneRead, r)}
		}
	}()
	p, q, ok := sk.WorldPose(b)
	if !ok {
		return geom.Vec3{}, geom.Identity(), &CalibrationError{Bone: b, Err: ErrBoneRead}
	}
	if !geom.IsFinite(p) || !geom.IsFinite(q.V) {
		return geom.Vec3{}, geom.Identity(), &CalibrationError{Bone: b, Err: fmt.Errorf("%w: non-finite pose", ErrBoneRead)}
	}
	return p, q, nil
}

func readRestLocal(sk Skeleton, b l1joints.HumanBone) (rot geom.Quat, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CalibrationError{Bone: b, Err: fmt.Errorf("%w: %v", ErrBoneRead, r)}
		}
	}()
	q, ok := sk.RestLocalRotation(b)
	if !ok {
		return geom.Identity(), &CalibrationError{Bone: b, Err: ErrBoneRead}
	}
	return q, nil
}

// worldRotation is the runtime read; a missing bone yields identity.
func worldRotation(sk Skeleton, b l1joints.HumanBone) geom.Quat {
	_, q, ok := sk.WorldPose(b)
	if !ok {
		return geom.Identity()
	}
	return q
}
