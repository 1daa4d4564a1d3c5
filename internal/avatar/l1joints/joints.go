package l1joints

import (
	"fmt"
	"strings"
)

// JointID indexes a joint in the arena. Source joints come first,
// synthesized joints follow.
type JointID int

const (
	RightUpperArm JointID = iota
	RightForearm
	RightHand
	RightThumb
	RightMiddle
	LeftUpperArm
	LeftForearm
	LeftHand
	LeftThumb
	LeftMiddle
	LeftEar
	LeftEye
	RightEar
	RightEye
	Nose
	RightThigh
	RightShin
	RightFoot
	RightToe
	LeftThigh
	LeftShin
	LeftFoot
	LeftToe
	AbdomenUpper

	// Synthesized joints. Never present in estimator output.
	Hip
	Head
	Neck
	Spine
	Chest
	RightShoulder
	LeftShoulder
	Pelvis

	// Count is the size of the joint arena.
	Count
)

// None marks an absent parent or child link.
const None JointID = -1

// SourceCount is the number of keypoints an estimator frame must carry.
const SourceCount = int(AbdomenUpper) + 1

var jointNames = [Count]string{
	"RightUpperArm", "RightForearm", "RightHand", "RightThumb", "RightMiddle",
	"LeftUpperArm", "LeftForearm", "LeftHand", "LeftThumb", "LeftMiddle",
	"LeftEar", "LeftEye", "RightEar", "RightEye", "Nose",
	"RightThigh", "RightShin", "RightFoot", "RightToe",
	"LeftThigh", "LeftShin", "LeftFoot", "LeftToe",
	"AbdomenUpper",
	"Hip", "Head", "Neck", "Spine", "Chest", "RightShoulder", "LeftShoulder", "Pelvis",
}

func (id JointID) String() string {
	if id.Valid() {
		return jointNames[id]
	}
	if id == None {
		return "None"
	}
	return fmt.Sprintf("JointID(%d)", int(id))
}

// Valid reports whether id indexes the arena.
func (id JointID) Valid() bool { return id >= 0 && id < Count }

// IsSource reports whether id is delivered by the estimator.
func (id JointID) IsSource() bool { return id >= 0 && int(id) < SourceCount }

// ParseJointID resolves a joint name case-insensitively.
func ParseJointID(name string) (JointID, error) {
	for i, n := range jointNames {
		if strings.EqualFold(n, name) {
			return JointID(i), nil
		}
	}
	return None, fmt.Errorf("unknown joint %q", name)
}

// HumanBone names a standard humanoid rig bone.
type HumanBone string

const (
	NoBone HumanBone = ""

	BoneHips  HumanBone = "Hips"
	BoneSpine HumanBone = "Spine"
	BoneChest HumanBone = "Chest"
	BoneNeck  HumanBone = "Neck"
	BoneHead  HumanBone = "Head"

	BoneRightShoulder HumanBone = "RightShoulder"
	BoneRightUpperArm HumanBone = "RightUpperArm"
	BoneRightLowerArm HumanBone = "RightLowerArm"
	BoneRightHand     HumanBone = "RightHand"
	BoneRightThumb    HumanBone = "RightThumbIntermediate"
	BoneRightMiddle   HumanBone = "RightMiddleProximal"
	BoneLeftShoulder  HumanBone = "LeftShoulder"
	BoneLeftUpperArm  HumanBone = "LeftUpperArm"
	BoneLeftLowerArm  HumanBone = "LeftLowerArm"
	BoneLeftHand      HumanBone = "LeftHand"
	BoneLeftThumb     HumanBone = "LeftThumbIntermediate"
	BoneLeftMiddle    HumanBone = "LeftMiddleProximal"

	BoneRightUpperLeg HumanBone = "RightUpperLeg"
	BoneRightLowerLeg HumanBone = "RightLowerLeg"
	BoneRightFoot     HumanBone = "RightFoot"
	BoneRightToes     HumanBone = "RightToes"
	BoneLeftUpperLeg  HumanBone = "LeftUpperLeg"
	BoneLeftLowerLeg  HumanBone = "LeftLowerLeg"
	BoneLeftFoot      HumanBone = "LeftFoot"
	BoneLeftToes      HumanBone = "LeftToes"
)

// MandatoryBones must all be present for calibration to succeed.
var MandatoryBones = []HumanBone{
	BoneHips, BoneSpine, BoneHead,
	BoneRightUpperLeg, BoneRightLowerLeg, BoneRightFoot,
	BoneLeftUpperLeg, BoneLeftLowerLeg, BoneLeftFoot,
	BoneRightUpperArm, BoneRightLowerArm, BoneRightHand,
	BoneLeftUpperArm, BoneLeftLowerArm, BoneLeftHand,
}
