package l1joints

import (
	"errors"
	"fmt"
)

// JointSpec describes one joint of the skeleton topology.
type JointSpec struct {
	ID     JointID
	Bone   HumanBone // NoBone for joints that only feed geometry
	Parent JointID   // None for the root
	Child  JointID   // look-at target; None when the frame rule uses other joints

	// Requires lists joints whose bones must also exist for this joint to
	// be driven. A hand needs both finger references to build its frame.
	Requires []JointID
}

// Topology is the joint table. It is data: rig adapters and tests may
// build their own as long as Validate passes.
type Topology struct {
	Specs [Count]JointSpec
}

// DefaultTopology returns the standard humanoid joint table.
func DefaultTopology() *Topology {
	t := &Topology{}
	set := func(id JointID, bone HumanBone, parent, child JointID, requires ...JointID) {
		t.Specs[id] = JointSpec{ID: id, Bone: bone, Parent: parent, Child: child, Requires: requires}
	}

	set(RightUpperArm, BoneRightUpperArm, RightShoulder, RightForearm)
	set(RightForearm, BoneRightLowerArm, RightUpperArm, RightHand)
	set(RightHand, BoneRightHand, RightForearm, None, RightThumb, RightMiddle)
	set(RightThumb, BoneRightThumb, RightHand, None, RightMiddle)
	set(RightMiddle, BoneRightMiddle, RightHand, None, RightThumb)
	set(LeftUpperArm, BoneLeftUpperArm, LeftShoulder, LeftForearm)
	set(LeftForearm, BoneLeftLowerArm, LeftUpperArm, LeftHand)
	set(LeftHand, BoneLeftHand, LeftForearm, None, LeftThumb, LeftMiddle)
	set(LeftThumb, BoneLeftThumb, LeftHand, None, LeftMiddle)
	set(LeftMiddle, BoneLeftMiddle, LeftHand, None, LeftThumb)

	set(LeftEar, NoBone, Head, None)
	set(LeftEye, NoBone, Head, None)
	set(RightEar, NoBone, Head, None)
	set(RightEye, NoBone, Head, None)
	set(Nose, NoBone, Head, None)

	set(RightThigh, BoneRightUpperLeg, Hip, RightShin)
	set(RightShin, BoneRightLowerLeg, RightThigh, RightFoot)
	set(RightFoot, BoneRightFoot, RightShin, RightToe, RightToe)
	set(RightToe, BoneRightToes, RightFoot, None)
	set(LeftThigh, BoneLeftUpperLeg, Hip, LeftShin)
	set(LeftShin, BoneLeftLowerLeg, LeftThigh, LeftFoot)
	set(LeftFoot, BoneLeftFoot, LeftShin, LeftToe, LeftToe)
	set(LeftToe, BoneLeftToes, LeftFoot, None)

	set(AbdomenUpper, NoBone, Hip, None)

	set(Hip, BoneHips, None, Spine)
	set(Spine, BoneSpine, Hip, Chest)
	set(Chest, BoneChest, Spine, Neck)
	set(Neck, BoneNeck, Chest, Head)
	set(Head, BoneHead, Neck, Nose)
	set(RightShoulder, BoneRightShoulder, Chest, RightUpperArm)
	set(LeftShoulder, BoneLeftShoulder, Chest, LeftUpperArm)
	set(Pelvis, NoBone, Hip, None)
	return t
}

// Spec returns the table entry for id.
func (t *Topology) Spec(id JointID) JointSpec { return t.Specs[id] }

// Parent returns the parent joint of id, or None.
func (t *Topology) Parent(id JointID) JointID { return t.Specs[id].Parent }

// Child returns the look-at child of id, or None.
func (t *Topology) Child(id JointID) JointID { return t.Specs[id].Child }

// Bone returns the rig bone id drives.
func (t *Topology) Bone(id JointID) HumanBone { return t.Specs[id].Bone }

// ErrInvalidTopology is wrapped by every Validate failure.
var ErrInvalidTopology = errors.New("invalid joint topology")

// Validate checks links are in range, ids match their slot, exactly one
// root exists, and parent chains terminate.
func (t *Topology) Validate() error {
	roots := 0
	for i, s := range t.Specs {
		id := JointID(i)
		if s.ID != id {
			return fmt.Errorf("%w: slot %d holds spec for %v", ErrInvalidTopology, i, s.ID)
		}
		if s.Parent == None {
			roots++
		} else if !s.Parent.Valid() || s.Parent == id {
			return fmt.Errorf("%w: %v has bad parent %d", ErrInvalidTopology, id, s.Parent)
		}
		if s.Child != None && (!s.Child.Valid() || s.Child == id) {
			return fmt.Errorf("%w: %v has bad child %d", ErrInvalidTopology, id, s.Child)
		}
		for _, r := range s.Requires {
			if !r.Valid() {
				return fmt.Errorf("%w: %v requires out-of-range joint %d", ErrInvalidTopology, id, r)
			}
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: expected one root, found %d", ErrInvalidTopology, roots)
	}
	for i := range t.Specs {
		steps := 0
		for p := t.Specs[i].Parent; p != None; p = t.Specs[p].Parent {
			if steps++; steps > int(Count) {
				return fmt.Errorf("%w: parent cycle through %v", ErrInvalidTopology, JointID(i))
			}
		}
	}
	return nil
}
