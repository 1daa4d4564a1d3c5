package rig

import (
	"slices"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
)

// DefaultHumanoid is a 1.6 m T-pose humanoid in metres. It faces +Z with
// the character's right hand on +X and every rest rotation identity.
func DefaultHumanoid() Definition {
	bones := []BoneDef{
		{Name: l1joints.BoneHips},
		{Name: l1joints.BoneSpine, Parent: l1joints.BoneHips, Offset: [3]float64{0, 0.10, 0}},
		{Name: l1joints.BoneChest, Parent: l1joints.BoneSpine, Offset: [3]float64{0, 0.15, 0}},
		{Name: l1joints.BoneNeck, Parent: l1joints.BoneChest, Offset: [3]float64{0, 0.20, 0}},
		{Name: l1joints.BoneHead, Parent: l1joints.BoneNeck, Offset: [3]float64{0, 0.10, 0}},
	}
	for _, side := range []struct {
		sign                                        float64
		shoulder, upper, lower, hand, thumb, middle l1joints.HumanBone
		upperLeg, lowerLeg, foot, toes              l1joints.HumanBone
	}{
		{1, l1joints.BoneRightShoulder, l1joints.BoneRightUpperArm, l1joints.BoneRightLowerArm, l1joints.BoneRightHand,
			l1joints.BoneRightThumb, l1joints.BoneRightMiddle,
			l1joints.BoneRightUpperLeg, l1joints.BoneRightLowerLeg, l1joints.BoneRightFoot, l1joints.BoneRightToes},
		{-1, l1joints.BoneLeftShoulder, l1joints.BoneLeftUpperArm, l1joints.BoneLeftLowerArm, l1joints.BoneLeftHand,
			l1joints.BoneLeftThumb, l1joints.BoneLeftMiddle,
			l1joints.BoneLeftUpperLeg, l1joints.BoneLeftLowerLeg, l1joints.BoneLeftFoot, l1joints.BoneLeftToes},
	} {
		s := side.sign
		bones = append(bones,
			BoneDef{Name: side.shoulder, Parent: l1joints.BoneChest, Offset: [3]float64{0.05 * s, 0.15, 0}},
			BoneDef{Name: side.upper, Parent: side.shoulder, Offset: [3]float64{0.12 * s, 0, 0}},
			BoneDef{Name: side.lower, Parent: side.upper, Offset: [3]float64{0.28 * s, 0, 0}},
			BoneDef{Name: side.hand, Parent: side.lower, Offset: [3]float64{0.25 * s, 0, 0}},
			BoneDef{Name: side.thumb, Parent: side.hand, Offset: [3]float64{0.04 * s, 0, 0.04}},
			BoneDef{Name: side.middle, Parent: side.hand, Offset: [3]float64{0.09 * s, 0, 0}},
			BoneDef{Name: side.upperLeg, Parent: l1joints.BoneHips, Offset: [3]float64{0.10 * s, -0.05, 0}},
			BoneDef{Name: side.lowerLeg, Parent: side.upperLeg, Offset: [3]float64{0, -0.43, 0}},
			BoneDef{Name: side.foot, Parent: side.lowerLeg, Offset: [3]float64{0, -0.42, 0}},
			BoneDef{Name: side.toes, Parent: side.foot, Offset: [3]float64{0, -0.05, 0.12}},
		)
	}
	return Definition{
		Name:     "default-humanoid",
		Humanoid: true,
		Root:     [3]float64{0, 1.0, 0},
		Bones:    bones,
	}
}

// Without returns a copy of def with the named bones removed. Children
// of a removed bone are reattached to its parent.
func (def Definition) Without(names ...l1joints.HumanBone) Definition {
	parentOf := make(map[l1joints.HumanBone]BoneDef, len(def.Bones))
	for _, b := range def.Bones {
		parentOf[b.Name] = b
	}
	out := def
	out.Bones = nil
	for _, b := range def.Bones {
		if slices.Contains(names, b.Name) {
			continue
		}
		for slices.Contains(names, b.Parent) {
			removed := parentOf[b.Parent]
			b.Offset = [3]float64{b.Offset[0] + removed.Offset[0], b.Offset[1] + removed.Offset[1], b.Offset[2] + removed.Offset[2]}
			b.Parent = removed.Parent
		}
		out.Bones = append(out.Bones, b)
	}
	return out
}
