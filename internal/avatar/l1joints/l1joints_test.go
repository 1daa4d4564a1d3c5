package l1joints

import (
	"errors"
	"testing"

	"github.com/banshee-data/posetrack/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJointNames(t *testing.T) {
	t.Parallel()
	for i := JointID(0); i < Count; i++ {
		got, err := ParseJointID(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	_, err := ParseJointID("Tail")
	assert.Error(t, err)
	assert.Equal(t, "None", None.String())
	assert.Equal(t, 24, SourceCount)
	assert.Equal(t, JointID(32), Count)
}

func TestJointID_IsSource(t *testing.T) {
	t.Parallel()
	assert.True(t, AbdomenUpper.IsSource())
	assert.False(t, Hip.IsSource())
	assert.False(t, None.IsSource())
}

func TestDefaultTopology_Valid(t *testing.T) {
	t.Parallel()
	topo := DefaultTopology()
	require.NoError(t, topo.Validate())

	assert.Equal(t, Hip, topo.Parent(Spine))
	assert.Equal(t, RightShin, topo.Child(RightThigh))
	assert.Equal(t, BoneRightLowerArm, topo.Bone(RightForearm))
	assert.ElementsMatch(t, []JointID{RightThumb, RightMiddle}, topo.Spec(RightHand).Requires)
	assert.Equal(t, NoBone, topo.Bone(Pelvis))
}

func TestTopology_ValidateRejects(t *testing.T) {
	t.Parallel()

	t.Run("cycle", func(t *testing.T) {
		topo := DefaultTopology()
		topo.Specs[Hip].Parent = Spine
		err := topo.Validate()
		assert.True(t, errors.Is(err, ErrInvalidTopology))
	})

	t.Run("self child", func(t *testing.T) {
		topo := DefaultTopology()
		topo.Specs[Neck].Child = Neck
		assert.ErrorIs(t, topo.Validate(), ErrInvalidTopology)
	})

	t.Run("bad requirement", func(t *testing.T) {
		topo := DefaultTopology()
		topo.Specs[LeftFoot].Requires = []JointID{Count + 3}
		assert.ErrorIs(t, topo.Validate(), ErrInvalidTopology)
	})
}

func TestArena_Load(t *testing.T) {
	t.Parallel()
	a := NewArena(DefaultTopology())

	err := a.Load(Frame{Keypoints: make([]Keypoint, 3)})
	assert.Error(t, err)

	kps := make([]Keypoint, SourceCount)
	for i := range kps {
		kps[i] = Keypoint{Pos3D: geom.Vec3{float64(i), 1, 2}, Score: 0.5}
	}
	require.NoError(t, a.Load(Frame{Keypoints: kps}))
	assert.Equal(t, geom.Vec3{float64(Nose), 1, 2}, a.Pos(Nose))
	assert.Equal(t, 0.5, a.Score(LeftToe))
	assert.Equal(t, BoneLeftFoot, a.At(LeftFoot).Bone)
	assert.False(t, a.Enabled(LeftFoot))

	a.At(LeftFoot).Lock = true
	a.ClearLocks()
	assert.False(t, a.At(LeftFoot).Lock)
}
