package l4reliability

import (
	"testing"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGate() *Gate {
	return NewGate(Config{
		VisibleThreshold:    0.05,
		FootCheckThreshold:  0.1,
		FloorThreshold:      -180,
		ExtrapolationFactor: 2,
	})
}

// legArena places the right leg with the given scores and positions. The
// left leg is confident and well above the floor.
func legArena(t *testing.T, scores [4]float64, ys [4]float64) *l1joints.Arena {
	t.Helper()
	a := l1joints.NewArena(l1joints.DefaultTopology())
	kps := make([]l1joints.Keypoint, l1joints.SourceCount)
	for i := range kps {
		kps[i] = l1joints.Keypoint{Pos3D: geom.Vec3{0, 0, 0}, Score: 0.9}
	}
	for i, id := range RightLeg.chain() {
		kps[id] = l1joints.Keypoint{Pos3D: geom.Vec3{10, ys[i], 0}, Score: scores[i]}
	}
	for i, id := range LeftLeg.chain() {
		kps[id].Pos3D = geom.Vec3{-10, []float64{0, -45, -88, -92}[i], 0}
	}
	require.NoError(t, a.Load(l1joints.Frame{Keypoints: kps}))
	return a
}

func locked(a *l1joints.Arena, leg Leg) [4]bool {
	var out [4]bool
	for i, id := range leg.chain() {
		out[i] = a.At(id).Lock
	}
	return out
}

func TestEvaluate_ThighScenarioLocksWholeLeg(t *testing.T) {
	t.Parallel()
	// Confident thigh, doubtful shin far below: 0 + (-100-0)*2 = -200 < -180.
	a := legArena(t, [4]float64{0.9, 0.05, 0.05, 0.05}, [4]float64{0, -100, -150, -160})
	g := testGate()
	rep := g.Evaluate(a, UserLocks{})

	assert.Equal(t, [4]bool{true, true, true, true}, locked(a, RightLeg))
	assert.Equal(t, l1joints.RightShin, rep.Right.Trigger)
	assert.Equal(t, [4]bool{}, locked(a, LeftLeg))
	assert.Equal(t, l1joints.None, rep.Left.Trigger)
	assert.Len(t, rep.Locked, 4)
}

func TestEvaluate_ShinCheckLocksShinDown(t *testing.T) {
	t.Parallel()
	// Thigh->shin is fine, shin confident, foot doubtful and extrapolates
	// to -45 + (-120+45)*2 = -195.
	a := legArena(t, [4]float64{0.9, 0.9, 0.05, 0.05}, [4]float64{0, -45, -120, -125})
	rep := testGate().Evaluate(a, UserLocks{})
	assert.Equal(t, [4]bool{false, true, true, true}, locked(a, RightLeg))
	assert.Equal(t, l1joints.RightFoot, rep.Right.Trigger)
}

func TestEvaluate_FootCheckLocksFootAndToe(t *testing.T) {
	t.Parallel()
	a := legArena(t, [4]float64{0.9, 0.9, 0.9, 0.05}, [4]float64{0, -45, -88, -140})
	testGate().Evaluate(a, UserLocks{})
	assert.Equal(t, [4]bool{false, false, true, true}, locked(a, RightLeg))
}

func TestEvaluate_NoLockAboveFloor(t *testing.T) {
	t.Parallel()
	// Doubtful shin but the extrapolation stays above the floor.
	a := legArena(t, [4]float64{0.9, 0.05, 0.9, 0.9}, [4]float64{0, -45, -88, -92})
	testGate().Evaluate(a, UserLocks{})
	assert.Equal(t, [4]bool{}, locked(a, RightLeg))
}

func TestEvaluate_Stateless(t *testing.T) {
	t.Parallel()
	g := testGate()
	a := legArena(t, [4]float64{0.9, 0.05, 0.05, 0.05}, [4]float64{0, -100, -150, -160})
	g.Evaluate(a, UserLocks{})
	require.True(t, a.At(l1joints.RightThigh).Lock)

	// Cause removed: the very next evaluation clears the locks.
	for _, id := range RightLeg.chain() {
		a.At(id).Score3D = 0.9
	}
	g.Evaluate(a, UserLocks{})
	assert.Equal(t, [4]bool{}, locked(a, RightLeg))
}

func TestEvaluate_LocksOnlyGrowWithLowerConfidence(t *testing.T) {
	t.Parallel()
	g := testGate()
	ys := [4]float64{0, -100, -150, -160}
	scores := [4]float64{0.9, 0.9, 0.9, 0.9}
	prev := 0
	// Drop confidence from the toe upward; the locked set never shrinks
	// while the geometry is unchanged.
	for k := 3; k >= 1; k-- {
		scores[k] = 0.05
		a := legArena(t, scores, ys)
		g.Evaluate(a, UserLocks{})
		n := 0
		for _, l := range locked(a, RightLeg) {
			if l {
				n++
			}
		}
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
	assert.Equal(t, 4, prev)
}

func TestEvaluate_UserLocks(t *testing.T) {
	t.Parallel()
	g := testGate()
	healthy := [4]float64{0.9, 0.9, 0.9, 0.9}
	ys := [4]float64{0, -45, -88, -92}

	a := legArena(t, healthy, ys)
	g.Evaluate(a, UserLocks{LockLegs: true})
	assert.Equal(t, [4]bool{true, true, true, true}, locked(a, RightLeg))
	assert.Equal(t, [4]bool{true, true, true, true}, locked(a, LeftLeg))

	a = legArena(t, healthy, ys)
	g.Evaluate(a, UserLocks{LockFoot: true})
	assert.Equal(t, [4]bool{false, false, true, true}, locked(a, LeftLeg))

	a = legArena(t, healthy, ys)
	g.Evaluate(a, UserLocks{LockHand: true})
	for _, id := range []l1joints.JointID{l1joints.RightHand, l1joints.RightThumb, l1joints.LeftMiddle} {
		assert.True(t, a.At(id).Lock, id.String())
	}
	assert.False(t, a.At(l1joints.RightForearm).Lock)
}

func TestMarkVisibility(t *testing.T) {
	t.Parallel()
	a := legArena(t, [4]float64{0.9, 0.05, 0.01, 0.06}, [4]float64{})
	testGate().MarkVisibility(a)
	assert.True(t, a.At(l1joints.RightThigh).Visible)
	assert.False(t, a.At(l1joints.RightShin).Visible, "score equal to the threshold is not visible")
	assert.False(t, a.At(l1joints.RightFoot).Visible)
	assert.True(t, a.At(l1joints.RightToe).Visible)
}
