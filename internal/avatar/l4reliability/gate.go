package l4reliability

import (
	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/geom"
)

// Config holds the reliability thresholds.
type Config struct {
	VisibleThreshold    float64
	FootCheckThreshold  float64 // confidence separating trusted from doubtful joints
	FloorThreshold      float64 // source-space Y below which an extrapolated point is implausible
	ExtrapolationFactor float64 // multiple of the parent-to-child vector to extrapolate
}

// DefaultConfig returns reliability configuration loaded from the
// canonical tuning defaults file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		VisibleThreshold:    cfg.GetVisibleThreshold(),
		FootCheckThreshold:  cfg.GetFootCheckThreshold(),
		FloorThreshold:      cfg.GetFloorThreshold(),
		ExtrapolationFactor: cfg.GetExtrapolationFactor(),
	}
}

// UserLocks are operator switches forcing joints to rest.
type UserLocks struct {
	LockLegs bool
	LockFoot bool
	LockHand bool
}

// UserLocksFromTuning reads the startup lock switches.
func UserLocksFromTuning(cfg *config.TuningConfig) UserLocks {
	return UserLocks{
		LockLegs: cfg.GetLockLegs(),
		LockFoot: cfg.GetLockFoot(),
		LockHand: cfg.GetLockHand(),
	}
}

// Leg names the four joints of one leg chain, parent first.
type Leg struct {
	Thigh, Shin, Foot, Toe l1joints.JointID
}

func (l Leg) chain() [4]l1joints.JointID {
	return [4]l1joints.JointID{l.Thigh, l.Shin, l.Foot, l.Toe}
}

var (
	RightLeg = Leg{l1joints.RightThigh, l1joints.RightShin, l1joints.RightFoot, l1joints.RightToe}
	LeftLeg  = Leg{l1joints.LeftThigh, l1joints.LeftShin, l1joints.LeftFoot, l1joints.LeftToe}

	rightHandChain = []l1joints.JointID{l1joints.RightHand, l1joints.RightThumb, l1joints.RightMiddle}
	leftHandChain  = []l1joints.JointID{l1joints.LeftHand, l1joints.LeftThumb, l1joints.LeftMiddle}
)

// LegReport explains the derived locks of one leg.
type LegReport struct {
	// Trigger is the first doubtful joint whose extrapolation fell below
	// the floor, or None.
	Trigger l1joints.JointID
	Locked  [4]bool // thigh, shin, foot, toe
}

// Report summarises one Evaluate call.
type Report struct {
	Right, Left LegReport
	Locked      []l1joints.JointID
}

// Gate evaluates joint reliability.
type Gate struct {
	cfg Config
}

// NewGate creates a gate.
func NewGate(cfg Config) *Gate { return &Gate{cfg: cfg} }

// Config returns the gate thresholds.
func (g *Gate) Config() Config { return g.cfg }

// MarkVisibility sets Visible on every source joint from its score.
func (g *Gate) MarkVisibility(a *l1joints.Arena) {
	for i := 0; i < l1joints.SourceCount; i++ {
		j := a.At(l1joints.JointID(i))
		j.Visible = j.Score3D > g.cfg.VisibleThreshold
	}
}

// Evaluate recomputes every Lock flag of a from this frame alone.
func (g *Gate) Evaluate(a *l1joints.Arena, locks UserLocks) Report {
	a.ClearLocks()

	rep := Report{
		Right: g.evaluateLeg(a, RightLeg, locks),
		Left:  g.evaluateLeg(a, LeftLeg, locks),
	}
	if locks.LockHand {
		for _, id := range append(append([]l1joints.JointID(nil), rightHandChain...), leftHandChain...) {
			a.At(id).Lock = true
		}
	}
	for i := l1joints.JointID(0); i < l1joints.Count; i++ {
		if a.At(i).Lock {
			rep.Locked = append(rep.Locked, i)
		}
	}
	return rep
}

// evaluateLeg checks thigh->shin, shin->foot and foot->toe in turn. A
// trusted parent with a doubtful child is extrapolated through the child;
// if that lands below the floor the child's parent and everything below
// it is locked.
func (g *Gate) evaluateLeg(a *l1joints.Arena, leg Leg, locks UserLocks) LegReport {
	rep := LegReport{Trigger: l1joints.None}
	chain := leg.chain()

	for i := 0; i < len(chain)-1 && rep.Trigger == l1joints.None; i++ {
		parent, child := a.At(chain[i]), a.At(chain[i+1])
		if child.Score3D >= g.cfg.FootCheckThreshold || parent.Score3D <= g.cfg.FootCheckThreshold {
			continue
		}
		if g.Extrapolate(parent.Pos3D, child.Pos3D) < g.cfg.FloorThreshold {
			rep.Trigger = chain[i+1]
			for k := i; k < len(chain); k++ {
				rep.Locked[k] = true
			}
		}
	}

	if locks.LockLegs {
		rep.Locked = [4]bool{true, true, true, true}
	}
	if locks.LockFoot {
		rep.Locked[2], rep.Locked[3] = true, true
	}
	for k, id := range chain {
		if rep.Locked[k] {
			a.At(id).Lock = true
		}
	}
	return rep
}

// Extrapolate returns the Y of parent + (child-parent)*ExtrapolationFactor.
func (g *Gate) Extrapolate(parent, child geom.Vec3) float64 {
	return parent.Y() + (child.Y()-parent.Y())*g.cfg.ExtrapolationFactor
}
