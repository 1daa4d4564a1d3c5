package l6footik

import (
	"math"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l5retarget"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/geom"
)

// Config holds the foot IK settings.
type Config struct {
	Enabled        bool
	RayOriginLift  float64 // ray start above the lowest foot point
	RayMaxDistance float64 // how far below the foot ground is searched
	HeelOffset     float64 // extra height of the planted foot above the hit
	LayerMask      uint32
}

// DefaultConfig returns foot IK configuration loaded from the canonical
// tuning defaults file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Enabled:        cfg.GetFootIKEnabled(),
		RayOriginLift:  cfg.GetRayOriginLift(),
		RayMaxDistance: cfg.GetRayMaxDistance(),
		HeelOffset:     cfg.GetHeelOffset(),
		LayerMask:      cfg.GetGroundLayer(),
	}
}

// LegChain names the bones of one leg.
type LegChain struct {
	Upper, Lower, Foot, Toes l1joints.HumanBone
}

// Legs are the right and left leg chains.
var Legs = [2]LegChain{
	{l1joints.BoneRightUpperLeg, l1joints.BoneRightLowerLeg, l1joints.BoneRightFoot, l1joints.BoneRightToes},
	{l1joints.BoneLeftUpperLeg, l1joints.BoneLeftLowerLeg, l1joints.BoneLeftFoot, l1joints.BoneLeftToes},
}

// LegResult describes one leg after solving.
type LegResult struct {
	Grounded bool // the ray found ground
	Hit      Hit
	Target   geom.Vec3 // where the foot bone was sent
	Residual float64   // distance left between foot and target
}

// Result summarises one Solve call.
type Result struct {
	Applied  bool
	RootLift float64 // raised before the first pass
	RootDrop float64 // lowered before the second pass
	Legs     [2]LegResult
}

// Solver plants the feet of a retargeted skeleton.
type Solver struct {
	cfg Config
	ray Raycaster
	sk  l5retarget.Skeleton
}

// NewSolver binds a solver to a skeleton and ground query. ray may be nil,
// which disables solving.
func NewSolver(sk l5retarget.Skeleton, ray Raycaster, cfg Config) *Solver {
	return &Solver{cfg: cfg, ray: ray, sk: sk}
}

// Config returns the active configuration.
func (s *Solver) Config() Config { return s.cfg }

// SetConfig replaces the configuration.
func (s *Solver) SetConfig(cfg Config) { s.cfg = cfg }

// Solve probes the ground and adjusts the root and both legs.
func (s *Solver) Solve() Result {
	var res Result
	if !s.cfg.Enabled || s.ray == nil || s.sk == nil {
		return res
	}

	penetration := math.Inf(-1)
	for i, leg := range Legs {
		lr, ok := s.probe(leg)
		res.Legs[i] = lr
		if !ok {
			continue
		}
		foot := s.pos(leg.Foot)
		penetration = math.Max(penetration, lr.Target.Y()-foot.Y())
	}
	if math.IsInf(penetration, -1) {
		return res
	}
	res.Applied = true

	if penetration > 0 {
		res.RootLift = penetration
		s.moveRoot(penetration)
	}
	gap := s.solvePass(&res)
	if gap > geom.Epsilon {
		res.RootDrop = gap
		s.moveRoot(-gap)
		s.solvePass(&res)
	}
	return res
}

// solvePass solves every grounded leg and returns the largest height by
// which a foot still hangs above its target.
func (s *Solver) solvePass(res *Result) float64 {
	gap := 0.0
	for i, leg := range Legs {
		lr := &res.Legs[i]
		if !lr.Grounded {
			continue
		}
		lr.Residual = s.SolveLeg(leg, lr.Target)
		foot := s.pos(leg.Foot)
		gap = math.Max(gap, foot.Y()-lr.Target.Y())
	}
	return gap
}

// probe casts down from under the foot and computes its target.
func (s *Solver) probe(leg LegChain) (LegResult, bool) {
	if !s.sk.HasBone(leg.Upper) || !s.sk.HasBone(leg.Lower) || !s.sk.HasBone(leg.Foot) {
		return LegResult{}, false
	}
	foot := s.pos(leg.Foot)
	contact := foot
	if s.sk.HasBone(leg.Toes) {
		if toe := s.pos(leg.Toes); toe.Y() < contact.Y() {
			contact = toe
		}
	}
	origin := contact.Add(geom.Up.Mul(s.cfg.RayOriginLift))
	hit, ok := s.ray.Raycast(origin, geom.Down, s.cfg.RayOriginLift+s.cfg.RayMaxDistance, s.cfg.LayerMask)
	if !ok {
		return LegResult{}, false
	}
	target := hit.Point.Add(geom.Up.Mul(s.cfg.HeelOffset)).Add(foot.Sub(contact))
	return LegResult{Grounded: true, Hit: hit, Target: target}, true
}

// SolveLeg bends the knee and swings the hip so the foot bone reaches
// target, or points straight at it when out of reach. The foot keeps its
// world rotation. It returns the remaining distance.
func (s *Solver) SolveLeg(leg LegChain, target geom.Vec3) float64 {
	hip, knee, foot := s.pos(leg.Upper), s.pos(leg.Lower), s.pos(leg.Foot)
	footRot := s.rot(leg.Foot)

	a := knee.Sub(hip).Len()
	b := foot.Sub(knee).Len()
	c := target.Sub(hip).Len()
	cur := geom.AngleRad(hip.Sub(knee), foot.Sub(knee))
	want := InteriorAngle(a, b, c)

	axis := hip.Sub(knee).Cross(foot.Sub(knee))
	if geom.IsZero(axis) {
		axis = s.lateral().Mul(-1)
	}
	if delta := want - cur; math.Abs(delta) > geom.Epsilon {
		q := geom.AxisAngle(axis, delta).Mul(s.rot(leg.Lower)).Normalize()
		s.sk.SetWorldRotation(leg.Lower, q)
	}

	foot = s.pos(leg.Foot)
	swing := geom.FromTo(foot.Sub(hip), target.Sub(hip))
	s.sk.SetWorldRotation(leg.Upper, swing.Mul(s.rot(leg.Upper)).Normalize())
	s.sk.SetWorldRotation(leg.Foot, footRot)

	return s.pos(leg.Foot).Sub(target).Len()
}

// lateral is the hips' right axis.
func (s *Solver) lateral() geom.Vec3 {
	return geom.NormalizeOr(s.pos(Legs[0].Upper).Sub(s.pos(Legs[1].Upper)), geom.Right)
}

func (s *Solver) moveRoot(dy float64) {
	root := s.pos(l1joints.BoneHips)
	s.sk.SetWorldPosition(l1joints.BoneHips, root.Add(geom.Up.Mul(dy)))
}

func (s *Solver) pos(b l1joints.HumanBone) geom.Vec3 {
	p, _, _ := s.sk.WorldPose(b)
	return p
}

func (s *Solver) rot(b l1joints.HumanBone) geom.Quat {
	_, q, ok := s.sk.WorldPose(b)
	if !ok {
		return geom.Identity()
	}
	return q
}

// InteriorAngle is the angle in radians opposite side c of a triangle
// with sides a and b. Impossible triangles saturate: a+b < c gives π and
// c < |a-b| gives 0.
func InteriorAngle(a, b, c float64) float64 {
	switch {
	case a+b < c:
		return math.Pi
	case c < math.Abs(a-b):
		return 0
	case a < geom.Epsilon || b < geom.Epsilon:
		return math.Pi
	}
	cos := (a*a + b*b - c*c) / (2 * a * b)
	return math.Acos(geom.Clamp(cos, -1, 1))
}
