package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l2smoothing"
	"github.com/banshee-data/posetrack/internal/avatar/l3synthesis"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/avatar/l5retarget"
	"github.com/banshee-data/posetrack/internal/avatar/l6footik"
	"github.com/banshee-data/posetrack/internal/monitoring"
	"github.com/banshee-data/posetrack/internal/timeutil"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotCalibrated is returned by Process until Calibrate succeeds.
	ErrNotCalibrated = errors.New("pipeline is not calibrated")
	// ErrPaused is returned by Process while the pipeline is paused.
	ErrPaused = errors.New("pipeline is paused")
)

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock stamps frames that arrive without a timestamp.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithSink registers a sink at construction.
func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, s) }
}

// Pipeline runs the avatar layers for one rig.
type Pipeline struct {
	mu sync.Mutex

	cfg   Config
	sk    l5retarget.Skeleton
	clock timeutil.Clock
	steps *timeutil.FrameClock

	smoother   *l2smoothing.Smoother
	gate       *l4reliability.Gate
	footIK     *l6footik.Solver
	cal        *l5retarget.Calibration
	retargeter *l5retarget.Retargeter
	arena      *l1joints.Arena

	session uuid.UUID
	seq     uint64
	paused  bool
	errMsg  string
	last    *FrameResult
	sinks   []Sink
}

// New builds an uncalibrated pipeline. ray may be nil when foot IK is
// not wanted.
func New(cfg Config, sk l5retarget.Skeleton, ray l6footik.Raycaster, opts ...Option) *Pipeline {
	if cfg.Topology == nil {
		cfg.Topology = l1joints.DefaultTopology()
	}
	p := &Pipeline{
		cfg:      cfg,
		sk:       sk,
		clock:    timeutil.RealClock{},
		smoother: l2smoothing.NewSmoother(cfg.Smoothing),
		gate:     l4reliability.NewGate(cfg.Reliability),
		footIK:   l6footik.NewSolver(sk, ray, cfg.FootIK),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.steps = timeutil.NewFrameClock(p.clock, frameInterval(cfg.Smoothing.FrameRate))
	return p
}

func frameInterval(rate float64) time.Duration {
	if rate <= 0 {
		rate = 30
	}
	return time.Duration(float64(time.Second) / rate)
}

// Calibrate measures the rig, which must be at rest, and starts a new
// session. On failure the reason is kept for Status and the pipeline
// stays uncalibrated.
func (p *Pipeline) Calibrate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cal, err := l5retarget.Calibrate(p.sk, l5retarget.CalibrateOptions{
		Topology:  p.cfg.Topology,
		Synthesis: p.cfg.Synthesis,
		Retarget:  p.cfg.Retarget,
	})
	if err != nil {
		p.cal, p.retargeter, p.arena = nil, nil, nil
		p.errMsg = err.Error()
		monitoring.Logf("[calibrate] %v", err)
		return fmt.Errorf("calibrate: %w", err)
	}

	arena := l1joints.NewArena(cal.Topology)
	for i, on := range cal.Enabled {
		arena.SetEnabled(l1joints.JointID(i), on)
	}
	p.cal = cal
	p.arena = arena
	p.retargeter = l5retarget.NewRetargeter(p.sk, cal, p.cfg.Retarget)
	p.smoother.Reset()
	p.steps.Reset()
	p.session = uuid.New()
	p.seq = 0
	p.errMsg = ""
	p.last = nil
	p.paused = false
	monitoring.Logf("[calibrate] session %s: %d joints enabled, center tall %.2f",
		p.session, len(cal.EnabledJoints()), cal.CenterTall)
	return nil
}

// Process runs one frame through every layer and writes the rig.
func (p *Pipeline) Process(f l1joints.Frame) (*FrameResult, error) {
	res, sinks, err := p.process(f)
	if err != nil {
		return nil, err
	}
	for _, s := range sinks {
		s.Publish(res)
	}
	return res, nil
}

func (p *Pipeline) process(f l1joints.Frame) (*FrameResult, []Sink, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cal == nil {
		return nil, nil, ErrNotCalibrated
	}
	if p.paused {
		return nil, nil, ErrPaused
	}
	if err := p.arena.Load(f); err != nil {
		return nil, nil, fmt.Errorf("load frame: %w", err)
	}
	dt, ts := p.steps.Step(f.Timestamp)
	if err := p.smoother.SmoothArena(p.arena, dt); err != nil {
		return nil, nil, fmt.Errorf("smooth frame: %w", err)
	}

	p.gate.MarkVisibility(p.arena)
	syn := l3synthesis.Synthesize(p.arena, p.cfg.Synthesis)
	locks := p.gate.Evaluate(p.arena, p.cfg.Locks)
	rr := p.retargeter.Retarget(p.arena, syn)
	var ik l6footik.Result
	if rr.PoseValid && !syn.PoorLowerBody {
		ik = p.footIK.Solve()
	}

	p.seq++
	res := &FrameResult{
		SessionID:      p.session,
		Sequence:       p.seq,
		Timestamp:      ts,
		DT:             dt,
		Input:          f,
		Joints:         p.arena.Snapshot(),
		Bones:          p.bonePoses(),
		EstimatedScore: estimatedScore(f),
		PoseValid:      rr.PoseValid,
		PoorLowerBody:  syn.PoorLowerBody,
		Locks:          locks,
		Retarget:       rr,
		FootIK:         ik,
	}
	p.last = res
	if !rr.PoseValid {
		monitoring.Debugf("[pipeline] frame %d rejected: right %.1f deg, up/down %.1f deg",
			p.seq, rr.RightAngleDeg, rr.UpDownAngleDeg)
	}
	return res, append([]Sink(nil), p.sinks...), nil
}

func (p *Pipeline) bonePoses() []BonePose {
	out := make([]BonePose, 0, len(l5retarget.DriveOrder))
	for _, id := range l5retarget.DriveOrder {
		if !p.cal.Enabled[id] || !p.cal.Records[id].Valid {
			continue
		}
		bone := p.cal.Topology.Bone(id)
		pos, rot, ok := p.sk.WorldPose(bone)
		if !ok {
			continue
		}
		out = append(out, BonePose{Joint: id, Bone: bone, Position: pos, Rotation: rot})
	}
	return out
}

// estimatedScore is the mean confidence of the source keypoints.
func estimatedScore(f l1joints.Frame) float64 {
	n := min(len(f.Keypoints), l1joints.SourceCount)
	if n == 0 {
		return 0
	}
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = f.Keypoints[i].Score
	}
	return stat.Mean(scores, nil)
}

// Pause stops tracking and puts the rig back into its rest pose.
func (p *Pipeline) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	if p.cal != nil {
		p.cal.ApplyTPose(p.sk)
	}
}

// Resume restarts tracking with fresh filter and retarget state.
func (p *Pipeline) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	p.smoother.Reset()
	p.steps.Reset()
	if p.retargeter != nil {
		p.retargeter.Reset()
	}
}

// SetUserLocks replaces the operator lock switches from the next frame.
func (p *Pipeline) SetUserLocks(l l4reliability.UserLocks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Locks = l
}

// ReconfigureFilters applies new smoothing settings. Any change discards
// all filter state; it reports whether that happened.
func (p *Pipeline) ReconfigureFilters(cfg l2smoothing.Config) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Smoothing = cfg
	return p.smoother.Configure(cfg)
}

// SetFootIK replaces the foot IK settings.
func (p *Pipeline) SetFootIK(cfg l6footik.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.FootIK = cfg
	p.footIK.SetConfig(cfg)
}

// AddSink registers s for every subsequent frame.
func (p *Pipeline) AddSink(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, s)
}

// Calibration returns the active calibration, or nil.
func (p *Pipeline) Calibration() *l5retarget.Calibration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cal
}

// SessionID identifies the current calibration.
func (p *Pipeline) SessionID() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Last returns the most recent result, or nil.
func (p *Pipeline) Last() *FrameResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Status reports the pipeline's externally visible state.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{
		Calibrated:   p.cal != nil,
		Paused:       p.paused,
		ErrorMessage: p.errMsg,
		Frames:       p.seq,
		FilterResets: p.smoother.Resets(),
		UserLocks:    p.cfg.Locks,
		Locked:       []string{},
	}
	if p.cal != nil {
		st.SessionID = p.session.String()
		st.EnabledJoints = len(p.cal.EnabledJoints())
	}
	if p.last != nil {
		st.EstimatedScore = p.last.EstimatedScore
		st.PoseValid = p.last.PoseValid
		st.PoorLowerBody = p.last.PoorLowerBody
		for _, id := range p.last.Locked() {
			st.Locked = append(st.Locked, id.String())
		}
	}
	return st
}
