package l2smoothing

import (
	"sync"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
	"golang.org/x/sync/errgroup"
)

// Stream distinguishes the two keypoint streams a smoother keeps apart.
type Stream int

const (
	Stream3D Stream = iota
	Stream2D
	streamCount
)

func (s Stream) String() string {
	if s == Stream2D {
		return "2d"
	}
	return "3d"
}

// Smoother owns one Chain per (stream, source joint). Chains are
// independent, so a frame may be filtered across joints in parallel.
type Smoother struct {
	mu     sync.Mutex
	cfg    Config
	chains [streamCount][l1joints.SourceCount]*Chain
	resets int
}

// NewSmoother builds fresh chains for cfg.
func NewSmoother(cfg Config) *Smoother {
	s := &Smoother{cfg: cfg}
	s.rebuild()
	return s
}

func (s *Smoother) rebuild() {
	for st := range s.chains {
		for j := range s.chains[st] {
			s.chains[st][j] = NewChain(s.cfg)
		}
	}
}

// Config returns the active configuration.
func (s *Smoother) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Resets counts how many times filter state has been discarded.
func (s *Smoother) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Configure swaps in cfg. When anything changed every chain is rebuilt
// from scratch so no stale state survives. It reports whether a rebuild
// happened.
func (s *Smoother) Configure(cfg Config) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		return false
	}
	s.cfg = cfg
	s.rebuild()
	s.resets++
	return true
}

// Reset discards filter state without changing configuration.
func (s *Smoother) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for st := range s.chains {
		for _, c := range s.chains[st] {
			c.Reset()
		}
	}
	s.resets++
}

// Smooth filters positions in place. positions is indexed by source
// JointID and may be shorter than SourceCount.
func (s *Smoother) Smooth(stream Stream, positions []geom.Vec3, dt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chains := &s.chains[stream]
	n := min(len(positions), len(chains))
	if !s.cfg.Parallel {
		for j := 0; j < n; j++ {
			positions[j] = chains[j].Apply(positions[j], dt)
		}
		return nil
	}

	var g errgroup.Group
	for j := 0; j < n; j++ {
		g.Go(func() error {
			positions[j] = chains[j].Apply(positions[j], dt)
			return nil
		})
	}
	return g.Wait()
}

// SmoothArena runs the 3D stream, and the 2D stream when enabled, over
// the source joints of a.
func (s *Smoother) SmoothArena(a *l1joints.Arena, dt float64) error {
	buf := make([]geom.Vec3, l1joints.SourceCount)
	a.SourcePositions(buf)
	if err := s.Smooth(Stream3D, buf, dt); err != nil {
		return err
	}
	a.SetSourcePositions(buf)

	if !s.Config().Smooth2D {
		return nil
	}
	a.Source2DPositions(buf)
	if err := s.Smooth(Stream2D, buf, dt); err != nil {
		return err
	}
	a.SetSource2DPositions(buf)
	return nil
}
