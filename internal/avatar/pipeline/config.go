package pipeline

import (
	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l2smoothing"
	"github.com/banshee-data/posetrack/internal/avatar/l3synthesis"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/avatar/l5retarget"
	"github.com/banshee-data/posetrack/internal/avatar/l6footik"
	"github.com/banshee-data/posetrack/internal/config"
)

// Config gathers the per-layer configuration.
type Config struct {
	Topology    *l1joints.Topology
	Smoothing   l2smoothing.Config
	Synthesis   l3synthesis.Config
	Reliability l4reliability.Config
	Locks       l4reliability.UserLocks
	Retarget    l5retarget.Config
	FootIK      l6footik.Config
}

// DefaultConfig returns pipeline configuration loaded from the canonical
// tuning defaults file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds every layer's Config from one TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Topology:    l1joints.DefaultTopology(),
		Smoothing:   l2smoothing.ConfigFromTuning(cfg),
		Synthesis:   l3synthesis.ConfigFromTuning(cfg),
		Reliability: l4reliability.ConfigFromTuning(cfg),
		Locks:       l4reliability.UserLocksFromTuning(cfg),
		Retarget:    l5retarget.ConfigFromTuning(cfg),
		FootIK:      l6footik.ConfigFromTuning(cfg),
	}
}
