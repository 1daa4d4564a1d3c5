package monitor

import (
	"sync"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/geom"
)

// Sample is the per-frame summary kept for charts.
type Sample struct {
	Seq            uint64    `json:"seq"`
	Timestamp      time.Time `json:"timestamp"`
	EstimatedScore float64   `json:"estimated_score"`
	PoseValid      bool      `json:"pose_valid"`
	PoorLowerBody  bool      `json:"poor_lower_body"`
	Locked         []string  `json:"locked"`
	Root           geom.Vec3 `json:"root"`
	Depth          float64   `json:"depth"`
	FootLift       float64   `json:"foot_lift"`
	FootDrop       float64   `json:"foot_drop"`
}

// History is a fixed-size ring of recent samples. It is a pipeline.Sink.
type History struct {
	mu    sync.Mutex
	buf   []Sample
	next  int
	count int
}

// NewHistory keeps the last size samples.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]Sample, size)}
}

// Publish records res.
func (h *History) Publish(res *pipeline.FrameResult) {
	s := Sample{
		Seq:            res.Sequence,
		Timestamp:      res.Timestamp,
		EstimatedScore: res.EstimatedScore,
		PoseValid:      res.PoseValid,
		PoorLowerBody:  res.PoorLowerBody,
		Locked:         make([]string, 0, len(res.Locked())),
		Root:           res.Retarget.RootPosition,
		Depth:          res.Retarget.Depth,
		FootLift:       res.FootIK.RootLift,
		FootDrop:       res.FootIK.RootDrop,
	}
	for _, id := range res.Locked() {
		s.Locked = append(s.Locked, id.String())
	}

	h.mu.Lock()
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
	h.mu.Unlock()
}

// Cap is the ring size.
func (h *History) Cap() int { return len(h.buf) }

// Last returns up to n samples, oldest first.
func (h *History) Last(n int) []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > h.count {
		n = h.count
	}
	out := make([]Sample, n)
	start := h.next - n
	if start < 0 {
		start += len(h.buf)
	}
	for i := range out {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

// Reset drops every sample.
func (h *History) Reset() {
	h.mu.Lock()
	h.next, h.count = 0, 0
	h.mu.Unlock()
}
