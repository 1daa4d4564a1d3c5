package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWobble writes frames where LeftHand follows a slow sine with
// alternating-sign noise on Y.
func writeWobble(t *testing.T, n int) string {
	t.Helper()
	var buf bytes.Buffer
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		f := l1joints.Frame{
			Timestamp: start.Add(time.Duration(i) * time.Second / 30),
			Keypoints: make([]l1joints.Keypoint, l1joints.SourceCount),
		}
		noise := 0.02
		if i%2 == 1 {
			noise = -noise
		}
		y := 1.2 + 0.1*math.Sin(float64(i)/10) + noise
		f.Keypoints[l1joints.LeftHand] = l1joints.Keypoint{Pos3D: geom.Vec3{0.7, y, 0}, Score: 0.9}
		b, err := json.Marshal(f)
		require.NoError(t, err)
		buf.Write(b)
		buf.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "wobble.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func jitterOf(t *testing.T, report, name string) float64 {
	t.Helper()
	for _, line := range strings.Split(report, "\n") {
		f := strings.Fields(line)
		if len(f) == 4 && f[0] == name {
			v, err := strconv.ParseFloat(f[1], 64)
			require.NoError(t, err)
			return v
		}
	}
	t.Fatalf("no %q row in:\n%s", name, report)
	return 0
}

func TestRun(t *testing.T) {
	t.Parallel()
	input := writeWobble(t, 120)
	outDir := t.TempDir()

	var out bytes.Buffer
	require.NoError(t, run([]string{"-input", input, "-joint", "lefthand", "-axis", "y", "-out", outDir}, &out))

	raw := jitterOf(t, out.String(), "raw")
	assert.Greater(t, raw, 0.05)
	assert.Less(t, jitterOf(t, out.String(), "low-pass"), raw)

	info, err := os.Stat(filepath.Join(outDir, "LeftHand_y.png"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_BadArgs(t *testing.T) {
	t.Parallel()
	input := writeWobble(t, 2)
	tests := []struct {
		name string
		args []string
	}{
		{"no source", nil},
		{"unknown joint", []string{"-input", input, "-joint", "Tail"}},
		{"synthesized joint", []string{"-input", input, "-joint", "Chest"}},
		{"bad axis", []string{"-input", input, "-axis", "w"}},
		{"too short", []string{"-input", input}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.args, &bytes.Buffer{}))
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	raw := []float64{0, 1, 0, 1}
	st := summarize([]float64{0.5, 0.5, 0.5, 0.5}, raw)
	assert.Zero(t, st.jitter)
	assert.InDelta(t, 0.5, st.rmsDev, 1e-12)
	assert.InDelta(t, 0.5, st.maxDev, 1e-12)
}
