package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRestFile(t *testing.T, n int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, runRest([]string{"-n", strconv.Itoa(n), "-rate", "10"}, &buf))
	path := filepath.Join(t.TempDir(), "rest.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestRest(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, runRest([]string{"-n", "3", "-rate", "10"}, &buf))

	var got []l1joints.Frame
	require.NoError(t, readFrames(&buf, func(f l1joints.Frame) error {
		got = append(got, f)
		return nil
	}))
	require.Len(t, got, 3)
	assert.Equal(t, 200*time.Millisecond, got[2].Timestamp.Sub(got[0].Timestamp))
	assert.Len(t, got[0].Keypoints, l1joints.SourceCount)

	assert.Error(t, runRest([]string{"-n", "0"}, &buf))
}

func TestReadFrames_Errors(t *testing.T) {
	t.Parallel()
	noop := func(l1joints.Frame) error { return nil }

	err := readFrames(strings.NewReader("\n{not json}\n"), noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	err = readFrames(strings.NewReader(`{"timestamp":"2025-06-01T09:00:00Z","keypoints":[]}`), noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need")

	assert.NoError(t, readFrames(strings.NewReader("\n\n"), noop))
}

func TestImportReplaySessions(t *testing.T) {
	t.Parallel()
	input := writeRestFile(t, 5)
	db := filepath.Join(t.TempDir(), "rec.db")

	var out bytes.Buffer
	require.NoError(t, runImport([]string{"-db", db, "-note", "rest check", input}, &out))
	fields := strings.Fields(out.String())
	require.GreaterOrEqual(t, len(fields), 6, out.String())
	assert.Equal(t, "5", fields[1])
	id := fields[5]

	out.Reset()
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	require.NoError(t, replay(context.Background(),
		[]string{"-db", db, "-session", id, "-record", "-realtime", "-speed", "2"}, &out, clock))
	assert.Contains(t, out.String(), "frames=5 rejected=0")
	assert.Equal(t, []time.Duration{
		50 * time.Millisecond,
		50 * time.Millisecond,
		50 * time.Millisecond,
		50 * time.Millisecond,
	}, clock.Sleeps())

	out.Reset()
	require.NoError(t, runSessions([]string{"-db", db}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3, "header, imported and recorded sessions")
	assert.Contains(t, out.String(), "rest check")
	assert.Contains(t, out.String(), "default-humanoid")

	out.Reset()
	require.NoError(t, runSessions([]string{"-db", db, "-delete", id}, &out))
	assert.Error(t, runSessions([]string{"-db", db, "-delete", id}, &out))
}

func TestReplay_Input(t *testing.T) {
	t.Parallel()
	input := writeRestFile(t, 4)

	var out bytes.Buffer
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	require.NoError(t, replay(context.Background(), []string{"-input", input, "-no-ik"}, &out, clock))
	assert.Contains(t, out.String(), "frames=4 rejected=0")
	assert.Empty(t, clock.Sleeps(), "no pacing without -realtime")
}

func TestReplay_Flags(t *testing.T) {
	t.Parallel()
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	tests := []struct {
		name string
		args []string
	}{
		{"no source", nil},
		{"both sources", []string{"-input", "a.jsonl", "-session", "x"}},
		{"bad speed", []string{"-input", "a.jsonl", "-speed", "0"}},
		{"missing file", []string{"-input", filepath.Join(t.TempDir(), "missing.jsonl")}},
		{"unknown session", []string{"-db", filepath.Join(t.TempDir(), "rec.db"), "-session", "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, replay(context.Background(), tt.args, &bytes.Buffer{}, clock))
		})
	}
}
