package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "recordings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFrame(i int) l1joints.Frame {
	f := l1joints.Frame{
		Timestamp: epoch.Add(time.Duration(i) * 33 * time.Millisecond),
		Keypoints: make([]l1joints.Keypoint, l1joints.SourceCount),
	}
	for j := range f.Keypoints {
		f.Keypoints[j] = l1joints.Keypoint{
			Pos3D: geom.Vec3{float64(j), float64(i) * 0.5, -1.25},
			Pos2D: geom.Vec3{float64(j) * 10, 20, 0},
			Score: 0.75,
		}
	}
	return f
}

func TestOpen_Migrates(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(SchemaVersion), v)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	require.NoError(t, s.MigrateUp())
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "r.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateSession(context.Background(), Session{ID: "a", StartedAt: epoch}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetSession(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, epoch.Equal(got.StartedAt), got.StartedAt)
}

func TestSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateSession(ctx, Session{ID: "old", RigName: "default-humanoid", StartedAt: epoch}))
	require.NoError(t, s.CreateSession(ctx, Session{ID: "new", RigName: "robot", Note: "jumping", StartedAt: epoch.Add(time.Hour)}))
	// Duplicate IDs are ignored.
	require.NoError(t, s.CreateSession(ctx, Session{ID: "new", RigName: "other", StartedAt: epoch}))

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "robot", list[0].RigName)
	assert.Nil(t, list[0].EndedAt)

	require.NoError(t, s.InsertFrames(ctx, []FrameRecord{
		{SessionID: "old", Seq: 1, Frame: sampleFrame(1)},
		{SessionID: "old", Seq: 2, Frame: sampleFrame(2)},
	}))
	require.NoError(t, s.EndSession(ctx, "old", epoch.Add(time.Minute)))
	got, err := s.GetSession(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, 2, got.FrameCount)
	require.NotNil(t, got.EndedAt)
	assert.True(t, epoch.Add(time.Minute).Equal(*got.EndedAt))

	assert.ErrorIs(t, s.EndSession(ctx, "missing", epoch), ErrSessionNotFound)
	_, err = s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.DeleteSession(ctx, "old"))
	frames, err := s.Frames(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, frames, "frames cascade with their session")
	assert.ErrorIs(t, s.DeleteSession(ctx, "old"), ErrSessionNotFound)
}

func TestFrames_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CreateSession(ctx, Session{ID: "s", StartedAt: epoch}))

	want := []FrameRecord{
		{SessionID: "s", Seq: 1, Frame: sampleFrame(1), EstimatedScore: 0.75, PoseValid: true, Locked: []string{}},
		{SessionID: "s", Seq: 2, Frame: sampleFrame(2), PoorLowerBody: true, Locked: []string{"RightShin", "RightFoot"}},
	}
	require.NoError(t, s.InsertFrames(ctx, want))

	got, err := s.Frames(ctx, "s")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)
	rec := NewRecorder(s, "default-humanoid", 64)

	sessions := []uuid.UUID{uuid.New(), uuid.New()}
	seq := 0
	for si, id := range sessions {
		for i := 1; i <= 3+si; i++ {
			seq++
			rec.Publish(&pipeline.FrameResult{
				SessionID: id,
				Sequence:  uint64(i),
				Timestamp: epoch.Add(time.Duration(seq) * time.Second),
				Input:     sampleFrame(seq),
				PoseValid: true,
				Locks:     l4reliability.Report{Locked: []l1joints.JointID{l1joints.LeftShin}},
			})
		}
	}
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close(), "close is idempotent")
	assert.Equal(t, uint64(7), rec.Written()+rec.Dropped())
	require.Zero(t, rec.Dropped())

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	counts := map[string]int{}
	for _, sess := range list {
		counts[sess.ID] = sess.FrameCount
		assert.NotNil(t, sess.EndedAt, sess.ID)
		assert.Equal(t, "default-humanoid", sess.RigName)
	}
	assert.Equal(t, map[string]int{sessions[0].String(): 3, sessions[1].String(): 4}, counts)

	frames, err := s.Frames(ctx, sessions[1].String())
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, []string{"LeftShin"}, frames[0].Locked)
	assert.True(t, epoch.Add(4*time.Second).Equal(frames[0].Frame.Timestamp))
}
