package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/avatar/storage/sqlite"
	"github.com/banshee-data/posetrack/internal/avatar/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	st        pipeline.Status
	calErr    error
	calls     []string
	userLocks l4reliability.UserLocks
}

func (f *fakePipeline) Status() pipeline.Status { return f.st }

func (f *fakePipeline) Calibrate() error {
	f.calls = append(f.calls, "calibrate")
	if f.calErr != nil {
		return f.calErr
	}
	f.st.Calibrated = true
	return nil
}

func (f *fakePipeline) Pause() {
	f.calls = append(f.calls, "pause")
	f.st.Paused = true
}

func (f *fakePipeline) Resume() {
	f.calls = append(f.calls, "resume")
	f.st.Paused = false
}

func (f *fakePipeline) SetUserLocks(l l4reliability.UserLocks) {
	f.calls = append(f.calls, "locks")
	f.userLocks = l
}

func frame(seq uint64, score float64, locked ...l1joints.JointID) *pipeline.FrameResult {
	return &pipeline.FrameResult{
		Sequence:       seq,
		Timestamp:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second),
		EstimatedScore: score,
		PoseValid:      true,
		Locks:          l4reliability.Report{Locked: locked},
	}
}

func serve(t *testing.T, ws *WebServer, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	ws.server.Handler.ServeHTTP(w, req)
	return w
}

func TestHistory_Ring(t *testing.T) {
	t.Parallel()
	h := NewHistory(3)
	assert.Empty(t, h.Last(10))

	for i := uint64(1); i <= 5; i++ {
		h.Publish(frame(i, float64(i)/10, l1joints.LeftFoot))
	}
	got := h.Last(10)
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{3, 4, 5}, []uint64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.Equal(t, []string{"LeftFoot"}, got[2].Locked)

	got = h.Last(2)
	assert.Equal(t, uint64(4), got[0].Seq)

	h.Reset()
	assert.Empty(t, h.Last(3))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ws := NewWebServer(WebServerConfig{})
	w := serve(t, ws, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "posetrack", body["service"])
}

func TestStatus(t *testing.T) {
	t.Parallel()
	fp := &fakePipeline{st: pipeline.Status{Calibrated: true, Frames: 3, Locked: []string{}}}
	pub := telemetry.NewPublisher(telemetry.Config{Buffer: 1})
	pub.Publish(frame(1, 1))
	ws := NewWebServer(WebServerConfig{Pipeline: fp, Telemetry: pub})

	w := serve(t, ws, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Calibrated bool            `json:"calibrated"`
		Frames     uint64          `json:"frames"`
		Telemetry  telemetry.Stats `json:"telemetry"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.Calibrated)
	assert.Equal(t, uint64(3), body.Frames)
	assert.Equal(t, uint64(1), body.Telemetry.Published)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, ws, http.MethodPost, "/api/status", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, NewWebServer(WebServerConfig{}), http.MethodGet, "/api/status", "").Code)
}

func TestControl(t *testing.T) {
	t.Parallel()
	fp := &fakePipeline{}
	h := NewHistory(10)
	h.Publish(frame(1, 1))
	ws := NewWebServer(WebServerConfig{Pipeline: fp, History: h})

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, ws, http.MethodGet, "/api/pause", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, ws, http.MethodPost, "/api/pause", "").Code)
	assert.True(t, fp.st.Paused)
	assert.Equal(t, http.StatusOK, serve(t, ws, http.MethodPost, "/api/resume", "").Code)
	assert.False(t, fp.st.Paused)

	assert.Equal(t, http.StatusOK, serve(t, ws, http.MethodPost, "/api/calibrate", "").Code)
	assert.True(t, fp.st.Calibrated)
	assert.Empty(t, h.Last(10), "calibration starts a fresh history")

	fp.calErr = errors.New("rig is not humanoid")
	w := serve(t, ws, http.MethodPost, "/api/calibrate", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "rig is not humanoid")

	assert.Equal(t, http.StatusOK, serve(t, ws, http.MethodPost, "/api/locks", `{"lock_foot":true}`).Code)
	assert.Equal(t, l4reliability.UserLocks{LockFoot: true}, fp.userLocks)
	assert.Equal(t, http.StatusUnprocessableEntity, serve(t, ws, http.MethodPost, "/api/locks", `{`).Code)
	assert.Equal(t, l4reliability.UserLocks{LockFoot: true}, fp.userLocks, "a malformed body leaves the locks alone")

	assert.Equal(t, []string{"pause", "resume", "calibrate", "calibrate", "locks"}, fp.calls)
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()
	h := NewHistory(5)
	for i := uint64(1); i <= 4; i++ {
		h.Publish(frame(i, 0.5))
	}
	ws := NewWebServer(WebServerConfig{History: h})

	tests := []struct {
		query string
		code  int
		n     int
	}{
		{"", http.StatusOK, 4},
		{"?n=2", http.StatusOK, 2},
		{"?n=0", http.StatusBadRequest, 0},
		{"?n=6", http.StatusBadRequest, 0},
		{"?n=x", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(t, ws, http.MethodGet, "/api/history"+tt.query, "")
			require.Equal(t, tt.code, w.Code)
			if tt.code != http.StatusOK {
				return
			}
			var got []Sample
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Len(t, got, tt.n)
		})
	}
}

func TestCharts(t *testing.T) {
	t.Parallel()
	h := NewHistory(10)
	ws := NewWebServer(WebServerConfig{History: h})
	assert.Equal(t, http.StatusNotFound, serve(t, ws, http.MethodGet, "/charts", "").Code)

	for i := uint64(1); i <= 6; i++ {
		h.Publish(frame(i, 0.9, l1joints.RightShin))
	}
	w := serve(t, ws, http.MethodGet, "/charts?n=4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Reliability")
	assert.Contains(t, w.Body.String(), "frames 3-6")
}

func TestSessions(t *testing.T) {
	t.Parallel()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "rec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, sqlite.Session{ID: "a", RigName: "robot", StartedAt: time.Now()}))

	ws := NewWebServer(WebServerConfig{Store: store})
	w := serve(t, ws, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []sqlite.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "robot", list[0].RigName)

	require.NoError(t, store.InsertFrames(ctx, []sqlite.FrameRecord{
		{SessionID: "a", Seq: 1, Frame: l1joints.Frame{Timestamp: time.Unix(1, 0).UTC(), Keypoints: []l1joints.Keypoint{{Score: 0.5}}}},
		{SessionID: "a", Seq: 2, Frame: l1joints.Frame{Timestamp: time.Unix(2, 0).UTC(), Keypoints: []l1joints.Keypoint{{Score: 0.25}}}},
	}))
	w = serve(t, ws, http.MethodGet, "/api/sessions/export?id=a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="robot-a.jsonl"`, w.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	var f l1joints.Frame
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &f))
	assert.Equal(t, 0.25, f.Keypoints[0].Score)
	assert.Equal(t, http.StatusNotFound, serve(t, ws, http.MethodGet, "/api/sessions/export?id=zz", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, ws, http.MethodGet, "/api/sessions/export", "").Code)

	assert.Equal(t, http.StatusBadRequest, serve(t, ws, http.MethodDelete, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusNoContent, serve(t, ws, http.MethodDelete, "/api/sessions?id=a", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, ws, http.MethodDelete, "/api/sessions?id=a", "").Code)

	assert.Equal(t, http.StatusServiceUnavailable, serve(t, NewWebServer(WebServerConfig{}), http.MethodGet, "/api/sessions", "").Code)
}

func TestAttachAdminRoutes(t *testing.T) {
	t.Parallel()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "rec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mux := http.NewServeMux()
	AttachAdminRoutes(mux, store)

	// tsweb may refuse non-local callers, but every route must exist.
	for _, endpoint := range []string{"/debug/tailsql/", "/debug/schema", "/debug/backup"} {
		t.Run(endpoint, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, endpoint, nil))
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}
