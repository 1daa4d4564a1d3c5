// Package monitor serves the operator HTTP interface: pipeline status and
// control, recent-frame charts, recorded sessions and the debug console.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l4reliability"
	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/avatar/storage/sqlite"
	"github.com/banshee-data/posetrack/internal/avatar/telemetry"
	"github.com/banshee-data/posetrack/internal/httputil"
	"github.com/banshee-data/posetrack/internal/monitoring"
	"github.com/banshee-data/posetrack/internal/security"
	"github.com/banshee-data/posetrack/internal/version"
)

// Controller is the pipeline surface the monitor drives.
// *pipeline.Pipeline satisfies it.
type Controller interface {
	Status() pipeline.Status
	Calibrate() error
	Pause()
	Resume()
	SetUserLocks(l4reliability.UserLocks)
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address   string
	Pipeline  Controller
	History   *History
	Store     *sqlite.Store        // optional; enables sessions and /debug/tailsql
	Telemetry *telemetry.Publisher // optional; adds stream counters to status
}

// WebServer handles the monitor HTTP interface.
type WebServer struct {
	address   string
	pipeline  Controller
	history   *History
	store     *sqlite.Store
	telemetry *telemetry.Publisher
	started   time.Time
	server    *http.Server
}

// NewWebServer creates a web server. History defaults to a 300-frame ring
// when nil.
func NewWebServer(cfg WebServerConfig) *WebServer {
	ws := &WebServer{
		address:   cfg.Address,
		pipeline:  cfg.Pipeline,
		history:   cfg.History,
		store:     cfg.Store,
		telemetry: cfg.Telemetry,
		started:   time.Now(),
	}
	if ws.history == nil {
		ws.history = NewHistory(300)
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Handler returns the route table.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/status", ws.handleStatus)
	mux.HandleFunc("/api/calibrate", ws.handleCalibrate)
	mux.HandleFunc("/api/pause", ws.handlePause)
	mux.HandleFunc("/api/resume", ws.handleResume)
	mux.HandleFunc("/api/locks", ws.handleLocks)
	mux.HandleFunc("/api/history", ws.handleHistory)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	mux.HandleFunc("/api/sessions/export", ws.handleSessionExport)
	mux.HandleFunc("/charts", ws.handleCharts)
	if ws.store != nil {
		AttachAdminRoutes(mux, ws.store)
	}
	return mux
}

// Start serves until ctx is cancelled, then shuts down.
func (ws *WebServer) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("[monitor] HTTP server listening on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("monitor server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[monitor] shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("[monitor] force close error: %v", err)
		}
	}
	monitoring.Logf("[monitor] HTTP server stopped")
	return nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "posetrack",
		"version":   version.String(),
		"uptime":    time.Since(ws.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type statusResponse struct {
	pipeline.Status
	Telemetry *telemetry.Stats `json:"telemetry,omitempty"`
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.pipeline == nil {
		httputil.ServiceUnavailable(w, "no pipeline attached")
		return
	}
	resp := statusResponse{Status: ws.pipeline.Status()}
	if ws.telemetry != nil {
		st := ws.telemetry.Stats()
		resp.Telemetry = &st
	}
	httputil.WriteJSONOK(w, resp)
}

// control wraps POST-only pipeline actions.
func (ws *WebServer) control(w http.ResponseWriter, r *http.Request, action func() error) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.pipeline == nil {
		httputil.ServiceUnavailable(w, "no pipeline attached")
		return
	}
	if err := action(); err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	httputil.WriteJSONOK(w, ws.pipeline.Status())
}

func (ws *WebServer) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	ws.control(w, r, func() error {
		ws.history.Reset()
		return ws.pipeline.Calibrate()
	})
}

func (ws *WebServer) handlePause(w http.ResponseWriter, r *http.Request) {
	ws.control(w, r, func() error {
		ws.pipeline.Pause()
		return nil
	})
}

func (ws *WebServer) handleResume(w http.ResponseWriter, r *http.Request) {
	ws.control(w, r, func() error {
		ws.pipeline.Resume()
		return nil
	})
}

type locksRequest struct {
	LockLegs bool `json:"lock_legs"`
	LockFoot bool `json:"lock_foot"`
	LockHand bool `json:"lock_hand"`
}

func (ws *WebServer) handleLocks(w http.ResponseWriter, r *http.Request) {
	ws.control(w, r, func() error {
		var req locksRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
			return fmt.Errorf("invalid locks body: %w", err)
		}
		ws.pipeline.SetUserLocks(l4reliability.UserLocks{
			LockLegs: req.LockLegs,
			LockFoot: req.LockFoot,
			LockHand: req.LockHand,
		})
		return nil
	})
}

// handleHistory returns recent per-frame samples, oldest first.
// Query params:
//   - n (optional; default 100)
func (ws *WebServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	n, err := httputil.QueryInt(r, "n", min(100, ws.history.Cap()), 1, ws.history.Cap())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, ws.history.Last(n))
}

// handleSessions lists recorded sessions (GET) or deletes one (DELETE ?id=).
func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.ServiceUnavailable(w, "recording is disabled")
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := ws.store.ListSessions(r.Context())
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if list == nil {
			list = []sqlite.Session{}
		}
		httputil.WriteJSONOK(w, list)
	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			httputil.BadRequest(w, "missing id")
			return
		}
		err := ws.store.DeleteSession(r.Context(), id)
		if errors.Is(err, sqlite.ErrSessionNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleSessionExport downloads a session's input frames as JSONL, the
// format `posetrack import` reads.
// Query params:
//   - id (required)
func (ws *WebServer) handleSessionExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.ServiceUnavailable(w, "recording is disabled")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "missing id")
		return
	}
	sess, err := ws.store.GetSession(r.Context(), id)
	if errors.Is(err, sqlite.ErrSessionNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := security.SanitizeFilename(sess.RigName+"-"+sess.ID) + ".jsonl"
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	enc := json.NewEncoder(w)
	err = ws.store.EachFrame(r.Context(), id, func(rec sqlite.FrameRecord) error {
		return enc.Encode(rec.Frame)
	})
	if err != nil {
		monitoring.Logf("[monitor] export %s: %v", id, err)
	}
}
