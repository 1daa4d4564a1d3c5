package monitor

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/storage/sqlite"
	"github.com/banshee-data/posetrack/internal/httputil"
	"github.com/banshee-data/posetrack/internal/monitoring"
	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// AttachAdminRoutes mounts the debug console on mux: a live SQL view of
// the recordings database, a migration summary and a backup download.
// tsweb restricts /debug/ to local and tailnet callers.
func AttachAdminRoutes(mux *http.ServeMux, store *sqlite.Store) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		monitoring.Logf("[monitor] tailsql disabled: %v", err)
	} else {
		tsql.SetDB("sqlite://"+filepath.Base(store.Path()), store.DB(), &tailsql.DBOptions{
			Label: "Pose recordings",
		})
		debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	}

	debug.Handle("schema", "Recording schema version", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, dirty, err := store.MigrateVersion()
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputil.WriteJSONOK(w, map[string]any{
			"version": v,
			"dirty":   dirty,
			"latest":  sqlite.SchemaVersion,
		})
	}))

	debug.Handle("backup", "Download a consistent copy of the recordings database", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dir, err := os.MkdirTemp("", "posetrack-backup-")
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer os.RemoveAll(dir)

		name := fmt.Sprintf("recordings-%d.db", time.Now().Unix())
		path := filepath.Join(dir, name)
		if _, err := store.DB().ExecContext(r.Context(), "VACUUM INTO ?", path); err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("backup failed: %v", err))
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, path)
	}))
}
