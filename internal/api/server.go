package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"layerctl/pkg/config"
	"layerctl/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(cfg config.ServerConfig, ctl *ControlHandler, mapH *MapHandler, stats *StatsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.Handle("GET /api/stats", stats)
	mux.HandleFunc("POST /api/stats/reset", stats.HandleReset)

	// Control
	mux.HandleFunc("GET /api/control", ctl.HandleView)
	mux.HandleFunc("POST /api/control/toggle", ctl.Command(CmdToggle))
	mux.HandleFunc("POST /api/control/group", ctl.Command(CmdGroup))
	mux.HandleFunc("POST /api/control/filter", ctl.Command(CmdFilter))
	mux.HandleFunc("POST /api/control/filter/open", ctl.Command(CmdFilterOpen))
	mux.HandleFunc("POST /api/control/filter/cancel", ctl.Command(CmdFilterCancel))
	mux.HandleFunc("POST /api/control/expand", ctl.Command(CmdExpand))
	mux.HandleFunc("POST /api/control/collapse", ctl.Command(CmdCollapse))
	mux.HandleFunc("GET /ws", ctl.HandleWS)

	// Map surface
	mux.HandleFunc("GET /api/map/view", mapH.HandleGetView)
	mux.HandleFunc("POST /api/map/view", mapH.HandleSetView)
	mux.HandleFunc("POST /api/map/layers", mapH.HandleSetLayer)

	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Let the response flush first.
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      requestLog(mux),
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": %q}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
