package api

import (
	"log/slog"
	"net/http"
	"runtime"

	"layerctl/pkg/logging"
	"layerctl/pkg/tracker"
)

// StatsHandler reports emitted-event counters and server diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
	hub     *Hub
}

func NewStatsHandler(t *tracker.Tracker, hub *Hub) *StatsHandler {
	return &StatsHandler{tracker: t, hub: hub}
}

type DiagnosticsDTO struct {
	MemoryMB   uint64 `json:"memory_mb"`
	Goroutines int    `json:"goroutines"`
	WSClients  int    `json:"ws_clients"`
}

type StatsResponse struct {
	Diagnostics DiagnosticsDTO                `json:"diagnostics"`
	Layers      map[string]tracker.LayerStats `json:"layers"`
	LastEvent   string                        `json:"last_event"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, StatsResponse{
		Diagnostics: DiagnosticsDTO{
			MemoryMB:   mem.Alloc / 1024 / 1024,
			Goroutines: runtime.NumGoroutine(),
			WSClients:  h.hub.Len(),
		},
		Layers:    h.tracker.Snapshot(),
		LastEvent: logging.GlobalEventCapture.LastLine(),
	})
}

// HandleReset zeroes the event counters and returns the fresh stats.
func (h *StatsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.tracker.Reset()
	slog.Info("Layer event counters reset")
	h.ServeHTTP(w, r)
}
