package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"layerctl/pkg/filter"
	"layerctl/pkg/registry"
)

// ControlHandler exposes the layer control over HTTP and the websocket.
type ControlHandler struct {
	session *Session
	hub     *Hub
}

// NewControlHandler creates a new ControlHandler.
func NewControlHandler(s *Session, hub *Hub) *ControlHandler {
	return &ControlHandler{session: s, hub: hub}
}

// HandleView returns the current control view.
func (h *ControlHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.session.View())
}

// Command returns a handler applying a command of the given type. The request
// body carries the remaining command fields and may be empty.
func (h *ControlHandler) Command(cmdType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd Command
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		cmd.Type = cmdType

		if err := h.session.Apply(cmd); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, h.session.View())
	}
}

// HandleWS serves the websocket view stream.
func (h *ControlHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, h.session.Apply)
}

// MapHandler exposes the map surface so tests and other clients can act on it
// the way a user panning the map or another component would.
type MapHandler struct {
	session *Session
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(s *Session) *MapHandler {
	return &MapHandler{session: s}
}

// ViewRequest moves the map viewport.
type ViewRequest struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom float64 `json:"zoom"`
}

// LayerRequest adds or removes a layer on the map.
type LayerRequest struct {
	ID     registry.ID `json:"id"`
	Active bool        `json:"active"`
}

// HandleGetView returns the viewport as a GeoJSON point feature.
func (h *MapHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.viewFeature())
}

// HandleSetView moves the viewport.
func (h *MapHandler) HandleSetView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Zoom < 0 {
		http.Error(w, "Invalid viewport", http.StatusBadRequest)
		return
	}

	h.session.SetView(orb.Point{req.Lon, req.Lat}, req.Zoom)
	writeJSON(w, h.viewFeature())
}

// HandleSetLayer adds or removes a layer on the map directly.
func (h *MapHandler) HandleSetLayer(w http.ResponseWriter, r *http.Request) {
	var req LayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.session.SetLayerActive(req.ID, req.Active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.viewFeature())
}

func (h *MapHandler) viewFeature() *geojson.Feature {
	mv := h.session.MapView()
	f := geojson.NewFeature(mv.Center)
	f.Properties["zoom"] = mv.Zoom
	f.Properties["active_layers"] = h.session.ActiveLayers()
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownLayer):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, filter.ErrUnknownValue), errors.Is(err, ErrUnknownCommand):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Control command failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
