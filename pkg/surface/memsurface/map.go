// Package memsurface provides an in-memory map surface: it tracks the active
// layer set and the viewport and fires the same events a browser map would.
package memsurface

import (
	"log/slog"
	"slices"

	"github.com/paulmach/orb"

	"layerctl/pkg/layer"
	"layerctl/pkg/surface"
)

// Map implements surface.Surface.
type Map struct {
	surface.Emitter

	active []layer.Layer
	center orb.Point
	zoom   float64
	log    *slog.Logger
}

var _ surface.Surface = (*Map)(nil)

// New creates a map showing center at zoom with no active layers.
func New(center orb.Point, zoom float64) *Map {
	return &Map{
		center: center,
		zoom:   zoom,
		log:    slog.Default(),
	}
}

// SetLogger replaces the map's logger.
func (m *Map) SetLogger(l *slog.Logger) {
	m.log = l
}

// AddLayer activates l and fires layeradd. Active layers are ignored.
func (m *Map) AddLayer(l layer.Layer) {
	if m.HasLayer(l) {
		return
	}
	m.active = append(m.active, l)
	m.log.Debug("Layer added to map", "active", len(m.active))
	m.Fire(surface.EventLayerAdd, surface.Event{Layer: l})
}

// RemoveLayer deactivates l and fires layerremove. Inactive layers are ignored.
func (m *Map) RemoveLayer(l layer.Layer) {
	idx := slices.Index(m.active, l)
	if idx < 0 {
		return
	}
	m.active = slices.Delete(m.active, idx, idx+1)
	m.log.Debug("Layer removed from map", "active", len(m.active))
	m.Fire(surface.EventLayerRemove, surface.Event{Layer: l})
}

// HasLayer reports whether l is active.
func (m *Map) HasLayer(l layer.Layer) bool {
	return slices.Contains(m.active, l)
}

// Layers returns the active layers in activation order.
func (m *Map) Layers() []layer.Layer {
	return slices.Clone(m.active)
}

// Zoom returns the current zoom level.
func (m *Map) Zoom() float64 {
	return m.zoom
}

// Center returns the viewport center.
func (m *Map) Center() orb.Point {
	return m.center
}

// SetView moves the viewport. zoomend fires only when the zoom changes;
// moveend always fires.
func (m *Map) SetView(center orb.Point, zoom float64) {
	zoomChanged := zoom != m.zoom
	m.center = center
	m.zoom = zoom

	if zoomChanged {
		m.Fire(surface.EventZoomEnd, surface.Event{})
	}
	m.Fire(surface.EventMoveEnd, surface.Event{})
}

// SetZoom changes the zoom level, keeping the center.
func (m *Map) SetZoom(zoom float64) {
	m.SetView(m.center, zoom)
}

// Click fires a click on the map background.
func (m *Map) Click() {
	m.Fire(surface.EventClick, surface.Event{})
}
