package memsurface

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"layerctl/pkg/layer"
	"layerctl/pkg/surface"
)

func TestMap_AddRemove(t *testing.T) {
	m := New(orb.Point{13.4, 52.5}, 10)
	var events []string
	m.On(surface.EventLayerAdd, func(ev surface.Event) { events = append(events, ev.Type) })
	m.On(surface.EventLayerRemove, func(ev surface.Event) { events = append(events, ev.Type) })

	a := layer.NewTileLayer("a", layer.Options{})
	b := layer.NewTileLayer("b", layer.Options{})

	m.AddLayer(a)
	m.AddLayer(a)
	m.AddLayer(b)
	assert.True(t, m.HasLayer(a))
	assert.Equal(t, []layer.Layer{a, b}, m.Layers())

	m.RemoveLayer(a)
	m.RemoveLayer(a)
	assert.False(t, m.HasLayer(a))

	assert.Equal(t, []string{"layeradd", "layeradd", "layerremove"}, events)
}

func TestMap_SetView(t *testing.T) {
	tests := []struct {
		name     string
		zoom     float64
		wantZoom int
	}{
		{"ZoomChanged", 12, 1},
		{"ZoomUnchanged", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(orb.Point{0, 0}, 10)
			zooms, moves := 0, 0
			m.On(surface.EventZoomEnd, func(surface.Event) { zooms++ })
			m.On(surface.EventMoveEnd, func(surface.Event) { moves++ })

			m.SetView(orb.Point{2.35, 48.85}, tt.zoom)

			assert.Equal(t, tt.wantZoom, zooms)
			assert.Equal(t, 1, moves)
			assert.Equal(t, tt.zoom, m.Zoom())
			assert.Equal(t, orb.Point{2.35, 48.85}, m.Center())
		})
	}
}
