package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
		zoom float64
		want bool
	}{
		{"NilOptions", nil, 3, false},
		{"NoBounds", &Options{}, 18, false},
		{"BelowMin", &Options{MinZoom: Zoom(5)}, 4, true},
		{"AtMin", &Options{MinZoom: Zoom(5)}, 5, false},
		{"AboveMax", &Options{MaxZoom: Zoom(10)}, 10.5, true},
		{"AtMax", &Options{MaxZoom: Zoom(10)}, 10, false},
		{"InsideBoth", &Options{MinZoom: Zoom(5), MaxZoom: Zoom(10)}, 7, false},
		{"OutsideBoth", &Options{MinZoom: Zoom(5), MaxZoom: Zoom(10)}, 12, true},
		{"ZeroMinIsABound", &Options{MinZoom: Zoom(0)}, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.OutOfRange(tt.zoom); got != tt.want {
				t.Errorf("OutOfRange(%v) = %v, want %v", tt.zoom, got, tt.want)
			}
		})
	}
}

func TestParams_SetAndDelete(t *testing.T) {
	p := NewParams("")
	assert.Equal(t, "{}", p.String())

	require.NoError(t, p.Set("wms.CQL_FILTER", "color='red'"))
	assert.Equal(t, "color='red'", p.Get("wms.CQL_FILTER").String())

	require.NoError(t, p.Delete("wms.CQL_FILTER"))
	assert.False(t, p.Has("wms.CQL_FILTER"))
	assert.True(t, p.Get("wms").IsObject(), "intermediate object must survive deletion")
}

func TestParams_DeleteMissingPath(t *testing.T) {
	p := NewParams(`{"layers":"roads"}`)

	require.NoError(t, p.Delete("a.b.c"))
	require.NoError(t, p.Delete("layers.sub"))
	assert.Equal(t, `{"layers":"roads"}`, p.String())
}

func TestParamsFromMap(t *testing.T) {
	p, err := ParamsFromMap(map[string]any{
		"layers": "rivers",
		"style":  map[string]any{"opacity": 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "rivers", p.Get("layers").String())
	assert.InDelta(t, 0.5, p.Get("style.opacity").Float(), 1e-9)

	empty, err := ParamsFromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", empty.String())
}

func TestCapabilities(t *testing.T) {
	var l Layer = NewWMSLayer("https://example.test/wms", nil, Options{})
	_, isZ := l.(ZIndexer)
	_, isR := l.(Redrawer)
	_, isF := l.(Filterable)
	assert.True(t, isZ)
	assert.True(t, isR)
	assert.True(t, isF)

	l = NewVectorLayer("lakes.geojson", Options{})
	_, isZ = l.(ZIndexer)
	_, isR = l.(Redrawer)
	_, isF = l.(Filterable)
	assert.False(t, isZ)
	assert.False(t, isR)
	assert.False(t, isF)
}
