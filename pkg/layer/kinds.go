package layer

// Kind names a concrete layer implementation.
type Kind string

const (
	KindTile   Kind = "tile"
	KindWMS    Kind = "wms"
	KindVector Kind = "vector"
)

// TileLayer is a raster tile layer addressed by a URL template.
type TileLayer struct {
	URL     string
	opts    Options
	zIndex  int
	redraws int
}

// NewTileLayer creates a tile layer.
func NewTileLayer(url string, opts Options) *TileLayer {
	return &TileLayer{URL: url, opts: opts}
}

func (t *TileLayer) Options() *Options { return &t.opts }
func (t *TileLayer) SetZIndex(z int)   { t.zIndex = z }
func (t *TileLayer) ZIndex() int       { return t.zIndex }
func (t *TileLayer) Redraw()           { t.redraws++ }

// Redraws returns how many times the layer was asked to redraw.
func (t *TileLayer) Redraws() int { return t.redraws }

// WMSLayer is a tile layer backed by a WMS endpoint. Its request parameters
// live in a Params document so filters can rewrite them.
type WMSLayer struct {
	TileLayer
	params *Params
}

// NewWMSLayer creates a WMS layer. A nil params starts from an empty document.
func NewWMSLayer(url string, params *Params, opts Options) *WMSLayer {
	if params == nil {
		params = NewParams("")
	}
	return &WMSLayer{
		TileLayer: TileLayer{URL: url, opts: opts},
		params:    params,
	}
}

func (w *WMSLayer) Params() *Params { return w.params }

// VectorLayer is a client-side vector layer (GeoJSON). It neither stacks by
// z-index nor redraws on demand.
type VectorLayer struct {
	URL  string
	opts Options
}

// NewVectorLayer creates a vector layer.
func NewVectorLayer(url string, opts Options) *VectorLayer {
	return &VectorLayer{URL: url, opts: opts}
}

func (v *VectorLayer) Options() *Options { return &v.opts }
