// Package layer defines the map layer contract consumed by the layer control,
// plus the optional capabilities a layer may expose.
package layer

// Layer is a handle to a map layer. Layers are referenced by identity, so
// implementations must be pointer types.
type Layer interface {
	Options() *Options
}

// ZIndexer is implemented by layers whose stacking order can be set.
type ZIndexer interface {
	SetZIndex(z int)
}

// Redrawer is implemented by layers that can be asked to re-render.
type Redrawer interface {
	Redraw()
}

// Filterable is implemented by layers exposing a parameter document that a
// value filter may rewrite.
type Filterable interface {
	Params() *Params
}

// Options holds the layer options the control reads.
type Options struct {
	MinZoom *float64
	MaxZoom *float64
	Filter  *FilterOptions
}

// FilterOptions declares a single-value filter on a layer.
type FilterOptions struct {
	Values         []string `yaml:"values" json:"values"`
	TargetProperty string   `yaml:"target_property" json:"targetProperty"`
	Template       string   `yaml:"template" json:"template"`
	NullPrompt     string   `yaml:"null_prompt,omitempty" json:"nullPrompt,omitempty"`
}

// Zoom returns a pointer to z, for use in Options literals.
func Zoom(z float64) *float64 {
	return &z
}

// OutOfRange reports whether zoom lies outside the layer's [MinZoom, MaxZoom].
// Unset bounds never exclude.
func (o *Options) OutOfRange(zoom float64) bool {
	if o == nil {
		return false
	}
	if o.MinZoom != nil && zoom < *o.MinZoom {
		return true
	}
	if o.MaxZoom != nil && zoom > *o.MaxZoom {
		return true
	}
	return false
}
