// Package catalog turns the configured layer catalog into concrete layers
// ready to hand to a layer control.
package catalog

import (
	"fmt"
	"log/slog"

	"layerctl/pkg/config"
	"layerctl/pkg/control"
	"layerctl/pkg/layer"
)

// Catalog is the set of layers built from configuration.
type Catalog struct {
	Base     []control.Named
	Overlays []control.OverlayGroup
	// Active lists the layers flagged to be shown on the map at startup.
	Active []layer.Layer

	byName map[string]layer.Layer
}

// Build creates the layers described by cfg.
func Build(cfg config.CatalogConfig) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]layer.Layer)}

	for _, spec := range cfg.Base {
		l, err := c.add(spec)
		if err != nil {
			return nil, err
		}
		c.Base = append(c.Base, control.Named{Name: spec.Name, Layer: l})
	}

	for _, g := range cfg.Overlays {
		group := control.OverlayGroup{Name: g.Name}
		for _, spec := range g.Layers {
			l, err := c.add(spec)
			if err != nil {
				return nil, err
			}
			group.Layers = append(group.Layers, control.Named{Name: spec.Name, Layer: l})
		}
		c.Overlays = append(c.Overlays, group)
	}
	return c, nil
}

func (c *Catalog) add(spec config.LayerSpec) (layer.Layer, error) {
	if _, dup := c.byName[spec.Name]; dup {
		return nil, fmt.Errorf("duplicate layer name '%s'", spec.Name)
	}
	l, err := NewLayer(spec)
	if err != nil {
		return nil, err
	}
	c.byName[spec.Name] = l
	if spec.Active {
		c.Active = append(c.Active, l)
	}
	return l, nil
}

// Layer returns the layer built for name.
func (c *Catalog) Layer(name string) (layer.Layer, bool) {
	l, ok := c.byName[name]
	return l, ok
}

// Len returns the number of layers in the catalog.
func (c *Catalog) Len() int {
	return len(c.byName)
}

// NewLayer builds a single layer from its spec.
func NewLayer(spec config.LayerSpec) (layer.Layer, error) {
	opts := layer.Options{
		MinZoom: spec.MinZoom,
		MaxZoom: spec.MaxZoom,
		Filter:  spec.Filter,
	}

	switch layer.Kind(spec.Kind) {
	case layer.KindTile:
		warnUnfilterable(spec)
		return layer.NewTileLayer(spec.URL, opts), nil
	case layer.KindWMS:
		params, err := layer.ParamsFromMap(spec.Params)
		if err != nil {
			return nil, fmt.Errorf("layer '%s': invalid params: %w", spec.Name, err)
		}
		return layer.NewWMSLayer(spec.URL, params, opts), nil
	case layer.KindVector:
		warnUnfilterable(spec)
		return layer.NewVectorLayer(spec.URL, opts), nil
	default:
		return nil, fmt.Errorf("layer '%s': unknown kind '%s'", spec.Name, spec.Kind)
	}
}

func warnUnfilterable(spec config.LayerSpec) {
	if spec.Filter != nil {
		slog.Warn("Filter ignored: layer kind has no request parameters", "layer", spec.Name, "kind", spec.Kind)
	}
}
