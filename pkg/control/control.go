// Package control implements the grouped layer control: it registers base and
// overlay layers, keeps the rendered selection state in step with the layers
// active on a map surface, and emits overlay/base-layer change events.
//
// A Control is single-threaded. Every method runs to completion on the
// caller's goroutine, and surface events are handled synchronously inside the
// surface call that fired them.
package control

import (
	"log/slog"

	"layerctl/pkg/layer"
	"layerctl/pkg/registry"
	"layerctl/pkg/surface"
)

// Config is the construction-time configuration of a Control.
type Config struct {
	Collapsed       bool
	AutoZIndex      bool
	ExclusiveGroups []string
	GroupCheckboxes bool
}

// DefaultConfig returns the default control configuration.
func DefaultConfig() Config {
	return Config{
		Collapsed:  true,
		AutoZIndex: true,
	}
}

// Named pairs a layer with its display name.
type Named struct {
	Name  string
	Layer layer.Layer
}

// OverlayGroup is an ordered set of overlays shown under one group name.
type OverlayGroup struct {
	Name   string
	Layers []Named
}

// LayerEvent is the payload of overlayadd, overlayremove and baselayerchange.
type LayerEvent struct {
	Layer layer.Layer
	Name  string
	Group *registry.Group // nil for base layers
}

// Renderer receives the control's view whenever it changes.
type Renderer interface {
	Render(v View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

// Option customizes a Control.
type Option func(*Control)

// WithLogger sets the control's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Control) { c.log = l }
}

// WithRenderer sets the renderer notified on every view change.
func WithRenderer(r Renderer) Option {
	return func(c *Control) { c.renderer = r }
}

type subscription struct {
	event string
	id    surface.ListenerID
}

// Control is the grouped layer control.
type Control struct {
	cfg      Config
	reg      *registry.Registry
	log      *slog.Logger
	renderer Renderer

	surface   surface.Surface
	subs      []subscription
	items     []*item
	itemsByID map[registry.ID]*item
	openFor   map[registry.ID]bool
	expanded  bool

	// reconciling is set while the control itself mutates the surface, so the
	// add/remove events it causes do not trigger a re-render.
	reconciling bool
}

// New creates a control with the given base layers and grouped overlays,
// registered in the order given.
func New(cfg Config, base []Named, overlays []OverlayGroup, opts ...Option) *Control {
	c := &Control{
		cfg: cfg,
		reg: registry.New(registry.Options{
			AutoZIndex:      cfg.AutoZIndex,
			ExclusiveGroups: cfg.ExclusiveGroups,
		}),
		log:       slog.Default(),
		itemsByID: make(map[registry.ID]*item),
		openFor:   make(map[registry.ID]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, b := range base {
		c.reg.Register(b.Layer, b.Name, "", false)
	}
	for _, g := range overlays {
		for _, o := range g.Layers {
			c.reg.Register(o.Layer, o.Name, g.Name, true)
		}
	}
	return c
}

// Registry exposes the control's registry for read access.
func (c *Control) Registry() *registry.Registry {
	return c.reg
}

// Attached reports whether the control is attached to a surface.
func (c *Control) Attached() bool {
	return c.surface != nil
}

// Attach connects the control to s, renders it and starts listening for layer
// and zoom changes. A control attached elsewhere is detached first.
func (c *Control) Attach(s surface.Surface) {
	if c.surface != nil {
		c.Detach()
	}
	c.surface = s
	c.expanded = !c.cfg.Collapsed

	c.listen(surface.EventZoomEnd, func(surface.Event) { c.checkDisabled() })
	c.listen(surface.EventLayerAdd, c.handleLayerChange)
	c.listen(surface.EventLayerRemove, c.handleLayerChange)
	if c.cfg.Collapsed {
		c.listen(surface.EventClick, func(surface.Event) { c.Collapse() })
	}

	c.log.Debug("Layer control attached", "layers", c.reg.Len())
	c.render()
}

// Detach stops listening to the surface and tears down the registry.
func (c *Control) Detach() {
	if c.surface == nil {
		return
	}
	for _, sub := range c.subs {
		c.surface.Off(sub.event, sub.id)
	}
	c.subs = nil
	c.surface = nil
	c.items = nil
	c.itemsByID = make(map[registry.ID]*item)
	c.openFor = make(map[registry.ID]bool)
	c.reg.Reset()
	c.log.Debug("Layer control detached")
}

func (c *Control) listen(event string, h surface.Handler) {
	id := c.surface.On(event, h)
	c.subs = append(c.subs, subscription{event: event, id: id})
}

// AddBaseLayer registers l as a base layer and re-renders.
func (c *Control) AddBaseLayer(l layer.Layer, name string) registry.ID {
	e := c.reg.Register(l, name, "", false)
	c.render()
	return e.ID
}

// AddOverlay registers l as an overlay in group and re-renders. Whether the
// group is exclusive follows from the configuration.
func (c *Control) AddOverlay(l layer.Layer, name, group string) registry.ID {
	e := c.reg.Register(l, name, group, true)
	c.render()
	return e.ID
}

// RemoveLayer unregisters l and re-renders. The layer stays on the surface.
func (c *Control) RemoveLayer(l layer.Layer) {
	if e, ok := c.reg.EntryFor(l); ok {
		delete(c.openFor, e.ID)
	}
	c.reg.Unregister(l)
	c.render()
}

// Expand shows the layer list.
func (c *Control) Expand() {
	c.expanded = true
	c.publish()
}

// Collapse hides the layer list.
func (c *Control) Collapse() {
	c.expanded = false
	c.publish()
}

// Expanded reports whether the layer list is shown.
func (c *Control) Expanded() bool {
	return c.expanded
}
