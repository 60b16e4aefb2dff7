package control

import (
	"layerctl/pkg/logging"
	"layerctl/pkg/registry"
	"layerctl/pkg/surface"
)

// Toggle applies a user click on the selector of layer id. Radio selectors
// (base layers and exclusive overlay groups) cannot be unchecked by a click;
// selecting one clears the others in its radio group. Disabled and unknown
// selectors ignore clicks.
func (c *Control) Toggle(id registry.ID, checked bool) {
	it, ok := c.itemsByID[id]
	if !ok {
		c.log.Debug("Toggle for unrendered layer ignored", "id", id)
		return
	}
	if it.disabled {
		c.log.Debug("Toggle for disabled layer ignored", "id", id, "name", it.entry.Name)
		return
	}

	switch it.input {
	case InputRadio:
		if !checked {
			return
		}
		for _, other := range c.items {
			if other.input == InputRadio && other.radioGroup == it.radioGroup {
				other.checked = false
			}
		}
		it.checked = true
	default:
		it.checked = checked
	}

	c.reconcile(c.syncSurface)
	c.publish()
}

// ToggleGroup applies a click on the group-wide checkbox of group groupID to
// every plain checkbox in that group. Groups without a group checkbox ignore
// it.
func (c *Control) ToggleGroup(groupID int, checked bool) {
	g, ok := c.reg.Group(groupID)
	if !ok || !c.hasGroupCheckbox(g) || c.surface == nil {
		return
	}

	c.reconcile(func() {
		for _, it := range c.items {
			if it.groupID != groupID || !it.plain() {
				continue
			}
			it.checked = checked
			c.syncItem(it)
		}
	})
	c.publish()
}

// reconcile runs fn with the reconciling flag held. Nested passes started by
// event handlers leave the flag as the outer pass set it; it is restored on
// every exit path.
func (c *Control) reconcile(fn func()) {
	prev := c.reconciling
	c.reconciling = true
	defer func() { c.reconciling = prev }()
	fn()
}

// syncSurface adds or removes layers wherever a rendered selector disagrees
// with the surface.
func (c *Control) syncSurface() {
	for _, it := range c.items {
		c.syncItem(it)
	}
}

func (c *Control) syncItem(it *item) {
	l := it.entry.Layer
	has := c.surface.HasLayer(l)
	switch {
	case it.checked && !has:
		c.log.Debug("Adding layer", "name", it.entry.Name)
		c.surface.AddLayer(l)
	case !it.checked && has:
		c.log.Debug("Removing layer", "name", it.entry.Name)
		c.surface.RemoveLayer(l)
	}
}

// handleLayerChange reacts to a layer being added to or removed from the
// surface by anyone. Outside of the control's own reconciliation the control
// re-renders; in all cases the matching control event is fired.
func (c *Control) handleLayerChange(ev surface.Event) {
	logging.Trace(c.log, "Surface layer event", "type", ev.Type, "reconciling", c.reconciling)
	if !c.reconciling {
		c.render()
	}

	e, ok := c.reg.EntryFor(ev.Layer)
	if !ok {
		return
	}

	var name string
	switch {
	case e.Overlay() && ev.Type == surface.EventLayerAdd:
		name = surface.EventOverlayAdd
	case e.Overlay():
		name = surface.EventOverlayRemove
	case ev.Type == surface.EventLayerAdd:
		name = surface.EventBaseLayerChange
	default:
		return
	}

	c.surface.Fire(name, surface.Event{
		Layer: e.Layer,
		Data:  LayerEvent{Layer: e.Layer, Name: e.Name, Group: e.Group},
	})
}

// checkDisabled derives the disabled state of every rendered selector from the
// surface zoom and the layer's zoom bounds, then publishes the view.
func (c *Control) checkDisabled() {
	if c.surface == nil {
		return
	}
	zoom := c.surface.Zoom()
	for _, it := range c.items {
		it.disabled = it.entry.Layer.Options().OutOfRange(zoom)
	}
	c.publish()
}

// Checked reports whether the selector of layer id is checked.
func (c *Control) Checked(id registry.ID) bool {
	it, ok := c.itemsByID[id]
	return ok && it.checked
}

// Disabled reports whether the selector of layer id is disabled.
func (c *Control) Disabled(id registry.ID) bool {
	it, ok := c.itemsByID[id]
	return ok && it.disabled
}
