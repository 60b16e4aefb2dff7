package control

import (
	"layerctl/pkg/filter"
	"layerctl/pkg/registry"
)

// SelectFilter selects value in the filter of layer id. The empty value
// cancels the filter. Layers without a filter ignore the call.
func (c *Control) SelectFilter(id registry.ID, value string) error {
	e, ok := c.reg.Lookup(id)
	if !ok || e.Filter == nil {
		return nil
	}
	if err := filter.Select(e.Layer, e.Filter, value); err != nil {
		return err
	}
	c.log.Debug("Layer filter changed", "name", e.Name, "value", value, "applied", e.Filter.Applied)
	c.publish()
	return nil
}

// OpenFilter reveals the filter selector of layer id and re-applies its
// current selection.
func (c *Control) OpenFilter(id registry.ID) error {
	e, ok := c.reg.Lookup(id)
	if !ok || e.Filter == nil {
		return nil
	}
	c.openFor[id] = true
	if err := filter.Select(e.Layer, e.Filter, e.Filter.Selected); err != nil {
		return err
	}
	c.publish()
	return nil
}

// CancelFilter hides the filter selector of layer id and removes the filter.
func (c *Control) CancelFilter(id registry.ID) error {
	e, ok := c.reg.Lookup(id)
	if !ok || e.Filter == nil {
		return nil
	}
	delete(c.openFor, id)
	if err := filter.Cancel(e.Layer, e.Filter); err != nil {
		return err
	}
	c.log.Debug("Layer filter cancelled", "name", e.Name)
	c.publish()
	return nil
}
