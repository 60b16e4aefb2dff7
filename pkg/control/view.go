package control

import (
	"fmt"

	"layerctl/pkg/registry"
)

// InputKind is the selector rendered for a layer.
type InputKind string

const (
	InputRadio    InputKind = "radio"
	InputCheckbox InputKind = "checkbox"
)

const baseRadioGroup = "base-layers"

// View is a snapshot of the rendered control.
type View struct {
	Expanded  bool         `json:"expanded"`
	Separator bool         `json:"separator"`
	Base      []ItemView   `json:"base"`
	Groups    []*GroupView `json:"groups"` // indexed by group id, nil where no layer renders
}

// GroupView is a rendered overlay group container.
type GroupView struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Exclusive   bool       `json:"exclusive"`
	HasCheckbox bool       `json:"has_checkbox"`
	Checked     bool       `json:"checked"`
	Items       []ItemView `json:"items"`
}

// ItemView is one rendered layer selector.
type ItemView struct {
	ID         registry.ID   `json:"id"`
	Name       string        `json:"name"`
	Role       registry.Role `json:"role"`
	GroupID    int           `json:"group_id"`
	Input      InputKind     `json:"input"`
	RadioGroup string        `json:"radio_group,omitempty"`
	Checked    bool          `json:"checked"`
	Disabled   bool          `json:"disabled"`
	Filter     *FilterView   `json:"filter,omitempty"`
}

// FilterView is the rendered state of a layer's filter selector.
type FilterView struct {
	Options  []FilterOption `json:"options"`
	Selected string         `json:"selected"`
	Applied  bool           `json:"applied"`
	Open     bool           `json:"open"`
}

// FilterOption is one entry of a filter selector.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// item is the rendered state of one registered layer.
type item struct {
	entry      *registry.Entry
	input      InputKind
	radioGroup string
	groupID    int
	checked    bool
	disabled   bool
}

// plain reports whether the item is an independent overlay checkbox.
func (it *item) plain() bool {
	return it.input == InputCheckbox
}

func newItem(e *registry.Entry, checked bool) *item {
	it := &item{
		entry:   e,
		input:   InputRadio,
		groupID: -1,
		checked: checked,
	}
	switch {
	case !e.Overlay():
		it.radioGroup = baseRadioGroup
	case e.Group.Exclusive:
		it.groupID = e.Group.ID
		it.radioGroup = fmt.Sprintf("exclusive-group-%d", e.Group.ID)
	default:
		it.groupID = e.Group.ID
		it.input = InputCheckbox
	}
	return it
}

// render rebuilds the rendered items from the registry and the surface, then
// derives disabled state. It does nothing while detached.
func (c *Control) render() {
	if c.surface == nil {
		return
	}

	entries := c.reg.Entries()
	c.items = make([]*item, 0, len(entries))
	c.itemsByID = make(map[registry.ID]*item, len(entries))
	for _, e := range entries {
		it := newItem(e, c.surface.HasLayer(e.Layer))
		c.items = append(c.items, it)
		c.itemsByID[e.ID] = it
	}

	c.checkDisabled()
}

// publish hands the current view to the renderer.
func (c *Control) publish() {
	if c.renderer == nil || c.surface == nil {
		return
	}
	c.renderer.Render(c.View())
}

// hasGroupCheckbox reports whether g renders a group-wide checkbox.
func (c *Control) hasGroupCheckbox(g *registry.Group) bool {
	return c.cfg.GroupCheckboxes && g.Name != "" && !g.Exclusive
}

// View returns a snapshot of the rendered control. A detached control has an
// empty view.
func (c *Control) View() View {
	v := View{Expanded: c.expanded}
	if c.surface == nil {
		return v
	}

	groups := c.reg.Groups()
	v.Groups = make([]*GroupView, len(groups))
	var hasBase, hasOverlay bool

	for _, it := range c.items {
		iv := c.itemView(it)
		if !it.entry.Overlay() {
			hasBase = true
			v.Base = append(v.Base, iv)
			continue
		}
		hasOverlay = true

		g := it.entry.Group
		gv := v.Groups[g.ID]
		if gv == nil {
			gv = &GroupView{
				ID:          g.ID,
				Name:        g.Name,
				Exclusive:   g.Exclusive,
				HasCheckbox: c.hasGroupCheckbox(g),
			}
			v.Groups[g.ID] = gv
		}
		gv.Items = append(gv.Items, iv)
	}

	for _, gv := range v.Groups {
		if gv == nil || !gv.HasCheckbox {
			continue
		}
		gv.Checked = len(gv.Items) > 0
		for _, iv := range gv.Items {
			if !iv.Checked {
				gv.Checked = false
				break
			}
		}
	}

	v.Separator = hasBase && hasOverlay
	return v
}

func (c *Control) itemView(it *item) ItemView {
	e := it.entry
	iv := ItemView{
		ID:         e.ID,
		Name:       e.Name,
		Role:       e.Role,
		GroupID:    it.groupID,
		Input:      it.input,
		RadioGroup: it.radioGroup,
		Checked:    it.checked,
		Disabled:   it.disabled,
	}
	if d := e.Filter; d != nil {
		fv := &FilterView{
			Options:  make([]FilterOption, 0, len(d.Values)),
			Selected: d.Selected,
			Applied:  d.Applied,
			Open:     c.openFor[e.ID],
		}
		for _, val := range d.Values {
			label := val
			if val == "" {
				label = d.NullPrompt
			}
			fv.Options = append(fv.Options, FilterOption{Value: val, Label: label})
		}
		iv.Filter = fv
	}
	return iv
}
