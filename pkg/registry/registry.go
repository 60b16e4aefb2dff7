// Package registry holds the canonical mapping from layer identity to the
// control's per-layer metadata: display name, role, group and filter state.
package registry

import (
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"layerctl/pkg/filter"
	"layerctl/pkg/layer"
)

// ID is the identity token assigned to a layer on first registration.
type ID string

// Role is the display role of a registered layer.
type Role string

const (
	RoleBase    Role = "base"
	RoleOverlay Role = "overlay"
)

// Group is an overlay group. Ids are assigned in first-seen order and never
// reused or compacted.
type Group struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Exclusive bool   `json:"exclusive"`
}

// Entry is the registry record for one layer.
type Entry struct {
	ID     ID
	Layer  layer.Layer
	Name   string
	Role   Role
	Group  *Group             // nil for base layers
	Filter *filter.Descriptor // nil when the layer declares no usable filter
}

// Overlay reports whether the entry is an overlay.
func (e *Entry) Overlay() bool {
	return e.Role == RoleOverlay
}

// Options configures a Registry.
type Options struct {
	AutoZIndex      bool
	ExclusiveGroups []string
}

// Registry is owned by a single control. It is not safe for concurrent use.
type Registry struct {
	entries    map[ID]*Entry
	ids        map[layer.Layer]ID
	order      []ID
	groups     []*Group
	groupIndex map[string]int
	exclusive  map[string]bool
	autoZIndex bool
	lastZIndex int
	newID      func() ID
}

// New creates an empty registry.
func New(opts Options) *Registry {
	excl := make(map[string]bool, len(opts.ExclusiveGroups))
	for _, name := range opts.ExclusiveGroups {
		excl[name] = true
	}
	r := &Registry{
		exclusive:  excl,
		autoZIndex: opts.AutoZIndex,
		newID:      func() ID { return ID(uuid.NewString()) },
	}
	r.Reset()
	return r
}

// Reset drops every entry and group and restarts z-index assignment.
func (r *Registry) Reset() {
	r.entries = make(map[ID]*Entry)
	r.ids = make(map[layer.Layer]ID)
	r.order = nil
	r.groups = nil
	r.groupIndex = make(map[string]int)
	r.lastZIndex = 0
}

// Register records l under name. Overlays join the group named groupName ("" is
// the ungrouped group). Registering a layer that is already known overwrites
// its entry but keeps its identity and position.
func (r *Registry) Register(l layer.Layer, name, groupName string, overlay bool) *Entry {
	var prev *Entry
	id, known := r.ids[l]
	if known {
		prev = r.entries[id]
	}
	if !known {
		id = r.newID()
		r.ids[l] = id
		r.order = append(r.order, id)
	}

	e := &Entry{
		ID:    id,
		Layer: l,
		Name:  name,
		Role:  RoleBase,
	}
	if overlay {
		e.Role = RoleOverlay
		e.Group = r.resolveGroup(groupName)
	}

	if opts := l.Options(); opts != nil && opts.Filter != nil {
		if _, ok := l.(layer.Filterable); ok {
			e.Filter = filter.NewDescriptor(opts.Filter)
		}
	}
	if prev != nil {
		carryFilter(l, prev.Filter, e.Filter)
	}

	if r.autoZIndex {
		if z, ok := l.(layer.ZIndexer); ok {
			r.lastZIndex++
			z.SetZIndex(r.lastZIndex)
		}
	}

	r.entries[id] = e
	return e
}

// carryFilter moves an applied selection from old to next when next targets
// the same property and still offers the value. Otherwise the old filter is
// cancelled so the parameters hold no value next does not account for.
func carryFilter(l layer.Layer, old, next *filter.Descriptor) {
	if old == nil || !old.Applied {
		return
	}
	if next != nil && next.TargetProperty == old.TargetProperty && next.Offers(old.Selected) {
		if next.Template == old.Template {
			next.Selected = old.Selected
			next.Applied = true
			return
		}
		if err := filter.Select(l, next, old.Selected); err != nil {
			slog.Warn("Failed to reapply filter", "value", old.Selected, "error", err)
		}
		return
	}
	if err := filter.Cancel(l, old); err != nil {
		slog.Warn("Failed to cancel stale filter", "property", old.TargetProperty, "error", err)
	}
}

func (r *Registry) resolveGroup(name string) *Group {
	if idx, ok := r.groupIndex[name]; ok {
		return r.groups[idx]
	}
	g := &Group{
		ID:        len(r.groups),
		Name:      name,
		Exclusive: r.exclusive[name],
	}
	r.groups = append(r.groups, g)
	r.groupIndex[name] = g.ID
	return g
}

// Unregister removes l. Group ids of the remaining entries are unchanged.
// It reports whether l was registered.
func (r *Registry) Unregister(l layer.Layer) bool {
	id, ok := r.ids[l]
	if !ok {
		return false
	}
	delete(r.ids, l)
	delete(r.entries, id)
	r.order = slices.DeleteFunc(r.order, func(x ID) bool { return x == id })
	return true
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id ID) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// EntryFor returns the entry for the layer handle l.
func (r *Registry) EntryFor(l layer.Layer) (*Entry, bool) {
	id, ok := r.ids[l]
	if !ok {
		return nil, false
	}
	return r.Lookup(id)
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	return len(r.order)
}

// Groups returns every group ever created, indexed by group id.
func (r *Registry) Groups() []*Group {
	return slices.Clone(r.groups)
}

// Group returns the group with the given id.
func (r *Registry) Group(id int) (*Group, bool) {
	if id < 0 || id >= len(r.groups) {
		return nil, false
	}
	return r.groups[id], true
}

// LastZIndex returns the most recently assigned z-index.
func (r *Registry) LastZIndex() int {
	return r.lastZIndex
}
