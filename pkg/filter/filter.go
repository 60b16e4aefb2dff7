// Package filter implements the single-value layer filter: a selected value is
// substituted into a template and written to a property of the layer's
// parameter document, and the layer is redrawn.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"layerctl/pkg/layer"
)

// Placeholder is replaced by the selected value in a filter template.
const Placeholder = "{0}"

// ErrUnknownValue is returned when selecting a value the filter does not offer.
var ErrUnknownValue = errors.New("value not offered by filter")

// State is the lifecycle state of a Descriptor.
type State string

const (
	StateInactive State = "inactive"
	StateActive   State = "active"
)

// Descriptor is the filter state attached to one registered layer.
type Descriptor struct {
	Values         []string
	TargetProperty string
	Template       string
	NullPrompt     string
	Selected       string // "" means no filter selected
	Applied        bool   // target property currently holds a filter-derived value
}

// NewDescriptor builds a descriptor from declared options. The "" sentinel is
// always present at index 0.
func NewDescriptor(opts *layer.FilterOptions) *Descriptor {
	return &Descriptor{
		Values:         normalizeValues(opts.Values),
		TargetProperty: opts.TargetProperty,
		Template:       opts.Template,
		NullPrompt:     opts.NullPrompt,
	}
}

func normalizeValues(in []string) []string {
	out := make([]string, 0, len(in)+1)
	out = append(out, "")
	for _, v := range in {
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// State reports whether the filter is currently applied.
func (d *Descriptor) State() State {
	if d.Applied {
		return StateActive
	}
	return StateInactive
}

// Offers reports whether v is one of the declared values.
func (d *Descriptor) Offers(v string) bool {
	return slices.Contains(d.Values, v)
}

// Expand substitutes value into the template.
func (d *Descriptor) Expand(value string) string {
	return strings.Replace(d.Template, Placeholder, value, 1)
}

// Select applies value to the layer. The empty value cancels the filter.
// Every call redraws the layer, including re-selecting the current value.
// A nil descriptor or a layer without a parameter document is a no-op.
func Select(l layer.Layer, d *Descriptor, value string) error {
	if d == nil {
		return nil
	}
	f, ok := l.(layer.Filterable)
	if !ok {
		return nil
	}
	if value == "" {
		return Cancel(l, d)
	}
	if !d.Offers(value) {
		return fmt.Errorf("%w: %q", ErrUnknownValue, value)
	}

	if err := f.Params().Set(d.TargetProperty, d.Expand(value)); err != nil {
		return err
	}
	d.Selected = value
	d.Applied = true
	redraw(l)
	return nil
}

// Cancel clears the selection and deletes the target property. Only the final
// path segment is removed. A nil descriptor is a no-op.
func Cancel(l layer.Layer, d *Descriptor) error {
	if d == nil {
		return nil
	}
	if f, ok := l.(layer.Filterable); ok {
		if err := f.Params().Delete(d.TargetProperty); err != nil {
			return err
		}
	}
	d.Selected = ""
	d.Applied = false
	redraw(l)
	return nil
}

func redraw(l layer.Layer) {
	if r, ok := l.(layer.Redrawer); ok {
		r.Redraw()
	}
}
