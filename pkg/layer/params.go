package layer

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Params is a JSON object document of layer parameters (WMS params, style
// options). Paths use gjson dot syntax, e.g. "wms.CQL_FILTER".
type Params struct {
	doc string
}

// NewParams wraps a JSON object document. An empty string yields "{}".
func NewParams(doc string) *Params {
	if doc == "" {
		doc = "{}"
	}
	return &Params{doc: doc}
}

// ParamsFromMap encodes m as a parameter document.
func ParamsFromMap(m map[string]any) (*Params, error) {
	if len(m) == 0 {
		return NewParams(""), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	return NewParams(string(data)), nil
}

// Get returns the value at path.
func (p *Params) Get(path string) gjson.Result {
	return gjson.Get(p.doc, path)
}

// Has reports whether a value exists at path.
func (p *Params) Has(path string) bool {
	return p.Get(path).Exists()
}

// Set writes value at path, creating intermediate objects as needed.
func (p *Params) Set(path string, value any) error {
	doc, err := sjson.Set(p.doc, path, value)
	if err != nil {
		return fmt.Errorf("failed to set param %q: %w", path, err)
	}
	p.doc = doc
	return nil
}

// Delete removes the final segment of path. Intermediate objects are kept even
// when left empty. A path that does not resolve is a no-op.
func (p *Params) Delete(path string) error {
	if !p.Has(path) {
		return nil
	}
	doc, err := sjson.Delete(p.doc, path)
	if err != nil {
		return fmt.Errorf("failed to delete param %q: %w", path, err)
	}
	p.doc = doc
	return nil
}

// String returns the raw document.
func (p *Params) String() string {
	return p.doc
}

// MarshalJSON implements json.Marshaler.
func (p *Params) MarshalJSON() ([]byte, error) {
	return []byte(p.doc), nil
}
