package adapters

import (
	"reflect"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// DefaultItemFields are the map fields ItemsNormalizer looks in, in order.
var DefaultItemFields = []string{"items", "rows"}

// ItemsNormalizer turns resolved values into item arrays:
//   - slices are returned element by element
//   - maps yield the first array-valued field named in Fields
//   - nil yields no items
//   - any other value is a single item
type ItemsNormalizer struct {
	Fields []string
}

var _ layout.Normalizer = ItemsNormalizer{}

// NewItemsNormalizer returns a normalizer looking at DefaultItemFields.
func NewItemsNormalizer() ItemsNormalizer {
	return ItemsNormalizer{Fields: DefaultItemFields}
}

// Normalize implements layout.Normalizer.
func (n ItemsNormalizer) Normalize(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case map[string]any:
		for _, f := range n.Fields {
			if items, ok := asSlice(v[f]); ok {
				return items
			}
		}
		return nil
	}
	if items, ok := asSlice(value); ok {
		return items
	}
	return []any{value}
}

// ItemField returns the name of the field Normalize reads items from, if any.
func (n ItemsNormalizer) ItemField(m map[string]any) (string, bool) {
	for _, f := range n.Fields {
		if _, ok := asSlice(m[f]); ok {
			return f, true
		}
	}
	return "", false
}

// asSlice converts typed slices (for example []map[string]any from TOML
// decoding, or primitive.A from BSON) to []any.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsArray reports whether v is a slice or array value other than bytes.
func IsArray(v any) bool {
	_, ok := asSlice(v)
	return ok
}
