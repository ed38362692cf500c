package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/errors"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension. Unknown extensions are
// read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return FormatTOML
	}
	return FormatJSON
}

// Document is one pagination job.
type Document struct {
	ID            string               `json:"id,omitempty" toml:"id" bson:"id,omitempty"`
	Template      layout.Template      `json:"template" toml:"template" bson:"template"`
	Components    []layout.Instance    `json:"components" toml:"components" bson:"components"`
	DataSources   map[string]any       `json:"data_sources,omitempty" toml:"data_sources" bson:"data_sources,omitempty"`
	PageVariables map[string]any       `json:"page_variables,omitempty" toml:"page_variables" bson:"page_variables,omitempty"`
	Kinds         layout.KindConfig    `json:"kinds,omitempty" toml:"kinds" bson:"kinds,omitempty"`
	RegionHeight  float64              `json:"region_height,omitempty" toml:"region_height" bson:"region_height,omitempty"`
	Params        layout.Params        `json:"params,omitzero" toml:"params" bson:"params"`
	Measurements  []layout.Measurement `json:"measurements,omitempty" toml:"measurements" bson:"measurements,omitempty"`
}

// Validate checks identifiers and geometry. Params are validated after
// defaults are applied.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Components))
	for i, c := range d.Components {
		if err := errors.ValidateInstanceID(c.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "component %d", i)
		}
		if seen[c.ID] {
			return errors.New(errors.ErrCodeInvalidDocument, "duplicate component id %q", c.ID)
		}
		seen[c.ID] = true
	}
	for typ, kind := range d.Kinds {
		name := kind.Name
		if name == "" {
			name = typ
		}
		if err := errors.ValidateListKind(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "kind for type %q", typ)
		}
	}
	page := d.Template.Page
	switch {
	case page.Columns < 0:
		return errors.New(errors.ErrCodeInvalidTemplate, "columns must be >= 0")
	case page.Height < 0 || page.Width < 0:
		return errors.New(errors.ErrCodeInvalidTemplate, "page dimensions must be >= 0")
	case page.PageCount < 0:
		return errors.New(errors.ErrCodeInvalidTemplate, "page_count must be >= 0")
	case d.RegionHeight < 0:
		return errors.New(errors.ErrCodeInvalidDocument, "region_height must be >= 0")
	case d.RegionHeight == 0 && page.Height == 0:
		return errors.New(errors.ErrCodeInvalidDocument, "either region_height or template.page.height is required")
	}
	params := d.Params
	params.SetDefaults()
	return params.Validate()
}

// EffectiveParams returns the document's params with defaults applied.
func (d *Document) EffectiveParams() layout.Params {
	p := d.Params
	p.SetDefaults()
	return p
}

// Read decodes and validates a document.
func Read(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&doc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "unknown field %q", undecoded[0].String())
		}
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", format)
	}
	doc.DataSources = normalizeMap(doc.DataSources)
	doc.PageVariables = normalizeMap(doc.PageVariables)
	for i := range doc.Components {
		doc.Components[i].Meta = normalizeMap(doc.Components[i].Meta)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadFile reads a document, choosing the format by extension.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := Read(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes doc as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// MarshalTOML encodes doc as TOML.
func MarshalTOML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

// normalizeMap converts the typed containers TOML produces
// ([]map[string]any, []any of int64) into the []any and map[string]any
// shapes the resolver walks.
func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = normalizeMap(m)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	}
	return v
}
