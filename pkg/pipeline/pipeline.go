// Package pipeline runs a document through the layout engine in one shot.
//
// This package implements the document → paginate → render pipeline shared
// by the CLI and the HTTP server. The engine is interactive: it waits for
// measurements and debounces region height reports. The pipeline drives it
// as a batch: it initializes the engine with the document, applies every
// measurement the document carries, lets the measurement round settle, and
// commits the resulting plan. Heights that were never measured come from
// the estimator.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Paginate: run the engine and commit a plan
//  2. Render: produce artifacts of the plan (JSON, DOT, SVG, PNG)
//
// Both stages are cached: a plan under the hash of its document and
// parameters, an artifact under the hash of its plan and format.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Formats: []string{"json", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Plan.PageCount())
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/cache"
	"github.com/matzehuels/pageflow/pkg/core/engine"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/errors"
)

// Format constants for output artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. It supports JSON for API requests.
type Options struct {
	// Params overrides the document's params field by field.
	Params layout.Params `json:"params,omitzero"`

	// Formats lists artifacts to render. Empty renders nothing.
	Formats []string `json:"formats,omitempty"`
	// Detailed adds region usage to routing graph labels.
	Detailed bool `json:"detailed,omitempty"`
	// Collapse merges parallel routing edges.
	Collapse bool `json:"collapse,omitempty"`

	// Refresh bypasses cached plans and artifacts.
	Refresh bool `json:"refresh,omitempty"`
	// Verify checks the plan's invariants and fails on violations.
	Verify bool `json:"verify,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// params is the effective parameter set after ValidateAndSetDefaults.
	params    layout.Params
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DocumentHash is the content hash of the document.
	DocumentHash string

	// Plan is the committed plan.
	Plan layout.Plan

	// RequiredKeys lists every measurement key the document's content needs.
	RequiredKeys []layout.MeasurementKey

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Pages        int
	Entries      int
	Routes       int
	Warnings     int
	Diagnostics  int
	Measured     int
	Estimated    int
	Iterations   int
	PaginateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	PlanHit   bool // Whether the plan came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults, merges the document's params
// under the option overrides, and validates the result. It is idempotent.
func (o *Options) ValidateAndSetDefaults(doc *document.Document) error {
	if o.validated {
		return nil
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	formats := make([]string, len(o.Formats))
	for i, f := range o.Formats {
		formats[i] = strings.ToLower(f)
	}
	o.Formats = formats
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	p := doc.Params
	p.SetDefaults()
	p = document.Merge(p, o.Params)
	if err := p.Validate(); err != nil {
		return err
	}
	o.params = p
	o.validated = true
	return nil
}

// EffectiveParams returns the parameters the run uses. Valid after
// ValidateAndSetDefaults.
func (o *Options) EffectiveParams() layout.Params { return o.params }

// PlanKeyOpts returns cache key options for a plan of doc.
func (o *Options) PlanKeyOpts(doc *document.Document) cache.PlanKeyOpts {
	paramsHash, _ := cache.HashJSON(o.params)
	kindsHash, _ := cache.HashJSON(doc.Kinds)
	return cache.PlanKeyOpts{
		ParamsHash: paramsHash,
		KindsHash:  kindsHash,
		Audit:      o.params.AdvisoryAudit,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Collapse: o.Collapse,
	}
}

// engineConfig builds the engine configuration for a run.
func (o *Options) engineConfig(doc *document.Document, now func() time.Time) engine.Config {
	return engine.Config{
		Params: o.params,
		Kinds:  doc.Kinds,
		Logger: o.Logger,
		Now:    now,
		Debug:  o.Verify,
	}
}
