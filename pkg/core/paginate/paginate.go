package paginate

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/adapters"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/observability"
)

// Config configures a Paginator. Zero fields get defaults.
type Config struct {
	Params   layout.Params
	Adapters layout.Adapters
	Logger   *log.Logger
	Hooks    observability.LayoutHooks
}

// Input is one pagination request. The paginator reads it and never
// mutates it.
type Input struct {
	Buckets            layout.Buckets
	ColumnCount        int
	RegionHeight       float64
	RequestedPageCount int
	Measurements       layout.Measurements
	// Previous is the last committed plan, if any.
	Previous *layout.Plan
}

// Stats describes the last pass.
type Stats struct {
	// Lookups counts measurement lookups, including split and
	// proportional-height lookups.
	Lookups int
	// Skipped counts entries committed from the previous plan unchanged.
	Skipped      int
	Iterations   int
	Splits       int
	Routes       int
	ShortCircuit bool
	// Repeats is the number of consecutive short-circuited passes.
	Repeats  int
	Duration time.Duration
}

// Paginator computes layout plans. It keeps per-instance counters and is not
// safe for concurrent use; use one Paginator per document.
type Paginator struct {
	params   layout.Params
	adapters layout.Adapters
	logger   *log.Logger
	hooks    observability.LayoutHooks

	stats   Stats
	repeats int
}

// New returns a Paginator for cfg.
func New(cfg Config) *Paginator {
	cfg.Params.SetDefaults()
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Hooks == nil {
		cfg.Hooks = observability.Layout()
	}
	return &Paginator{
		params:   cfg.Params,
		adapters: adapters.WithDefaults(cfg.Adapters),
		logger:   cfg.Logger,
		hooks:    cfg.Hooks,
	}
}

// Params returns the effective parameters.
func (p *Paginator) Params() layout.Params { return p.params }

// Stats returns statistics of the last Paginate call.
func (p *Paginator) Stats() Stats { return p.stats }

// Paginate runs one pass and returns the plan. It always returns a plan;
// unresolved problems are reported in its warnings and diagnostics.
func (p *Paginator) Paginate(in Input) layout.Plan {
	start := time.Now()
	p.stats = Stats{}

	columns := max(in.ColumnCount, 1)
	sig := Signature(in, p.params)

	if sig != "" && in.Previous != nil && in.Previous.Signature == sig {
		p.repeats++
		plan := in.Previous.Clone()
		if p.repeats >= p.params.StaleRepeatThreshold && !plan.HasDiagnostic(errors.ErrCodeStaleInput) {
			p.logger.Warn("stale pagination input", "repeats", p.repeats, "signature", sig[:12])
			plan.Diagnostics = append(plan.Diagnostics, layout.Diagnostic{
				Code:    errors.ErrCodeStaleInput,
				Message: "identical input repeated; returning the previous plan",
			})
		}
		p.stats.ShortCircuit = true
		p.stats.Repeats = p.repeats
		p.stats.Duration = time.Since(start)
		p.hooks.OnPaginateComplete(plan.PageCount(), 0, len(plan.Warnings), true, p.stats.Duration)
		return plan
	}
	p.repeats = 0

	entryCount := 0
	for _, entries := range in.Buckets {
		entryCount += len(entries)
	}
	p.hooks.OnPaginateStart(entryCount)

	var plan layout.Plan
	if in.RegionHeight <= 0 {
		plan = emptyPlan(max(in.RequestedPageCount, 1), columns)
		plan.Diagnostics = append(plan.Diagnostics, layout.Diagnostic{
			Code:    errors.ErrCodeInvalidInput,
			Message: "region height must be positive",
		})
	} else {
		ps := newPass(p, in, columns)
		ps.run()
		plan = ps.plan()
	}
	plan.Signature = sig
	plan.RegionHeight = in.RegionHeight
	plan.ColumnCount = columns

	p.stats.Routes = len(plan.Routes)
	p.stats.Duration = time.Since(start)
	p.hooks.OnPaginateComplete(plan.PageCount(), len(plan.Routes), len(plan.Warnings), false, p.stats.Duration)
	p.logger.Debug("paginated",
		"pages", plan.PageCount(),
		"entries", entryCount,
		"routes", len(plan.Routes),
		"warnings", len(plan.Warnings),
		"lookups", p.stats.Lookups,
		"skipped", p.stats.Skipped,
		"duration", p.stats.Duration)
	return plan
}

func emptyPlan(pages, columns int) layout.Plan {
	var plan layout.Plan
	for pg := 1; pg <= pages; pg++ {
		page := layout.Page{Number: pg}
		for c := 1; c <= columns; c++ {
			page.Columns = append(page.Columns, layout.Column{Index: c})
		}
		plan.Pages = append(plan.Pages, page)
	}
	return plan
}
