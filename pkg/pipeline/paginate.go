package pipeline

import (
	stderrors "errors"
	"time"

	"github.com/matzehuels/pageflow/pkg/core/engine"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/core/paginate"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/errors"
)

// =============================================================================
// Paginate
// =============================================================================

// batchClock is the engine clock of a batch run. It only moves when the
// pipeline advances it, so debounce and stability windows elapse on demand.
type batchClock struct{ t time.Time }

func (c *batchClock) Now() time.Time          { return c.t }
func (c *batchClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Paginate runs doc through the engine and returns the committed plan along
// with the engine statistics of the pass. opts must be validated.
func Paginate(doc *document.Document, opts Options) (layout.Plan, paginate.Stats, error) {
	clock := &batchClock{t: time.Now()}
	e, err := engine.New(opts.engineConfig(doc, clock.Now))
	if err != nil {
		return layout.Plan{}, paginate.Stats{}, err
	}
	initialize(e, doc, clock)

	if len(doc.Measurements) > 0 {
		e.SubmitMeasurements(doc.Measurements)
	}
	clock.Advance(max(opts.params.StabilityWindow, opts.params.RegionHeightDebounce))

	if !e.Recalculate() {
		return layout.Plan{}, paginate.Stats{}, errors.New(errors.ErrCodeInternal,
			"engine produced no plan (status %s)", e.State().Status)
	}
	e.Commit()
	view := e.Snapshot()
	plan := *view.Plan

	opts.Logger.Debug("paginated",
		"pages", plan.PageCount(),
		"routes", len(plan.Routes),
		"warnings", len(plan.Warnings),
		"status", view.MeasurementStatus.Status)

	if opts.Verify {
		if errs := paginate.Verify(plan, opts.params); len(errs) > 0 {
			return plan, e.Stats(), errors.Wrap(errors.ErrCodeInternal, stderrors.Join(errs...),
				"plan violates %d invariant(s)", len(errs))
		}
	}
	return plan, e.Stats(), nil
}

// RequiredKeys returns every measurement key doc's content needs, in
// deterministic order. opts must be validated.
func RequiredKeys(doc *document.Document, opts Options) ([]layout.MeasurementKey, error) {
	clock := &batchClock{t: time.Now()}
	e, err := engine.New(opts.engineConfig(doc, clock.Now))
	if err != nil {
		return nil, err
	}
	initialize(e, doc, clock)
	return e.Snapshot().RequiredMeasurementKeys, nil
}

func initialize(e *engine.Engine, doc *document.Document, clock *batchClock) {
	e.Dispatch(engine.Initialize{
		Instances:     doc.Components,
		Template:      doc.Template,
		DataSources:   doc.DataSources,
		PageVariables: doc.PageVariables,
		RegionHeight:  doc.RegionHeight,
		At:            clock.Now(),
	})
}

// countEntries returns the number of placed entries and how many of them
// used an estimated height.
func countEntries(plan layout.Plan) (total, estimated int) {
	for _, p := range plan.Pages {
		for _, c := range p.Columns {
			for _, e := range c.Entries {
				total++
				if e.Estimated {
					estimated++
				}
			}
		}
	}
	return total, estimated
}
