package engine

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/adapters"
	"github.com/matzehuels/pageflow/pkg/core/bucket"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/core/paginate"
	"github.com/matzehuels/pageflow/pkg/core/segment"
	"github.com/matzehuels/pageflow/pkg/observability"
)

// Config configures an Engine. Zero fields get defaults.
type Config struct {
	Params   layout.Params
	Adapters layout.Adapters
	Kinds    layout.KindConfig
	Logger   *log.Logger

	// Hooks receives state machine events; LayoutHooks receives pagination
	// events. Both default to the observability registry.
	Hooks       observability.EngineHooks
	LayoutHooks observability.LayoutHooks

	// Now stamps events. Defaults to time.Now.
	Now func() time.Time

	// Debug verifies every plan and logs invariant violations.
	Debug bool
}

// Engine is the consumer API of the layout state machine.
type Engine struct {
	state  State
	r      *reducer
	now    func() time.Time
	logger *log.Logger
	hooks  observability.EngineHooks
}

// New returns an idle engine. It fails only on invalid params.
func New(cfg Config) (*Engine, error) {
	cfg.Params.SetDefaults()
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Hooks == nil {
		cfg.Hooks = observability.Engine()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ad := adapters.WithDefaults(cfg.Adapters)

	r := &reducer{
		params:  cfg.Params,
		builder: &bucket.Builder{Adapters: ad, Kinds: cfg.Kinds, Params: cfg.Params},
		paginator: paginate.New(paginate.Config{
			Params:   cfg.Params,
			Adapters: ad,
			Logger:   cfg.Logger,
			Hooks:    cfg.LayoutHooks,
		}),
		planner: segment.NewPlanner(cfg.Params, cfg.Logger),
		logger:  cfg.Logger,
		hooks:   cfg.Hooks,
		debug:   cfg.Debug,
	}
	return &Engine{
		state:  State{Status: StatusIdle},
		r:      r,
		now:    cfg.Now,
		logger: cfg.Logger,
		hooks:  cfg.Hooks,
	}, nil
}

// Dispatch applies ev and returns the resulting status. The consumer
// methods below are thin wrappers around it.
func (e *Engine) Dispatch(ev Event) Status {
	from := e.state.Status
	e.state = e.r.reduce(e.state, ev)
	to := e.state.Status
	e.hooks.OnTransition(ev.Name(), string(from), string(to))
	if from != to {
		e.logger.Debug("transition", "event", ev.Name(), "from", from, "to", to)
	}
	return to
}

// Initialize starts a new document.
func (e *Engine) Initialize(instances []layout.Instance, tmpl layout.Template, sources, pageVars map[string]any) Status {
	return e.Dispatch(Initialize{
		Instances:     instances,
		Template:      tmpl,
		DataSources:   sources,
		PageVariables: pageVars,
		At:            e.now(),
	})
}

// UpdateComponents replaces the instances.
func (e *Engine) UpdateComponents(instances []layout.Instance) Status {
	return e.Dispatch(SetComponents{Instances: instances, At: e.now()})
}

// UpdateTemplate replaces the template.
func (e *Engine) UpdateTemplate(tmpl layout.Template) Status {
	return e.Dispatch(SetTemplate{Template: tmpl, At: e.now()})
}

// UpdateDataSources replaces the data sources.
func (e *Engine) UpdateDataSources(sources map[string]any) Status {
	return e.Dispatch(SetDataSources{DataSources: sources, At: e.now()})
}

// UpdatePageVariables replaces the page variables.
func (e *Engine) UpdatePageVariables(vars map[string]any) Status {
	return e.Dispatch(SetPageVariables{Variables: vars, At: e.now()})
}

// UpdateRegionHeight reports a measured region height.
func (e *Engine) UpdateRegionHeight(h float64) Status {
	return e.Dispatch(SetRegionHeight{Height: h, At: e.now()})
}

// SubmitMeasurements applies one measurement batch atomically.
func (e *Engine) SubmitMeasurements(batch []layout.Measurement) Status {
	return e.Dispatch(MeasurementsUpdated{Batch: batch, At: e.now()})
}

// Recalculate runs a pagination pass when one is allowed and reports
// whether a pending plan exists afterwards.
func (e *Engine) Recalculate() bool {
	e.Dispatch(RecalculateLayout{At: e.now()})
	return e.state.Pending != nil
}

// Commit makes the pending plan visible. It reports false when nothing was
// pending.
func (e *Engine) Commit() bool {
	if e.state.Pending == nil {
		return false
	}
	e.Dispatch(CommitLayout{At: e.now()})
	return true
}

// State returns the current state. Callers must treat it as read-only.
func (e *Engine) State() State { return e.state }

// Stats returns statistics of the last pagination pass.
func (e *Engine) Stats() paginate.Stats { return e.r.paginator.Stats() }

// View is what consumers read back after each call.
type View struct {
	// Plan is the committed plan, nil before the first commit.
	Plan                    *layout.Plan                 `json:"plan,omitempty"`
	RequiredMeasurementKeys []layout.MeasurementKey      `json:"required_measurement_keys"`
	PendingPageCount        int                          `json:"pending_page_count"`
	MeasurementStatus       MeasurementStatus            `json:"measurement_status"`
	Assignments             map[string]layout.Assignment `json:"assignments,omitempty"`
}

// Snapshot returns a view of the current state.
func (e *Engine) Snapshot() View {
	s := &e.state
	v := View{
		RequiredMeasurementKeys: s.RequiredKeys,
		Assignments:             s.Assignments,
	}
	if s.Committed != nil {
		p := s.Committed.Clone()
		v.Plan = &p
	}
	if s.Pending != nil {
		v.PendingPageCount = s.Pending.PageCount()
	}
	known, primary := s.knownKeys()
	ready, regions := s.readyRegions(e.now(), e.r.params.StabilityWindow)
	v.MeasurementStatus = MeasurementStatus{
		Status:          s.Status,
		Known:           known,
		Primary:         primary,
		Required:        len(s.RequiredKeys),
		ReadyRegions:    ready,
		Regions:         regions,
		InitialComplete: s.InitialComplete,
		Dirty:           s.Dirty,
		Pending:         s.Pending != nil,
	}
	return v
}
