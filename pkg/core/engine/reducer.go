package engine

import (
	"math"
	"reflect"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/core/bucket"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/core/paginate"
	"github.com/matzehuels/pageflow/pkg/core/segment"
	"github.com/matzehuels/pageflow/pkg/observability"
)

// reducer holds the collaborators of the transition function. It keeps no
// document state of its own apart from the paginator's repeat counter and
// the planner's reroute cache.
type reducer struct {
	params    layout.Params
	builder   *bucket.Builder
	paginator *paginate.Paginator
	planner   *segment.Planner
	logger    *log.Logger
	hooks     observability.EngineHooks
	debug     bool
}

// reduce applies ev to s and returns the new state.
func (r *reducer) reduce(s State, ev Event) State {
	at := ev.Time()
	switch e := ev.(type) {
	case Initialize:
		next := State{
			Status:        StatusWaiting,
			Instances:     e.Instances,
			Template:      e.Template,
			DataSources:   e.DataSources,
			PageVariables: e.PageVariables,
			Measurements:  layout.Measurements{},
			RegionHeight:  s.RegionHeight,
		}
		if e.RegionHeight > 0 {
			next.RegionHeight = e.RegionHeight
		}
		r.planner.Cache().Reset()
		r.rebuild(&next, at, true)
		if next.allKnown() {
			next.InitialComplete = true
			next.Status = StatusMeasuring
		}
		return next

	case SetComponents:
		s.Assignments = keepUnchanged(s.Assignments, s.Instances, e.Instances)
		s.Instances = e.Instances
		r.planner.Cache().Reset()
		r.structural(&s, at)

	case SetTemplate:
		s.Template = e.Template
		s.Assignments = nil
		r.planner.Cache().Reset()
		r.structural(&s, at)

	case SetDataSources:
		s.DataSources = e.DataSources
		r.structural(&s, at)

	case SetPageVariables:
		s.PageVariables = e.Variables
		r.structural(&s, at)

	case SetRegionHeight:
		r.setRegionHeight(&s, e.Height, at)

	case MeasurementsUpdated:
		r.applyMeasurements(&s, e.Batch, at)

	case RecalculateLayout:
		r.recalculate(&s, at)

	case CommitLayout:
		r.commit(&s)
	}
	return s
}

// structural rebuilds after an input change. Before Initialize the inputs
// are only recorded.
func (r *reducer) structural(s *State, at time.Time) {
	if s.Status == StatusIdle {
		return
	}
	r.rebuild(s, at, true)
	r.markDirty(s)
}

// rebuild recomputes buckets and assignments from the current inputs. A
// structural rebuild also re-enumerates the required keys and restarts
// region readiness.
func (r *reducer) rebuild(s *State, at time.Time, structural bool) {
	in := bucket.Input{
		Instances:        s.Instances,
		Template:         s.Template,
		DataSources:      s.sources(),
		Measurements:     s.Measurements,
		PriorAssignments: s.Assignments,
	}
	res := r.builder.Build(in)
	s.Buckets = res.Buckets
	s.Assignments = res.Assignments
	s.PrimaryKeys = res.PrimaryKeys
	if structural {
		s.RequiredKeys = r.builder.RequiredKeys(in)
		s.progress = nil
	}
	s.updateProgress(at)
	s.Dirty = true
}

func (r *reducer) markDirty(s *State) {
	s.Dirty = true
	if s.Status == StatusStable {
		s.Status = StatusMeasuring
	}
}

// setRegionHeight adopts h on first report, on a jump of at least the
// threshold, or once the same candidate has been reported for the debounce
// window. Adopted heights never increase.
func (r *reducer) setRegionHeight(s *State, h float64, at time.Time) {
	if h <= 0 {
		return
	}
	if s.RegionHeight == 0 {
		s.RegionHeight = h
		s.heightCandidate = 0
		r.logger.Debug("region height set", "height", h)
		if s.Status != StatusIdle {
			r.markDirty(s)
		}
		return
	}
	if math.Abs(h-s.RegionHeight) >= r.params.RegionHeightThreshold {
		r.adoptHeight(s, h)
		return
	}
	if s.heightCandidate == 0 || math.Abs(h-s.heightCandidate) >= r.params.MeasurementEpsilon {
		s.heightCandidate = h
		s.heightSince = at
		return
	}
	r.settleHeight(s, at)
}

// settleHeight adopts a pending candidate once it outlived the debounce
// window.
func (r *reducer) settleHeight(s *State, at time.Time) {
	if s.heightCandidate == 0 || at.Sub(s.heightSince) < r.params.RegionHeightDebounce {
		return
	}
	r.adoptHeight(s, s.heightCandidate)
}

func (r *reducer) adoptHeight(s *State, h float64) {
	s.heightCandidate = 0
	next := min(s.RegionHeight, h)
	if next == s.RegionHeight {
		return
	}
	r.logger.Debug("region height adopted", "from", s.RegionHeight, "to", next)
	s.RegionHeight = next
	if s.Status != StatusIdle {
		r.markDirty(s)
	}
}

// applyMeasurements upserts and evicts one batch. Only additions can mark the
// state dirty.
func (r *reducer) applyMeasurements(s *State, batch []layout.Measurement, at time.Time) {
	m := s.Measurements.Clone()
	applied, evicted, ignored := 0, 0, 0
	for _, rec := range batch {
		if rec.Key.IsZero() || math.IsNaN(rec.Height) || math.IsInf(rec.Height, 0) {
			ignored++
			continue
		}
		old, exists := m[rec.Key]
		switch {
		case rec.IsTombstone():
			if exists {
				delete(m, rec.Key)
				evicted++
			} else {
				ignored++
			}
		case exists && math.Abs(rec.Height-old) < r.params.MeasurementEpsilon:
			ignored++
		default:
			m[rec.Key] = rec.Height
			applied++
		}
	}
	s.Measurements = m
	s.updateProgress(at)
	r.hooks.OnMeasurements(applied, evicted, ignored)
	r.logger.Debug("measurements", "applied", applied, "evicted", evicted, "ignored", ignored)

	if applied == 0 || s.Status == StatusIdle {
		return
	}
	switch {
	case !s.InitialComplete && (s.allKnown() || r.quorum(s, at)):
		s.InitialComplete = true
		s.Status = StatusMeasuring
		r.logger.Debug("initial measurements complete")
	case !s.InitialComplete:
		// Still in the initial round: every addition counts.
	case r.quorum(s, at):
		// Enough regions settled.
	default:
		return
	}
	r.rebuild(s, at, false)
	r.markDirty(s)
}

// quorum reports whether enough regions are ready.
func (r *reducer) quorum(s *State, at time.Time) bool {
	ready, total := s.readyRegions(at, r.params.StabilityWindow)
	if total == 0 {
		return true
	}
	return float64(ready)/float64(total) >= r.params.ReadyRegionQuorum
}

// recalculate runs one pass and stores the result as pending. It is a no-op
// while waiting for initial measurements or while a plan is pending.
func (r *reducer) recalculate(s *State, at time.Time) {
	if s.Status == StatusIdle {
		return
	}
	r.settleHeight(s, at)
	if !s.InitialComplete && r.quorum(s, at) {
		s.InitialComplete = true
		s.Status = StatusMeasuring
	}
	if s.Status == StatusWaiting || s.Pending != nil {
		r.logger.Debug("recalculation skipped", "status", s.Status, "pending", s.Pending != nil)
		return
	}

	plan := r.paginator.Paginate(paginate.Input{
		Buckets:            s.Buckets,
		ColumnCount:        s.Template.Page.ColumnCount(),
		RegionHeight:       s.regionHeight(),
		RequestedPageCount: s.requestedPages(),
		Measurements:       s.Measurements,
		Previous:           s.Committed,
	})
	if r.params.AdvisoryAudit && !r.paginator.Stats().ShortCircuit {
		plan.Diagnostics = append(plan.Diagnostics, r.planner.Audit(plan)...)
	}
	if r.debug {
		for _, err := range paginate.Verify(plan, r.params) {
			r.logger.Warn("plan invariant violated", "err", err)
		}
	}
	s.Pending = &plan
	s.Dirty = false
	s.Status = StatusMeasuring
}

// commit makes the pending plan visible and derives the actual region of
// every instance from it. Home regions are kept.
func (r *reducer) commit(s *State) {
	if s.Pending == nil {
		return
	}
	s.Committed, s.Pending = s.Pending, nil

	next := make(map[string]layout.Assignment, len(s.Assignments))
	for id, a := range s.Assignments {
		if placed := s.Committed.EntriesFor(id); len(placed) > 0 {
			a.Actual = placed[0].Region
		}
		next[id] = a
	}
	s.Assignments = next

	if s.Dirty {
		s.Status = StatusMeasuring
	} else {
		s.Status = StatusStable
	}
	r.hooks.OnCommit(s.Committed.PageCount())
}

// keepUnchanged returns the assignments of instances present and identical
// in both generations.
func keepUnchanged(assignments map[string]layout.Assignment, before, after []layout.Instance) map[string]layout.Assignment {
	if len(assignments) == 0 {
		return nil
	}
	old := make(map[string]layout.Instance, len(before))
	for _, inst := range before {
		old[inst.ID] = inst
	}
	out := map[string]layout.Assignment{}
	for _, inst := range after {
		prev, ok := old[inst.ID]
		a, assigned := assignments[inst.ID]
		if ok && assigned && reflect.DeepEqual(prev, inst) {
			out[inst.ID] = a
		}
	}
	return out
}
