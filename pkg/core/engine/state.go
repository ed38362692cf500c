package engine

import (
	"maps"
	"time"

	"github.com/matzehuels/pageflow/pkg/adapters"
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// Status is the phase of the state machine.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusWaiting   Status = "waiting-for-initial-measurements"
	StatusMeasuring Status = "measuring"
	StatusStable    Status = "stable"
)

// Page variable names with engine semantics.
const (
	// PageSource is the data source name page variables are exposed under.
	PageSource = "$page"
	// PageCountVariable overrides the template's requested page count when
	// it holds a positive number.
	PageCountVariable = "pageCount"
)

// State is everything the engine owns. Transitions return a new State and
// never modify maps reachable from the old one.
type State struct {
	Status Status

	Instances     []layout.Instance
	Template      layout.Template
	DataSources   map[string]any
	PageVariables map[string]any

	// RegionHeight is the adopted region height; zero until first set.
	RegionHeight float64

	Measurements layout.Measurements
	Buckets      layout.Buckets
	Assignments  map[string]layout.Assignment
	PrimaryKeys  map[layout.RegionKey][]layout.MeasurementKey
	RequiredKeys []layout.MeasurementKey

	Committed *layout.Plan
	Pending   *layout.Plan

	// Dirty is set by every change that can alter the next plan and cleared
	// when a pass consumes it.
	Dirty bool
	// InitialComplete is set once the initial measurement round is done.
	InitialComplete bool

	heightCandidate float64
	heightSince     time.Time
	progress        map[layout.RegionKey]regionProgress
}

// regionProgress tracks how many primary keys of a region are measured and
// since when that number has not changed.
type regionProgress struct {
	known int
	since time.Time
}

// sources returns the data sources with page variables exposed under
// PageSource.
func (s *State) sources() map[string]any {
	if len(s.PageVariables) == 0 {
		return s.DataSources
	}
	out := make(map[string]any, len(s.DataSources)+1)
	maps.Copy(out, s.DataSources)
	out[PageSource] = s.PageVariables
	return out
}

// requestedPages returns the page count floor, honoring the pageCount page
// variable.
func (s *State) requestedPages() int {
	if v, ok := s.PageVariables[PageCountVariable]; ok {
		if n, ok := adapters.Number(v); ok && n >= 1 {
			return int(n)
		}
	}
	return s.Template.Page.PageCount
}

// regionHeight returns the adopted region height, falling back to the
// template's page height.
func (s *State) regionHeight() float64 {
	if s.RegionHeight > 0 {
		return s.RegionHeight
	}
	return s.Template.Page.Height
}

// knownKeys counts the measured primary keys.
func (s *State) knownKeys() (known, total int) {
	for _, keys := range s.PrimaryKeys {
		for _, k := range keys {
			total++
			if _, ok := s.Measurements.Lookup(k); ok {
				known++
			}
		}
	}
	return known, total
}

func (s *State) allKnown() bool {
	known, total := s.knownKeys()
	return known == total
}

// updateProgress recounts measured primary keys per region. A region whose
// count changed restarts its stability window at at.
func (s *State) updateProgress(at time.Time) {
	next := make(map[layout.RegionKey]regionProgress, len(s.PrimaryKeys))
	for r, keys := range s.PrimaryKeys {
		known := 0
		for _, k := range keys {
			if _, ok := s.Measurements.Lookup(k); ok {
				known++
			}
		}
		p, ok := s.progress[r]
		if !ok || p.known != known {
			p = regionProgress{known: known, since: at}
		}
		next[r] = p
	}
	s.progress = next
}

// readyRegions counts regions whose primary keys are all measured or whose
// measured count has been stable for window.
func (s *State) readyRegions(at time.Time, window time.Duration) (ready, total int) {
	for r, keys := range s.PrimaryKeys {
		total++
		p := s.progress[r]
		if p.known == len(keys) || at.Sub(p.since) >= window {
			ready++
		}
	}
	return ready, total
}

// MeasurementStatus summarizes measurement progress.
type MeasurementStatus struct {
	Status          Status `json:"status"`
	Known           int    `json:"known"`
	Required        int    `json:"required"`
	Primary         int    `json:"primary"`
	ReadyRegions    int    `json:"ready_regions"`
	Regions         int    `json:"regions"`
	InitialComplete bool   `json:"initial_complete"`
	Dirty           bool   `json:"dirty"`
	Pending         bool   `json:"pending"`
}
