package engine

import (
	"time"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// Event is one input to the state machine.
type Event interface {
	// Name is the event's stable identifier, used in logs and hooks.
	Name() string
	// Time is when the event happened.
	Time() time.Time
}

// Initialize starts a document from scratch. Measurements and plans of a
// previous document are discarded.
type Initialize struct {
	Instances     []layout.Instance
	Template      layout.Template
	DataSources   map[string]any
	PageVariables map[string]any
	// RegionHeight is optional; zero leaves the region height unset.
	RegionHeight float64
	At           time.Time
}

// SetComponents replaces the instances.
type SetComponents struct {
	Instances []layout.Instance
	At        time.Time
}

// SetTemplate replaces the template. Every home region is recomputed.
type SetTemplate struct {
	Template layout.Template
	At       time.Time
}

// SetDataSources replaces the data sources lists resolve against.
type SetDataSources struct {
	DataSources map[string]any
	At          time.Time
}

// SetPageVariables replaces the page variables.
type SetPageVariables struct {
	Variables map[string]any
	At        time.Time
}

// SetRegionHeight reports a measured region height.
type SetRegionHeight struct {
	Height float64
	At     time.Time
}

// MeasurementsUpdated delivers one measurement batch.
type MeasurementsUpdated struct {
	Batch []layout.Measurement
	At    time.Time
}

// RecalculateLayout requests a pagination pass.
type RecalculateLayout struct {
	At time.Time
}

// CommitLayout makes the pending plan visible.
type CommitLayout struct {
	At time.Time
}

func (e Initialize) Name() string          { return "initialize" }
func (e SetComponents) Name() string       { return "set-components" }
func (e SetTemplate) Name() string         { return "set-template" }
func (e SetDataSources) Name() string      { return "set-data-sources" }
func (e SetPageVariables) Name() string    { return "set-page-variables" }
func (e SetRegionHeight) Name() string     { return "set-region-height" }
func (e MeasurementsUpdated) Name() string { return "measurements-updated" }
func (e RecalculateLayout) Name() string   { return "recalculate-layout" }
func (e CommitLayout) Name() string        { return "commit-layout" }

func (e Initialize) Time() time.Time          { return e.At }
func (e SetComponents) Time() time.Time       { return e.At }
func (e SetTemplate) Time() time.Time         { return e.At }
func (e SetDataSources) Time() time.Time      { return e.At }
func (e SetPageVariables) Time() time.Time    { return e.At }
func (e SetRegionHeight) Time() time.Time     { return e.At }
func (e MeasurementsUpdated) Time() time.Time { return e.At }
func (e RecalculateLayout) Time() time.Time   { return e.At }
func (e CommitLayout) Time() time.Time        { return e.At }
