package layout

import (
	"time"

	"github.com/matzehuels/pageflow/pkg/errors"
)

// Default parameter values. These are calibrated constants; override them
// through Params rather than editing them.
const (
	DefaultTopInset              = 0.0
	DefaultEntrySpacing          = 12.0
	DefaultSafetyMargin          = 0.0
	DefaultFitEpsilon            = 0.5
	DefaultBottomZoneFraction    = 0.15
	DefaultPreferMoveMaxItems    = 1
	DefaultMaxPages              = 100
	DefaultMaxIterations         = 20000
	DefaultStaleRepeatThreshold  = 3
	DefaultContinuationWindow    = 8
	DefaultMeasurementEpsilon    = 0.25
	DefaultRegionHeightThreshold = 8.0
	DefaultRegionHeightDebounce  = 300 * time.Millisecond
	DefaultStabilityWindow       = 500 * time.Millisecond
	DefaultReadyRegionQuorum     = 0.5
	DefaultThrashLimit           = 2
)

// Params holds the tunable constants of the layout engine.
//
// A zero field means "use the default" for every field except the booleans
// and TopInset/SafetyMargin, whose defaults are zero anyway.
type Params struct {
	// =========================================================================
	// Placement
	// =========================================================================

	TopInset     float64 `json:"top_inset,omitempty" toml:"top_inset"`
	EntrySpacing float64 `json:"entry_spacing,omitempty" toml:"entry_spacing"`
	SafetyMargin float64 `json:"safety_margin,omitempty" toml:"safety_margin"`
	// FitEpsilon absorbs floating point error in the fit test.
	FitEpsilon float64 `json:"fit_epsilon,omitempty" toml:"fit_epsilon"`
	// BottomZoneFraction is the fraction of a region, measured from its
	// bottom, in which only a minimum list prefix may start.
	BottomZoneFraction float64 `json:"bottom_zone_fraction,omitempty" toml:"bottom_zone_fraction"`
	// PreferMoveMaxItems is the largest prefix for which moving the whole
	// list is preferred over splitting it.
	PreferMoveMaxItems int `json:"prefer_move_max_items,omitempty" toml:"prefer_move_max_items"`

	// =========================================================================
	// Limits
	// =========================================================================

	MaxPages             int `json:"max_pages,omitempty" toml:"max_pages"`
	MaxIterations        int `json:"max_iterations,omitempty" toml:"max_iterations"`
	StaleRepeatThreshold int `json:"stale_repeat_threshold,omitempty" toml:"stale_repeat_threshold"`
	ContinuationWindow   int `json:"continuation_window,omitempty" toml:"continuation_window"`

	// =========================================================================
	// Convergence
	// =========================================================================

	MeasurementEpsilon    float64       `json:"measurement_epsilon,omitempty" toml:"measurement_epsilon"`
	RegionHeightThreshold float64       `json:"region_height_threshold,omitempty" toml:"region_height_threshold"`
	RegionHeightDebounce  time.Duration `json:"region_height_debounce,omitempty" toml:"region_height_debounce"`
	StabilityWindow       time.Duration `json:"stability_window,omitempty" toml:"stability_window"`
	ReadyRegionQuorum     float64       `json:"ready_region_quorum,omitempty" toml:"ready_region_quorum"`

	// =========================================================================
	// Advisory pass
	// =========================================================================

	ThrashLimit   int  `json:"thrash_limit,omitempty" toml:"thrash_limit"`
	AdvisoryAudit bool `json:"advisory_audit,omitempty" toml:"advisory_audit"`
}

// DefaultParams returns Params with every default applied.
func DefaultParams() Params {
	var p Params
	p.SetDefaults()
	return p
}

// SetDefaults fills zero fields with their defaults.
func (p *Params) SetDefaults() {
	if p.EntrySpacing == 0 {
		p.EntrySpacing = DefaultEntrySpacing
	}
	if p.FitEpsilon == 0 {
		p.FitEpsilon = DefaultFitEpsilon
	}
	if p.BottomZoneFraction == 0 {
		p.BottomZoneFraction = DefaultBottomZoneFraction
	}
	if p.PreferMoveMaxItems == 0 {
		p.PreferMoveMaxItems = DefaultPreferMoveMaxItems
	}
	if p.MaxPages == 0 {
		p.MaxPages = DefaultMaxPages
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = DefaultMaxIterations
	}
	if p.StaleRepeatThreshold == 0 {
		p.StaleRepeatThreshold = DefaultStaleRepeatThreshold
	}
	if p.ContinuationWindow == 0 {
		p.ContinuationWindow = DefaultContinuationWindow
	}
	if p.MeasurementEpsilon == 0 {
		p.MeasurementEpsilon = DefaultMeasurementEpsilon
	}
	if p.RegionHeightThreshold == 0 {
		p.RegionHeightThreshold = DefaultRegionHeightThreshold
	}
	if p.RegionHeightDebounce == 0 {
		p.RegionHeightDebounce = DefaultRegionHeightDebounce
	}
	if p.StabilityWindow == 0 {
		p.StabilityWindow = DefaultStabilityWindow
	}
	if p.ReadyRegionQuorum == 0 {
		p.ReadyRegionQuorum = DefaultReadyRegionQuorum
	}
	if p.ThrashLimit == 0 {
		p.ThrashLimit = DefaultThrashLimit
	}
}

// Validate checks that every field is in range. Call SetDefaults first.
func (p Params) Validate() error {
	switch {
	case p.TopInset < 0:
		return invalidParam("top_inset must be >= 0")
	case p.EntrySpacing < 0:
		return invalidParam("entry_spacing must be >= 0")
	case p.SafetyMargin < 0:
		return invalidParam("safety_margin must be >= 0")
	case p.FitEpsilon < 0:
		return invalidParam("fit_epsilon must be >= 0")
	case p.BottomZoneFraction < 0 || p.BottomZoneFraction >= 1:
		return invalidParam("bottom_zone_fraction must be in [0, 1)")
	case p.PreferMoveMaxItems < 0:
		return invalidParam("prefer_move_max_items must be >= 0")
	case p.MaxPages < 1:
		return invalidParam("max_pages must be >= 1")
	case p.MaxIterations < 1:
		return invalidParam("max_iterations must be >= 1")
	case p.StaleRepeatThreshold < 1:
		return invalidParam("stale_repeat_threshold must be >= 1")
	case p.ContinuationWindow < 0:
		return invalidParam("continuation_window must be >= 0")
	case p.MeasurementEpsilon < 0:
		return invalidParam("measurement_epsilon must be >= 0")
	case p.ReadyRegionQuorum <= 0 || p.ReadyRegionQuorum > 1:
		return invalidParam("ready_region_quorum must be in (0, 1]")
	case p.ThrashLimit < 1:
		return invalidParam("thrash_limit must be >= 1")
	}
	return nil
}

func invalidParam(msg string) error {
	return errors.New(errors.ErrCodeInvalidParams, "%s", msg)
}
