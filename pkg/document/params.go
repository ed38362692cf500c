package document

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/errors"
)

// ReadParamsFile reads layout parameter overrides from a TOML file:
//
//	entry_spacing = 8
//	max_pages = 40
//	region_height_debounce = "250ms"
//
// Unknown keys are rejected. Defaults are applied and the result validated.
func ReadParamsFile(path string) (layout.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return layout.Params{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return layout.Params{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseParams(string(data))
}

// ParseParams decodes TOML parameter overrides.
func ParseParams(data string) (layout.Params, error) {
	var p layout.Params
	md, err := toml.Decode(data, &p)
	if err != nil {
		return layout.Params{}, errors.Wrap(errors.ErrCodeInvalidParams, err, "decode params")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return layout.Params{}, errors.New(errors.ErrCodeInvalidParams, "unknown param %q", undecoded[0].String())
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return layout.Params{}, err
	}
	return p, nil
}

// Merge overlays the non-zero fields of override onto base.
func Merge(base, override layout.Params) layout.Params {
	set := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	set(&base.TopInset, override.TopInset)
	set(&base.EntrySpacing, override.EntrySpacing)
	set(&base.SafetyMargin, override.SafetyMargin)
	set(&base.FitEpsilon, override.FitEpsilon)
	set(&base.BottomZoneFraction, override.BottomZoneFraction)
	setInt(&base.PreferMoveMaxItems, override.PreferMoveMaxItems)
	setInt(&base.MaxPages, override.MaxPages)
	setInt(&base.MaxIterations, override.MaxIterations)
	setInt(&base.StaleRepeatThreshold, override.StaleRepeatThreshold)
	setInt(&base.ContinuationWindow, override.ContinuationWindow)
	set(&base.MeasurementEpsilon, override.MeasurementEpsilon)
	set(&base.RegionHeightThreshold, override.RegionHeightThreshold)
	if override.RegionHeightDebounce != 0 {
		base.RegionHeightDebounce = override.RegionHeightDebounce
	}
	if override.StabilityWindow != 0 {
		base.StabilityWindow = override.StabilityWindow
	}
	set(&base.ReadyRegionQuorum, override.ReadyRegionQuorum)
	setInt(&base.ThrashLimit, override.ThrashLimit)
	base.AdvisoryAudit = base.AdvisoryAudit || override.AdvisoryAudit
	return base
}
