package adapters

import (
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// Default estimator constants, in layout units.
const (
	DefaultBlockHeight        = 120.0
	DefaultItemHeight         = 28.0
	DefaultListHeader         = 36.0
	DefaultContinuationHeader = 24.0
)

// HeightField is the metadata or item field that overrides an estimate.
const HeightField = "height"

// FixedEstimator estimates heights from constants. A numeric "height" field
// on block metadata or on a list item overrides the constant.
type FixedEstimator struct {
	BlockHeight        float64
	ItemHeight         float64
	ListHeader         float64
	ContinuationHeader float64
}

var _ layout.Estimator = FixedEstimator{}

// NewFixedEstimator returns an estimator with the default constants.
func NewFixedEstimator() FixedEstimator {
	return FixedEstimator{
		BlockHeight:        DefaultBlockHeight,
		ItemHeight:         DefaultItemHeight,
		ListHeader:         DefaultListHeader,
		ContinuationHeader: DefaultContinuationHeader,
	}
}

// EstimateComponentHeight implements layout.Estimator.
func (e FixedEstimator) EstimateComponentHeight(meta map[string]any) float64 {
	if h, ok := Number(meta[HeightField]); ok && h > 0 {
		return h
	}
	return e.BlockHeight
}

// EstimateListHeight implements layout.Estimator.
func (e FixedEstimator) EstimateListHeight(items []any, continuation bool) float64 {
	h := e.ListHeader
	if continuation {
		h = e.ContinuationHeader
	}
	for _, item := range items {
		h += e.EstimateItemHeight(item)
	}
	return h
}

// EstimateItemHeight implements layout.Estimator.
func (e FixedEstimator) EstimateItemHeight(item any) float64 {
	if m, ok := item.(map[string]any); ok {
		if h, ok := Number(m[HeightField]); ok && h > 0 {
			return h
		}
	}
	return e.ItemHeight
}

// Number converts the numeric types produced by JSON, TOML and BSON decoding.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
