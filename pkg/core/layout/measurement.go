package layout

import (
	"maps"
	"math"
	"slices"
	"time"
)

// Measurement is one reported height. A height of zero or less withdraws a
// previous measurement.
type Measurement struct {
	Key        MeasurementKey `json:"key" toml:"key" bson:"key"`
	Height     float64        `json:"height" toml:"height" bson:"height"`
	MeasuredAt time.Time      `json:"measured_at,omitempty" toml:"measured_at" bson:"measured_at,omitempty"`
}

// IsTombstone reports whether the measurement withdraws its key.
func (m Measurement) IsTombstone() bool { return m.Height <= 0 }

// Measurements is a snapshot of known heights keyed by measurement key.
type Measurements map[MeasurementKey]float64

// Lookup returns the height for k, if known.
func (m Measurements) Lookup(k MeasurementKey) (float64, bool) {
	h, ok := m[k]
	return h, ok && h > 0 && !math.IsInf(h, 1)
}

// ClampHeight maps a computed height onto [0, +Inf). NaN and infinite values
// become zero.
func ClampHeight(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0
	}
	return h
}

// Clone returns an independent copy.
func (m Measurements) Clone() Measurements {
	if m == nil {
		return Measurements{}
	}
	return maps.Clone(m)
}

// SortedKeys returns the keys in deterministic order.
func (m Measurements) SortedKeys() []MeasurementKey {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, CompareKeys)
	return keys
}
