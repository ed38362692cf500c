package paginate

import (
	"encoding/json"

	"github.com/matzehuels/pageflow/pkg/cache"
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

type signatureEntry struct {
	Region     layout.RegionKey      `json:"r"`
	Key        layout.MeasurementKey `json:"k"`
	Home       layout.RegionKey      `json:"h"`
	Height     float64               `json:"ht"`
	SlotIndex  int                   `json:"s"`
	OrderIndex int                   `json:"o"`
	Sequence   int                   `json:"q"`
	AvoidSplit bool                  `json:"a,omitempty"`
}

type signatureMeasurement struct {
	Key    layout.MeasurementKey `json:"k"`
	Height float64               `json:"h"`
}

type signatureInput struct {
	Columns      int                    `json:"c"`
	RegionHeight float64                `json:"rh"`
	Requested    int                    `json:"p"`
	Params       layout.Params          `json:"params"`
	Entries      []signatureEntry       `json:"e"`
	Measurements []signatureMeasurement `json:"m"`
}

// Signature returns the structural signature of a pagination input: a
// SHA-256 over the canonical JSON of geometry, params, bucket contents and
// measurements. Equal signatures yield equal plans. It returns "" when the
// input cannot be encoded; such an input never matches a previous plan.
func Signature(in Input, params layout.Params) string {
	s := signatureInput{
		Columns:      max(in.ColumnCount, 1),
		RegionHeight: in.RegionHeight,
		Requested:    in.RequestedPageCount,
		Params:       params,
	}
	for _, r := range in.Buckets.Regions() {
		for _, e := range in.Buckets[r] {
			s.Entries = append(s.Entries, signatureEntry{
				Region:     r,
				Key:        e.Key,
				Home:       e.Home,
				Height:     e.Height,
				SlotIndex:  e.SlotIndex,
				OrderIndex: e.OrderIndex,
				Sequence:   e.Sequence,
				AvoidSplit: e.AvoidSplit,
			})
		}
	}
	for _, k := range in.Measurements.SortedKeys() {
		s.Measurements = append(s.Measurements, signatureMeasurement{Key: k, Height: in.Measurements[k]})
	}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
