package bucket

import (
	"slices"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// RequiredKeys returns every measurement key that pagination of in could
// look up, sorted and without duplicates. The set depends on instances,
// template and data only, never on current measurements.
//
// For a list of N items it contains the prefixes [0,k) for k in 1..N, every
// range starting at 1..min(N-1, ContinuationWindow) and running to any
// length, the per-location segments, and the metadata key when the list has
// summary fields.
func (b *Builder) RequiredKeys(in Input) []layout.MeasurementKey {
	seen := map[layout.MeasurementKey]struct{}{}
	add := func(k layout.MeasurementKey) { seen[k] = struct{}{} }

	window := b.Params.ContinuationWindow
	for _, inst := range in.Instances {
		kind, isList := b.Kinds.Lookup(inst.Type)
		if !isList {
			add(layout.BlockKey(inst.ID))
			continue
		}
		data := b.resolve(inst, in.DataSources)
		n := len(data.items)
		if n == 0 {
			add(layout.BlockKey(inst.ID))
			continue
		}
		if len(data.meta) > 0 {
			add(layout.MetadataKey(inst.ID, kind.Name, n))
		}
		for k := 1; k <= n; k++ {
			add(layout.SegmentKey(inst.ID, kind.Name, 0, k, n, false))
		}
		for start := 1; start <= min(n-1, window); start++ {
			for count := 1; start+count <= n; count++ {
				add(layout.SegmentKey(inst.ID, kind.Name, start, count, n, true))
			}
		}
		home := b.home(inst, in)
		for _, seg := range splitByLocation(data.items, home, in.columns()) {
			add(layout.SegmentKey(inst.ID, kind.Name, seg.start, seg.count, n, seg.start > 0))
		}
	}

	keys := make([]layout.MeasurementKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, layout.CompareKeys)
	return keys
}
