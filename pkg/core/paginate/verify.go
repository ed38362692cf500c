package paginate

import (
	"fmt"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// Verify checks the structural invariants of a plan and returns every
// violation found:
//   - committed spans end within the region capacity
//   - spans start at or below the top inset and never move upwards
//   - a (key, region) pair and a block instance are placed at most once
//   - the segments of each list tile [0, total) in ascending order
//   - routes point forward in region order
func Verify(plan layout.Plan, params layout.Params) []error {
	params.SetDefaults()
	var errs []error
	limit := plan.RegionHeight - params.SafetyMargin + params.FitEpsilon

	type pairKey struct {
		key    layout.MeasurementKey
		region layout.RegionKey
	}
	pairs := map[pairKey]struct{}{}
	blocks := map[string]layout.RegionKey{}
	lists := map[string][]*layout.Entry{}
	var order []string

	cursors := map[layout.RegionKey]float64{}
	for _, pl := range plan.Placements() {
		e, r := pl.Entry, pl.Region
		if e.Span == nil {
			errs = append(errs, fmt.Errorf("%s in %s: no span", e.Key, r))
			continue
		}
		if e.Span.Bottom > limit {
			errs = append(errs, fmt.Errorf("%s in %s: bottom %.2f exceeds capacity %.2f", e.Key, r, e.Span.Bottom, plan.RegionHeight))
		}
		prev, seen := cursors[r]
		if !seen {
			prev = params.TopInset
		}
		if e.Span.Top < prev {
			errs = append(errs, fmt.Errorf("%s in %s: top %.2f above cursor %.2f", e.Key, r, e.Span.Top, prev))
		}
		cursors[r] = e.Span.Top

		pk := pairKey{e.Key, r}
		if _, dup := pairs[pk]; dup {
			errs = append(errs, fmt.Errorf("%s placed twice in %s", e.Key, r))
		}
		pairs[pk] = struct{}{}

		switch {
		case e.Key.IsBlock():
			if other, dup := blocks[e.InstanceID]; dup {
				errs = append(errs, fmt.Errorf("block %s placed in %s and %s", e.InstanceID, other, r))
			}
			blocks[e.InstanceID] = r
		case !e.IsMetadata:
			if _, ok := lists[e.InstanceID]; !ok {
				order = append(order, e.InstanceID)
			}
			lists[e.InstanceID] = append(lists[e.InstanceID], e)
		}
	}

	for _, id := range order {
		next := 0
		segs := lists[id]
		for _, e := range segs {
			if e.StartIndex != next {
				errs = append(errs, fmt.Errorf("list %s: segment %s starts at %d, want %d", id, e.Key, e.StartIndex, next))
			}
			next = e.StartIndex + e.Count
		}
		if total := segs[0].Total; next != total {
			errs = append(errs, fmt.Errorf("list %s: segments cover [0,%d), want [0,%d)", id, next, total))
		}
	}

	for _, rt := range plan.Routes {
		if !rt.From.Before(rt.To) {
			errs = append(errs, fmt.Errorf("route %s: %s -> %s is not forward", rt.Key, rt.From, rt.To))
		}
	}
	return errs
}
