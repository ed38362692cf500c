package paginate

import (
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// overflowBlock resolves an unsplittable entry that does not fit at cursor.
// It returns the new cursor, or routed=true when e and the rest of the queue
// left the region.
func (ps *pass) overflowBlock(e *layout.Entry, r layout.RegionKey, cursor float64, rest []*layout.Entry) (float64, bool) {
	next := r.Next(ps.columns)

	// A single list item taller than any region gains nothing from moving.
	if e.IsList() && ps.isEmpty(r) && !ps.fitsFresh(e.Height) {
		ps.commit(e, r, cursor, true)
		return ps.advance(e, cursor), false
	}

	if !ps.fitsFresh(e.Height) && !e.OverflowRouted {
		if e.Home == r && r.Column < ps.columns {
			e.Overflow = true
			if ps.route(e, r, layout.Region(r.Page, r.Column+1), layout.RouteSibling, rest) {
				return cursor, true
			}
		} else {
			e.OverflowRouted = true
			if ps.route(e, r, next, layout.RouteOverflow, rest) {
				return cursor, true
			}
		}
	} else if ps.fitsFresh(e.Height) {
		e.OverflowRouted = true
		if ps.route(e, r, next, layout.RouteOverflow, rest) {
			return cursor, true
		}
	}

	// Already routed once while too tall for any region, or no region is
	// left: place it here and report it.
	ps.commit(e, r, cursor, true)
	return ps.advance(e, cursor), false
}

// splitList resolves a multi-item list that does not fit at cursor.
func (ps *pass) splitList(e *layout.Entry, r layout.RegionKey, cursor float64, rest []*layout.Entry) (float64, bool) {
	next := r.Next(ps.columns)
	empty := ps.isEmpty(r)
	bottomZone := cursor > ps.capacity*(1-ps.params.BottomZoneFraction)

	k, hk, estimated := 0, 0.0, false
	for n := e.Count - 1; n >= 1; n-- {
		if bottomZone && n > 1 {
			continue
		}
		h, est := ps.rangeHeight(e, e.StartIndex, n)
		if ps.fits(cursor, h) {
			k, hk, estimated = n, h, est
			break
		}
	}

	switch {
	case k > 0 && k <= ps.params.PreferMoveMaxItems && !empty && ps.fitsFresh(e.Height):
		if ps.route(e, r, next, layout.RouteMove, rest) {
			return cursor, true
		}
	case k == 0 && !empty:
		if ps.route(e, r, next, layout.RouteOverflow, rest) {
			return cursor, true
		}
		ps.commit(e, r, cursor, true)
		return ps.advance(e, cursor), false
	}

	overflow := false
	if k == 0 {
		// Not even one item fits an empty region.
		k = 1
		hk, estimated = ps.rangeHeight(e, e.StartIndex, 1)
		overflow = true
	}

	head, tail := ps.split(e, k, hk, estimated)
	ps.commit(head, r, cursor, overflow)
	cursor = ps.advance(head, cursor)

	if ps.route(tail, r, next, layout.RouteSplit, rest) {
		return cursor, true
	}
	ps.commit(tail, r, cursor, true)
	return ps.advance(tail, cursor), false
}

// split cuts e after k items. The head keeps e's continuation state and is
// marked as continuing; the tail is a continuation segment.
func (ps *pass) split(e *layout.Entry, k int, hk float64, estimated bool) (head, tail *layout.Entry) {
	ps.p.stats.Splits++

	head = e.Clone()
	head.Count = k
	head.Key = layout.SegmentKey(e.InstanceID, e.ListKind, e.StartIndex, k, e.Total, e.Key.Continuation)
	head.Height = hk
	head.Estimated = estimated
	head.ContinuesOnNext = true

	tail = e.Clone()
	tail.StartIndex = e.StartIndex + k
	tail.Count = e.Count - k
	tail.IsContinuation = true
	tail.Key = layout.SegmentKey(e.InstanceID, e.ListKind, tail.StartIndex, tail.Count, e.Total, true)
	tail.Height, tail.Estimated = ps.rangeHeight(e, tail.StartIndex, tail.Count)
	tail.Span = nil
	tail.Overflow = false
	return head, tail
}

// rangeHeight returns the height of items [start, start+count) of e's list:
// a measured split first, then a proportional share of a measured full list,
// then the estimator. The bool reports whether the height is estimated.
func (ps *pass) rangeHeight(e *layout.Entry, start, count int) (float64, bool) {
	if h, ok := ps.lookup(layout.SegmentKey(e.InstanceID, e.ListKind, start, count, e.Total, start > 0)); ok {
		return h, false
	}
	if e.Total > 0 {
		if h, ok := ps.lookup(e.Key.Full()); ok {
			return h * float64(count) / float64(e.Total), false
		}
	}
	if start+count <= len(e.Items) {
		items := e.Items[start : start+count]
		return layout.ClampHeight(ps.p.adapters.Estimator.EstimateListHeight(items, start > 0)), true
	}
	if e.Count > 0 {
		return e.Height * float64(count) / float64(e.Count), true
	}
	return e.Height, true
}
