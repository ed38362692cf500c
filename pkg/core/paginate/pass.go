package paginate

import (
	"fmt"
	"slices"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/errors"
)

// pass is the scratch state of one pagination pass. It is discarded after
// the plan is built.
type pass struct {
	p        *Paginator
	in       Input
	params   layout.Params
	capacity float64
	columns  int
	pages    int

	queues   map[layout.RegionKey][]*layout.Entry
	placed   map[layout.RegionKey][]*layout.Entry
	blockAt  map[string]layout.RegionKey
	previous map[layout.RegionKey][]layout.Entry
	graph    routeGraph

	warnings    []layout.OverflowWarning
	warned      map[warningKey]struct{}
	diagnostics []layout.Diagnostic

	pageLimitHit bool
	aborted      bool
}

type warningKey struct {
	id     string
	region layout.RegionKey
}

func newPass(p *Paginator, in Input, columns int) *pass {
	ps := &pass{
		p:        p,
		in:       in,
		params:   p.params,
		capacity: in.RegionHeight,
		columns:  columns,
		queues:   map[layout.RegionKey][]*layout.Entry{},
		placed:   map[layout.RegionKey][]*layout.Entry{},
		blockAt:  map[string]layout.RegionKey{},
		warned:   map[warningKey]struct{}{},
		graph:    newRouteGraph(),
	}

	ps.pages = max(in.RequestedPageCount, in.Buckets.MaxPage(), 1)
	if ps.pages > ps.params.MaxPages {
		ps.limitPages(fmt.Sprintf("%d pages requested, limit is %d", ps.pages, ps.params.MaxPages))
		ps.pages = ps.params.MaxPages
	}

	// Seed queues with clones so the caller's buckets are never mutated.
	for _, r := range in.Buckets.Regions() {
		target := ps.clamp(r)
		for _, e := range in.Buckets[r] {
			c := e.Clone()
			c.Span = nil
			c.Region = target
			ps.queues[target] = append(ps.queues[target], c)
		}
	}

	if prev := in.Previous; prev != nil && prev.RegionHeight == in.RegionHeight && prev.ColumnCount == columns {
		ps.previous = map[layout.RegionKey][]layout.Entry{}
		for _, pl := range prev.Placements() {
			ps.previous[pl.Region] = append(ps.previous[pl.Region], *pl.Entry)
		}
	}
	return ps
}

// clamp maps a bucket region into the visitable grid.
func (ps *pass) clamp(r layout.RegionKey) layout.RegionKey {
	r.Column = max(1, min(r.Column, ps.columns))
	r.Page = max(1, r.Page)
	if r.Page > ps.params.MaxPages {
		r = layout.Region(ps.params.MaxPages, ps.columns)
	}
	return r
}

func (ps *pass) run() {
	for r := layout.Region(1, 1); r.Page <= ps.pages; r = r.Next(ps.columns) {
		ps.visit(r)
	}
}

// visit processes one region's queue.
func (ps *pass) visit(r layout.RegionKey) {
	queue := ps.queues[r]
	delete(ps.queues, r)
	slices.SortStableFunc(queue, layout.CompareEntries)

	if ps.aborted {
		for _, e := range queue {
			ps.warn(e.InstanceID, r)
		}
		return
	}

	cursor := ps.params.TopInset
	i := ps.skipUnchanged(r, queue, &cursor)

	for ; i < len(queue); i++ {
		if ps.p.stats.Iterations >= ps.params.MaxIterations {
			ps.abort(r, queue[i:])
			return
		}
		ps.p.stats.Iterations++

		e := queue[i]
		ps.refreshHeight(e)

		if ps.fits(cursor, e.Height) {
			ps.commit(e, r, cursor, false)
			cursor = ps.advance(e, cursor)
			continue
		}

		var next float64
		var routed bool
		if e.Splittable() {
			next, routed = ps.splitList(e, r, cursor, queue[i+1:])
		} else {
			next, routed = ps.overflowBlock(e, r, cursor, queue[i+1:])
		}
		if routed {
			return
		}
		cursor = next
	}
}

// skipUnchanged commits the leading entries that the previous plan placed
// here at the same offset with the same height. It returns the number of
// entries consumed.
func (ps *pass) skipUnchanged(r layout.RegionKey, queue []*layout.Entry, cursor *float64) int {
	prev := ps.previous[r]
	i := 0
	for ; i < len(queue) && i < len(prev); i++ {
		e, pe := queue[i], prev[i]
		ps.refreshHeight(e)
		if pe.Key != e.Key || pe.Height != e.Height || pe.Overflow || pe.Span == nil {
			break
		}
		if pe.Span.Top != *cursor || !ps.fits(*cursor, e.Height) {
			break
		}
		ps.p.stats.Iterations++
		ps.p.stats.Skipped++
		ps.commit(e, r, *cursor, false)
		*cursor = ps.advance(e, *cursor)
	}
	return i
}

// refreshHeight applies a measurement newer than the bucket snapshot.
func (ps *pass) refreshHeight(e *layout.Entry) {
	if !e.Estimated {
		return
	}
	if h, ok := ps.lookup(e.Key); ok {
		e.Height = h
		e.Estimated = false
	}
}

func (ps *pass) lookup(k layout.MeasurementKey) (float64, bool) {
	ps.p.stats.Lookups++
	return ps.in.Measurements.Lookup(k)
}

// fits reports whether an entry of height h starting at top fits the region.
func (ps *pass) fits(top, h float64) bool {
	return top+h+ps.params.SafetyMargin <= ps.capacity+ps.params.FitEpsilon
}

// fitsFresh reports whether h fits an empty region.
func (ps *pass) fitsFresh(h float64) bool {
	return ps.fits(ps.params.TopInset, h)
}

func (ps *pass) isEmpty(r layout.RegionKey) bool {
	return len(ps.placed[r]) == 0
}

func (ps *pass) advance(e *layout.Entry, cursor float64) float64 {
	return cursor + e.Height + ps.params.EntrySpacing
}

// commit places e in r at top. Placement is update-or-insert: a (key, region)
// pair occurs at most once, and a block instance occupies one region.
func (ps *pass) commit(e *layout.Entry, r layout.RegionKey, top float64, overflow bool) {
	span := layout.Span{Top: top, Bottom: top + e.Height, Height: e.Height}
	if overflow {
		limit := max(ps.capacity-ps.params.SafetyMargin, 0)
		span.Top = min(span.Top, limit)
		span.Bottom = min(span.Bottom, limit)
		span.Height = span.Bottom - span.Top
		e.Overflow = true
	}
	e.Span = &span
	e.Region = r

	if e.Key.IsBlock() {
		if old, ok := ps.blockAt[e.InstanceID]; ok && old != r {
			ps.remove(old, e.Key)
		}
		ps.blockAt[e.InstanceID] = r
	}
	for j, existing := range ps.placed[r] {
		if existing.Key == e.Key {
			ps.placed[r][j] = e
			return
		}
	}
	ps.placed[r] = append(ps.placed[r], e)

	if overflow {
		ps.warn(e.InstanceID, r)
		ps.p.hooks.OnOverflow(e.InstanceID, r.Page, r.Column)
		ps.p.logger.Warn("entry exceeds region", "key", e.Key, "region", r, "height", e.Height, "capacity", ps.capacity)
	}
}

func (ps *pass) remove(r layout.RegionKey, k layout.MeasurementKey) {
	ps.placed[r] = slices.DeleteFunc(ps.placed[r], func(e *layout.Entry) bool { return e.Key == k })
}

func (ps *pass) warn(id string, r layout.RegionKey) {
	k := warningKey{id: id, region: r}
	if _, ok := ps.warned[k]; ok {
		return
	}
	ps.warned[k] = struct{}{}
	ps.warnings = append(ps.warnings, layout.OverflowWarning{ComponentID: id, Page: r.Page, Column: r.Column})
}

// route forwards e from r to target, followed by the carried entries in
// their current order. It reports false when target lies beyond the page
// limit; nothing is routed then.
func (ps *pass) route(e *layout.Entry, from, to layout.RegionKey, reason layout.RouteReason, carry []*layout.Entry) bool {
	if to.Page > ps.params.MaxPages {
		ps.limitPages(fmt.Sprintf("routing %s beyond page %d", e.Key, ps.params.MaxPages))
		return false
	}
	if !ps.enqueue(e, from, to, reason) {
		return false
	}
	for _, c := range carry {
		ps.enqueue(c, from, to, layout.RouteCarry)
	}
	return true
}

func (ps *pass) enqueue(e *layout.Entry, from, to layout.RegionKey, reason layout.RouteReason) bool {
	if !from.Before(to) {
		ps.p.logger.Debug("backward route rejected", "key", e.Key, "from", from, "to", to)
		return false
	}
	if ps.graph.add(layout.Route{Key: e.Key, From: from, To: to, Reason: reason}) {
		ps.p.hooks.OnRoute(from.String(), to.String(), string(reason))
	}
	e.Region = to
	e.Span = nil
	ps.queues[to] = append(ps.queues[to], e)
	ps.pages = max(ps.pages, to.Page)
	return true
}

func (ps *pass) limitPages(msg string) {
	if ps.pageLimitHit {
		return
	}
	ps.pageLimitHit = true
	ps.p.logger.Warn("page limit exceeded", "limit", ps.params.MaxPages)
	ps.diagnostics = append(ps.diagnostics, layout.Diagnostic{
		Code:    errors.ErrCodePageLimitExceeded,
		Message: msg,
	})
}

// abort stops the pass after the iteration cap. Entries not yet placed are
// reported as warnings; the plan built so far is kept.
func (ps *pass) abort(r layout.RegionKey, rest []*layout.Entry) {
	ps.aborted = true
	ps.p.logger.Warn("iteration limit reached", "limit", ps.params.MaxIterations, "region", r)
	region := r
	ps.diagnostics = append(ps.diagnostics, layout.Diagnostic{
		Code:    errors.ErrCodeIterationLimit,
		Message: fmt.Sprintf("stopped after %d iterations", ps.params.MaxIterations),
		Region:  &region,
	})
	for _, e := range rest {
		ps.warn(e.InstanceID, r)
	}
}

// plan assembles the result.
func (ps *pass) plan() layout.Plan {
	plan := layout.Plan{
		Warnings:    ps.warnings,
		Routes:      ps.graph.edges,
		Diagnostics: ps.diagnostics,
	}
	for pg := 1; pg <= ps.pages; pg++ {
		page := layout.Page{Number: pg}
		for c := 1; c <= ps.columns; c++ {
			r := layout.Region(pg, c)
			col := layout.Column{Index: c}
			used := 0.0
			for _, e := range ps.placed[r] {
				col.Entries = append(col.Entries, *e)
				used = max(used, e.Span.Bottom)
			}
			page.Columns = append(page.Columns, col)
			plan.Regions = append(plan.Regions, layout.RegionUsage{
				Region:    r,
				Used:      used,
				Available: max(ps.capacity-used, 0),
			})
		}
		plan.Pages = append(plan.Pages, page)
	}
	return plan
}
