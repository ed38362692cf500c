package bucket

import (
	"maps"
	"slices"

	"github.com/matzehuels/pageflow/pkg/adapters"
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// Item fields that pin a list item to a region.
const (
	ItemPageField   = "page"
	ItemColumnField = "column"
)

// Builder builds buckets from instances. The zero value is not usable; set
// Adapters (see adapters.Default) and Params.
type Builder struct {
	Adapters layout.Adapters
	Kinds    layout.KindConfig
	Params   layout.Params
}

// Input is everything a build depends on. Builds never mutate it.
type Input struct {
	Instances []layout.Instance
	Template  layout.Template
	// ColumnCount and PageWidth override the template geometry when set.
	ColumnCount      int
	PageWidth        float64
	DataSources      map[string]any
	Measurements     layout.Measurements
	PriorAssignments map[string]layout.Assignment
}

func (in Input) columns() int {
	if in.ColumnCount > 0 {
		return in.ColumnCount
	}
	return in.Template.Page.ColumnCount()
}

func (in Input) pageWidth() float64 {
	if in.PageWidth > 0 {
		return in.PageWidth
	}
	return in.Template.Page.Width
}

// Result is the output of a build.
type Result struct {
	Buckets layout.Buckets
	// Assignments holds the home of every instance. Actual is carried over
	// from the prior assignment, or equals Home for new instances.
	Assignments map[string]layout.Assignment
	// PrimaryKeys lists, per home region, the keys of the entries built
	// there. A region is ready once all of its primary keys are measured.
	PrimaryKeys map[layout.RegionKey][]layout.MeasurementKey
}

// Keys returns every primary key in deterministic order.
func (r Result) Keys() []layout.MeasurementKey {
	var out []layout.MeasurementKey
	for _, region := range slices.SortedFunc(maps.Keys(r.PrimaryKeys), layout.RegionKey.Compare) {
		out = append(out, r.PrimaryKeys[region]...)
	}
	return out
}

// Build assigns home regions and builds the unplaced entries of every
// instance. Entries never carry a span.
func (b *Builder) Build(in Input) Result {
	res := Result{
		Buckets:     layout.Buckets{},
		Assignments: make(map[string]layout.Assignment, len(in.Instances)),
		PrimaryKeys: map[layout.RegionKey][]layout.MeasurementKey{},
	}

	for order, inst := range in.Instances {
		home := b.home(inst, in)
		actual := home
		if prior, ok := in.PriorAssignments[inst.ID]; ok && !prior.Actual.IsZero() {
			actual = prior.Actual
		}
		res.Assignments[inst.ID] = layout.Assignment{Home: home, Actual: actual}

		base := layout.Entry{
			InstanceID: inst.ID,
			Type:       inst.Type,
			Home:       home,
			Region:     home,
			SlotIndex:  in.Template.SlotIndex(inst.Layout.SlotID),
			OrderIndex: order,
		}
		for _, e := range b.entries(inst, base, in) {
			res.Buckets[e.Region] = append(res.Buckets[e.Region], e)
			res.PrimaryKeys[e.Region] = append(res.PrimaryKeys[e.Region], e.Key)
		}
	}

	for r := range res.Buckets {
		slices.SortFunc(res.Buckets[r], layout.CompareEntries)
	}
	for r := range res.PrimaryKeys {
		slices.SortFunc(res.PrimaryKeys[r], layout.CompareKeys)
	}
	return res
}

func (b *Builder) home(inst layout.Instance, in Input) layout.RegionKey {
	if prior, ok := in.PriorAssignments[inst.ID]; ok && !prior.Home.IsZero() {
		return prior.Home
	}
	return ResolveHome(inst, in.Template, in.columns(), in.pageWidth())
}

// entries builds the entries of one instance from a template entry that
// already carries identity, home and ordering.
func (b *Builder) entries(inst layout.Instance, base layout.Entry, in Input) []*layout.Entry {
	kind, isList := b.Kinds.Lookup(inst.Type)
	if !isList {
		return []*layout.Entry{b.block(base, inst.Meta, in.Measurements)}
	}

	data := b.resolve(inst, in.DataSources)
	if len(data.items) == 0 {
		return []*layout.Entry{b.block(base, mergeMeta(inst.Meta, data.meta), in.Measurements)}
	}

	n := len(data.items)
	var out []*layout.Entry
	if len(data.meta) > 0 {
		e := base
		e.Key = layout.MetadataKey(inst.ID, kind.Name, n)
		e.ListKind = e.Key.ListKind
		e.Total = n
		e.IsMetadata = true
		e.AvoidSplit = true
		e.Meta = data.meta
		e.Height, e.Estimated = b.height(e.Key, in.Measurements, func() float64 {
			return b.Adapters.Estimator.EstimateComponentHeight(data.meta)
		})
		out = append(out, &e)
	}

	for i, seg := range splitByLocation(data.items, base.Home, in.columns()) {
		e := base
		cont := seg.start > 0
		e.Key = layout.SegmentKey(inst.ID, kind.Name, seg.start, seg.count, n, cont)
		e.ListKind = kind.Name
		e.StartIndex = seg.start
		e.Count = seg.count
		e.Total = n
		e.IsContinuation = cont
		e.AvoidSplit = kind.AvoidSplit
		e.Items = data.items
		e.Region = seg.region
		e.Sequence = i + 1
		items := data.items[seg.start : seg.start+seg.count]
		e.Height, e.Estimated = b.height(e.Key, in.Measurements, func() float64 {
			return b.Adapters.Estimator.EstimateListHeight(items, cont)
		})
		out = append(out, &e)
	}
	return out
}

func (b *Builder) block(base layout.Entry, meta map[string]any, m layout.Measurements) *layout.Entry {
	e := base
	e.Key = layout.BlockKey(base.InstanceID)
	e.Meta = meta
	e.Height, e.Estimated = b.height(e.Key, m, func() float64 {
		return b.Adapters.Estimator.EstimateComponentHeight(meta)
	})
	return &e
}

// height returns the measured height of k, or the estimate and true.
func (b *Builder) height(k layout.MeasurementKey, m layout.Measurements, estimate func() float64) (float64, bool) {
	if h, ok := m.Lookup(k); ok {
		return h, false
	}
	return layout.ClampHeight(estimate()), true
}

// listData is a resolved list: its items plus the non-array fields of a
// map-valued source.
type listData struct {
	items []any
	meta  map[string]any
}

func (b *Builder) resolve(inst layout.Instance, sources map[string]any) listData {
	value, ok := b.Adapters.Resolver.Resolve(sources, inst.DataRef)
	if !ok {
		return listData{}
	}
	d := listData{items: b.Adapters.Normalizer.Normalize(value)}
	if m, ok := value.(map[string]any); ok {
		for k, v := range m {
			if adapters.IsArray(v) {
				continue
			}
			if d.meta == nil {
				d.meta = map[string]any{}
			}
			d.meta[k] = v
		}
	}
	return d
}

func mergeMeta(a, b map[string]any) map[string]any {
	if len(b) == 0 {
		return a
	}
	out := maps.Clone(b)
	maps.Copy(out, a)
	return out
}

// segment is a contiguous run of list items targeting one region.
type segment struct {
	start, count int
	region       layout.RegionKey
}

// splitByLocation groups items into contiguous runs by their explicit
// page/column fields. Items without a location stay with the previous run.
// Regions never move backwards, so segments stay in ascending order.
func splitByLocation(items []any, home layout.RegionKey, columns int) []segment {
	cur := segment{region: home}
	var out []segment
	for i, item := range items {
		r := itemRegion(item, cur.region, columns)
		if r.Before(cur.region) {
			r = cur.region
		}
		if r != cur.region && cur.count > 0 {
			out = append(out, cur)
			cur = segment{start: i, region: r}
		}
		cur.region = r
		cur.count++
	}
	return append(out, cur)
}

func itemRegion(item any, prev layout.RegionKey, columns int) layout.RegionKey {
	m, ok := item.(map[string]any)
	if !ok {
		return prev
	}
	p, hasPage := adapters.Number(m[ItemPageField])
	c, hasCol := adapters.Number(m[ItemColumnField])
	if !hasPage && !hasCol {
		return prev
	}
	r := prev
	if hasPage && p >= 1 {
		r.Page = int(p)
		if !hasCol {
			r.Column = 1
		}
	}
	if hasCol && c >= 1 {
		r.Column = min(int(c), max(columns, 1))
	}
	return r
}
