package layout

import (
	"maps"
	"slices"
)

// Span is a committed vertical placement inside a region.
type Span struct {
	Top    float64 `json:"top" bson:"top"`
	Bottom float64 `json:"bottom" bson:"bottom"`
	Height float64 `json:"height" bson:"height"`
}

// Entry is one unit of placement: a whole block instance, or a contiguous
// range of a list instance's items.
//
// Entries are created without a Span; the paginator assigns spans during
// placement only.
type Entry struct {
	Key        MeasurementKey `json:"key" bson:"key"`
	InstanceID string         `json:"instance_id" bson:"instance_id"`
	Type       string         `json:"type" bson:"type"`

	// List fields; zero for blocks.
	ListKind        string `json:"list_kind,omitempty" bson:"list_kind,omitempty"`
	StartIndex      int    `json:"start_index,omitempty" bson:"start_index,omitempty"`
	Count           int    `json:"count,omitempty" bson:"count,omitempty"`
	Total           int    `json:"total_count,omitempty" bson:"total_count,omitempty"`
	IsContinuation  bool   `json:"is_continuation,omitempty" bson:"is_continuation,omitempty"`
	IsMetadata      bool   `json:"is_metadata,omitempty" bson:"is_metadata,omitempty"`
	AvoidSplit      bool   `json:"avoid_split,omitempty" bson:"avoid_split,omitempty"`
	ContinuesOnNext bool   `json:"continues_on_next,omitempty" bson:"continues_on_next,omitempty"`

	// Items is the full normalized item array of the list (shared, read-only).
	Items []any `json:"-" bson:"-"`
	// Meta is passed to the estimator for blocks and metadata entries.
	Meta map[string]any `json:"-" bson:"-"`

	Height    float64 `json:"height" bson:"height"`
	Estimated bool    `json:"estimated,omitempty" bson:"estimated,omitempty"`

	Home       RegionKey `json:"home" bson:"home"`
	Region     RegionKey `json:"region" bson:"region"`
	SlotIndex  int       `json:"slot_index" bson:"slot_index"`
	OrderIndex int       `json:"order_index" bson:"order_index"`
	Sequence   int       `json:"sequence,omitempty" bson:"sequence,omitempty"`

	Span           *Span `json:"span,omitempty" bson:"span,omitempty"`
	Overflow       bool  `json:"overflow,omitempty" bson:"overflow,omitempty"`
	OverflowRouted bool  `json:"overflow_routed,omitempty" bson:"overflow_routed,omitempty"`
}

// IsList reports whether the entry is a list segment with at least one item.
func (e *Entry) IsList() bool {
	return e.Key.Kind == KeySegment && !e.IsMetadata && e.Count > 0
}

// Splittable reports whether the paginator may split the entry.
func (e *Entry) Splittable() bool {
	return e.IsList() && !e.AvoidSplit && e.Count > 1
}

// SegmentItems returns the items covered by this segment.
func (e *Entry) SegmentItems() []any {
	if e.StartIndex >= len(e.Items) {
		return nil
	}
	end := min(e.StartIndex+e.Count, len(e.Items))
	return e.Items[e.StartIndex:end]
}

// Clone returns a copy that can be mutated independently. Items and Meta are
// shared read-only data and are not copied.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Span != nil {
		s := *e.Span
		c.Span = &s
	}
	return &c
}

// CompareEntries orders entries within a region by slot index, instance
// order, sequence and start index. Ties fall back to the measurement key so
// the order is total.
func CompareEntries(a, b *Entry) int {
	if a.SlotIndex != b.SlotIndex {
		return a.SlotIndex - b.SlotIndex
	}
	if a.OrderIndex != b.OrderIndex {
		return a.OrderIndex - b.OrderIndex
	}
	if a.Sequence != b.Sequence {
		return a.Sequence - b.Sequence
	}
	if a.StartIndex != b.StartIndex {
		return a.StartIndex - b.StartIndex
	}
	return CompareKeys(a.Key, b.Key)
}

// Buckets maps each home region to its unplaced entries.
type Buckets map[RegionKey][]*Entry

// Regions returns the bucket keys in visiting order.
func (b Buckets) Regions() []RegionKey {
	keys := slices.Collect(maps.Keys(b))
	slices.SortFunc(keys, RegionKey.Compare)
	return keys
}

// Entries returns every entry in visiting order.
func (b Buckets) Entries() []*Entry {
	var out []*Entry
	for _, r := range b.Regions() {
		out = append(out, b[r]...)
	}
	return out
}

// Keys returns the measurement keys of every entry, in visiting order.
func (b Buckets) Keys() []MeasurementKey {
	entries := b.Entries()
	keys := make([]MeasurementKey, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// MaxPage returns the highest page referenced by a bucket.
func (b Buckets) MaxPage() int {
	maxPage := 0
	for r := range b {
		maxPage = max(maxPage, r.Page)
	}
	return maxPage
}
