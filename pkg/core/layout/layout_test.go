package layout

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/pageflow/pkg/errors"
)

func TestRegionKeyOrder(t *testing.T) {
	tests := []struct {
		a, b RegionKey
		want int
	}{
		{Region(1, 1), Region(1, 2), -1},
		{Region(1, 2), Region(2, 1), -1},
		{Region(2, 1), Region(1, 2), 1},
		{Region(3, 2), Region(3, 2), 0},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegionKeyNext(t *testing.T) {
	tests := []struct {
		in      RegionKey
		columns int
		want    RegionKey
	}{
		{Region(1, 1), 2, Region(1, 2)},
		{Region(1, 2), 2, Region(2, 1)},
		{Region(4, 1), 1, Region(5, 1)},
	}
	for _, tt := range tests {
		if got := tt.in.Next(tt.columns); got != tt.want {
			t.Errorf("%v.Next(%d) = %v, want %v", tt.in, tt.columns, got, tt.want)
		}
	}
}

func TestParseRegionKey(t *testing.T) {
	got, err := ParseRegionKey("2:3")
	if err != nil {
		t.Fatalf("ParseRegionKey: %v", err)
	}
	if got != Region(2, 3) {
		t.Errorf("ParseRegionKey = %v, want 2:3", got)
	}

	for _, bad := range []string{"", "2", "0:1", "1:0", "a:b", "1:-2"} {
		if _, err := ParseRegionKey(bad); !errors.Is(err, errors.ErrCodeInvalidRegionKey) {
			t.Errorf("ParseRegionKey(%q) error = %v, want INVALID_REGION_KEY", bad, err)
		}
	}
}

func TestRegionKeyAsJSONMapKey(t *testing.T) {
	in := map[RegionKey]int{Region(1, 2): 7}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"1:2":7}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestMeasurementKeyString(t *testing.T) {
	tests := []struct {
		key  MeasurementKey
		want string
	}{
		{BlockKey("hero"), "hero:block"},
		{SegmentKey("tbl", "rows", 0, 3, 10, false), "tbl:rows:0:3:10:base"},
		{SegmentKey("tbl", "rows", 3, 7, 10, true), "tbl:rows:3:7:10:cont"},
		{MetadataKey("tbl", "rows", 10), "tbl:rows-metadata:0:0:10:base"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseMeasurementKey(tt.want)
		if err != nil {
			t.Errorf("ParseMeasurementKey(%q): %v", tt.want, err)
			continue
		}
		if parsed != tt.key {
			t.Errorf("ParseMeasurementKey(%q) = %#v, want %#v", tt.want, parsed, tt.key)
		}
	}
}

func TestParseMeasurementKeyColonInID(t *testing.T) {
	k, err := ParseMeasurementKey("section:2:intro:block")
	if err != nil {
		t.Fatalf("ParseMeasurementKey: %v", err)
	}
	if k.ID != "section:2:intro" || !k.IsBlock() {
		t.Errorf("got %#v", k)
	}

	k, err = ParseMeasurementKey("a:b:items:1:2:5:cont")
	if err != nil {
		t.Fatalf("ParseMeasurementKey: %v", err)
	}
	if k.ID != "a:b" || k.ListKind != "items" || k.Start != 1 || k.Count != 2 || !k.Continuation {
		t.Errorf("got %#v", k)
	}
}

func TestParseMeasurementKeyInvalid(t *testing.T) {
	for _, bad := range []string{
		"",
		"x",
		":block",
		"t:rows:0:3:10",
		"t:rows:0:3:10:other",
		"t:rows:8:3:10:base",
		"t:rows:-1:3:10:base",
		"t:rows:a:3:10:base",
	} {
		if _, err := ParseMeasurementKey(bad); !errors.Is(err, errors.ErrCodeInvalidMeasurementKey) {
			t.Errorf("ParseMeasurementKey(%q) error = %v, want INVALID_MEASUREMENT_KEY", bad, err)
		}
	}
}

func TestMeasurementKeyHelpers(t *testing.T) {
	seg := SegmentKey("t", "rows", 2, 3, 8, true)
	if got, want := seg.Full(), SegmentKey("t", "rows", 0, 8, 8, false); got != want {
		t.Errorf("Full() = %v, want %v", got, want)
	}
	if !MetadataKey("t", "rows", 8).IsMetadata() {
		t.Error("MetadataKey should report IsMetadata")
	}
	if seg.IsMetadata() {
		t.Error("segment key should not report IsMetadata")
	}
	if BlockKey("x").Full() != BlockKey("x") {
		t.Error("Full() of a block key should be itself")
	}
	if !(MeasurementKey{}).IsZero() {
		t.Error("zero key should report IsZero")
	}
}

func TestCompareKeysTotal(t *testing.T) {
	keys := []MeasurementKey{
		SegmentKey("b", "rows", 1, 1, 3, true),
		BlockKey("b"),
		SegmentKey("a", "rows", 0, 2, 3, false),
		SegmentKey("b", "rows", 0, 3, 3, false),
		SegmentKey("a", "rows", 0, 1, 3, false),
	}
	slices.SortFunc(keys, CompareKeys)
	want := []string{
		"a:rows:0:1:3:base",
		"a:rows:0:2:3:base",
		"b:block",
		"b:rows:0:3:3:base",
		"b:rows:1:1:3:cont",
	}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, k, want[i])
		}
	}
}

func TestCompareEntries(t *testing.T) {
	a := &Entry{Key: BlockKey("a"), SlotIndex: 0, OrderIndex: 5}
	b := &Entry{Key: BlockKey("b"), SlotIndex: 1, OrderIndex: 0}
	meta := &Entry{Key: MetadataKey("c", "rows", 2), SlotIndex: 1, OrderIndex: 1, Sequence: 0}
	seg := &Entry{Key: SegmentKey("c", "rows", 0, 2, 2, false), SlotIndex: 1, OrderIndex: 1, Sequence: 1}

	entries := []*Entry{seg, b, meta, a}
	slices.SortFunc(entries, CompareEntries)
	want := []*Entry{a, b, meta, seg}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].Key, want[i].Key)
		}
	}
}

func TestEntrySegmentItems(t *testing.T) {
	items := []any{"a", "b", "c", "d"}
	e := &Entry{Key: SegmentKey("l", "items", 1, 2, 4, true), Items: items, StartIndex: 1, Count: 2, Total: 4}
	got := e.SegmentItems()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("SegmentItems() = %v, want [b c]", got)
	}
	if !e.Splittable() {
		t.Error("two-item list should be splittable")
	}
	e.AvoidSplit = true
	if e.Splittable() {
		t.Error("AvoidSplit entry should not be splittable")
	}
}

func TestBucketsOrder(t *testing.T) {
	b := Buckets{
		Region(2, 1): {{Key: BlockKey("c")}},
		Region(1, 2): {{Key: BlockKey("b")}},
		Region(1, 1): {{Key: BlockKey("a")}},
	}
	got := b.Keys()
	want := []MeasurementKey{BlockKey("a"), BlockKey("b"), BlockKey("c")}
	if !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if b.MaxPage() != 2 {
		t.Errorf("MaxPage() = %d, want 2", b.MaxPage())
	}
}

func TestParamsDefaults(t *testing.T) {
	p := DefaultParams()
	if p.EntrySpacing != DefaultEntrySpacing {
		t.Errorf("EntrySpacing = %v, want %v", p.EntrySpacing, DefaultEntrySpacing)
	}
	if p.MaxPages != DefaultMaxPages {
		t.Errorf("MaxPages = %d, want %d", p.MaxPages, DefaultMaxPages)
	}
	if p.StabilityWindow != DefaultStabilityWindow {
		t.Errorf("StabilityWindow = %v, want %v", p.StabilityWindow, DefaultStabilityWindow)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}

	custom := Params{EntrySpacing: 4, MaxPages: 2}
	custom.SetDefaults()
	if custom.EntrySpacing != 4 || custom.MaxPages != 2 {
		t.Errorf("SetDefaults overwrote explicit values: %+v", custom)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"negative inset", func(p *Params) { p.TopInset = -1 }},
		{"bottom zone too large", func(p *Params) { p.BottomZoneFraction = 1 }},
		{"quorum above one", func(p *Params) { p.ReadyRegionQuorum = 1.5 }},
		{"negative spacing", func(p *Params) { p.EntrySpacing = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			if err := p.Validate(); !errors.Is(err, errors.ErrCodeInvalidParams) {
				t.Errorf("Validate() = %v, want INVALID_PARAMS", err)
			}
		})
	}
}

func TestPlanLookup(t *testing.T) {
	p := Plan{Pages: []Page{
		{Number: 1, Columns: []Column{
			{Index: 1, Entries: []Entry{{Key: BlockKey("a"), InstanceID: "a"}}},
			{Index: 2, Entries: []Entry{{Key: SegmentKey("l", "rows", 0, 1, 2, false), InstanceID: "l"}}},
		}},
		{Number: 2, Columns: []Column{
			{Index: 1, Entries: []Entry{{Key: SegmentKey("l", "rows", 1, 1, 2, true), InstanceID: "l"}}},
			{Index: 2},
		}},
	}}

	if p.PageCount() != 2 {
		t.Errorf("PageCount() = %d, want 2", p.PageCount())
	}
	if len(p.Placements()) != 3 {
		t.Errorf("len(Placements()) = %d, want 3", len(p.Placements()))
	}
	got := p.EntriesFor("l")
	if len(got) != 2 || got[0].Region != Region(1, 2) || got[1].Region != Region(2, 1) {
		t.Errorf("EntriesFor(l) = %+v", got)
	}
	if _, ok := p.Column(Region(3, 1)); ok {
		t.Error("Column(3:1) should not exist")
	}

	clone := p.Clone()
	clone.Pages[0].Columns[0].Entries[0].Height = 99
	if p.Pages[0].Columns[0].Entries[0].Height == 99 {
		t.Error("Clone should not share entries")
	}
}

func TestKindConfigLookup(t *testing.T) {
	kinds := KindConfig{"table": {Name: "rows"}, "list": {}}
	if lk, ok := kinds.Lookup("table"); !ok || lk.Name != "rows" {
		t.Errorf("Lookup(table) = %+v, %v", lk, ok)
	}
	if lk, ok := kinds.Lookup("list"); !ok || lk.Name != "list" {
		t.Errorf("Lookup(list) = %+v, %v; want name defaulted to type", lk, ok)
	}
	if _, ok := kinds.Lookup("image"); ok {
		t.Error("Lookup(image) should miss")
	}
}

func TestClampHeight(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{12.5, 12.5},
		{0, 0},
		{-3, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := ClampHeight(tt.in); got != tt.want {
			t.Errorf("ClampHeight(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMeasurementsLookupSkipsUnusable(t *testing.T) {
	m := Measurements{
		BlockKey("ok"):  40,
		BlockKey("nan"): math.NaN(),
		BlockKey("inf"): math.Inf(1),
		BlockKey("neg"): -1,
	}
	if h, ok := m.Lookup(BlockKey("ok")); !ok || h != 40 {
		t.Errorf("Lookup(ok) = %v, %v; want 40, true", h, ok)
	}
	for _, id := range []string{"nan", "inf", "neg", "missing"} {
		if _, ok := m.Lookup(BlockKey(id)); ok {
			t.Errorf("Lookup(%s) should miss", id)
		}
	}
}
