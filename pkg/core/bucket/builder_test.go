package bucket

import (
	"slices"
	"testing"

	"github.com/matzehuels/pageflow/pkg/adapters"
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

func testBuilder() *Builder {
	a := adapters.Default()
	a.Estimator = adapters.FixedEstimator{BlockHeight: 100, ItemHeight: 10}
	return &Builder{
		Adapters: a,
		Kinds:    layout.KindConfig{"table": {Name: "rows"}, "gallery": {Name: "images", AvoidSplit: true}},
		Params:   layout.DefaultParams(),
	}
}

func twoColumnTemplate() layout.Template {
	return layout.Template{
		Slots: []layout.Slot{
			{ID: "header"},
			{ID: "right", Page: 2, Position: layout.Rect{X: 320, Width: 200}},
		},
		Page: layout.PageGeometry{Width: 600, Height: 800, Columns: 2},
	}
}

func TestResolveHome(t *testing.T) {
	tmpl := twoColumnTemplate()
	tests := []struct {
		name string
		inst layout.Instance
		want layout.RegionKey
	}{
		{"default", layout.Instance{ID: "a"}, layout.Region(1, 1)},
		{"slot position and page", layout.Instance{ID: "a", Layout: layout.Placement{SlotID: "right"}}, layout.Region(2, 2)},
		{"own position wins over slot", layout.Instance{ID: "a", Layout: layout.Placement{
			SlotID: "right", Position: &layout.Rect{X: 10, Width: 100},
		}}, layout.Region(2, 1)},
		{"explicit column wins", layout.Instance{ID: "a", Layout: layout.Placement{
			Position: &layout.Rect{X: 10, Width: 100}, Column: 2,
		}}, layout.Region(1, 2)},
		{"explicit page", layout.Instance{ID: "a", Layout: layout.Placement{Page: 4}}, layout.Region(4, 1)},
		{"column clamped", layout.Instance{ID: "a", Layout: layout.Placement{Column: 9}}, layout.Region(1, 2)},
		{"midpoint on right edge", layout.Instance{ID: "a", Layout: layout.Placement{
			Position: &layout.Rect{X: 590, Width: 20},
		}}, layout.Region(1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveHome(tt.inst, tmpl, 2, 600)
			if got != tt.want {
				t.Errorf("ResolveHome() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildBlocks(t *testing.T) {
	b := testBuilder()
	in := Input{
		Instances: []layout.Instance{
			{ID: "title", Type: "text", Layout: layout.Placement{SlotID: "header"}},
			{ID: "chart", Type: "chart", Meta: map[string]any{"height": 250.0}},
		},
		Template:     twoColumnTemplate(),
		Measurements: layout.Measurements{layout.BlockKey("title"): 42},
	}
	res := b.Build(in)

	entries := res.Buckets[layout.Region(1, 1)]
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	title, chart := entries[0], entries[1]
	if title.Key != layout.BlockKey("title") || title.Height != 42 || title.Estimated {
		t.Errorf("title = %+v, want measured height 42", title)
	}
	if chart.Height != 250 || !chart.Estimated {
		t.Errorf("chart = %+v, want estimated height 250", chart)
	}
	for _, e := range entries {
		if e.Span != nil {
			t.Errorf("entry %s has a span before placement", e.Key)
		}
	}
	if title.SlotIndex != 0 || chart.SlotIndex != 2 {
		t.Errorf("slot indices = %d, %d, want 0, 2", title.SlotIndex, chart.SlotIndex)
	}
}

func TestBuildListWithMetadata(t *testing.T) {
	b := testBuilder()
	in := Input{
		Instances: []layout.Instance{{ID: "orders", Type: "table", DataRef: "data.orders"}},
		Template:  twoColumnTemplate(),
		DataSources: map[string]any{"data": map[string]any{
			"orders": map[string]any{
				"title": "Open orders",
				"rows":  []any{"a", "b", "c"},
			},
		}},
	}
	res := b.Build(in)

	entries := res.Buckets[layout.Region(1, 1)]
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	meta, list := entries[0], entries[1]
	if !meta.IsMetadata || meta.Key != layout.MetadataKey("orders", "rows", 3) {
		t.Errorf("first entry = %s, want metadata", meta.Key)
	}
	if meta.Meta["title"] != "Open orders" {
		t.Errorf("metadata fields = %v", meta.Meta)
	}
	if list.Key != layout.SegmentKey("orders", "rows", 0, 3, 3, false) {
		t.Errorf("list key = %s", list.Key)
	}
	if list.Height != 30 || !list.Estimated {
		t.Errorf("list height = %v, want estimate 30", list.Height)
	}
	if list.Count != 3 || list.Total != 3 || list.IsContinuation {
		t.Errorf("list range = %+v", list)
	}
}

func TestBuildEmptyListDegradesToBlock(t *testing.T) {
	b := testBuilder()
	res := b.Build(Input{
		Instances:   []layout.Instance{{ID: "t", Type: "table", DataRef: "rows"}},
		DataSources: map[string]any{"rows": []any{}},
	})
	entries := res.Buckets[layout.Region(1, 1)]
	if len(entries) != 1 || entries[0].Key != layout.BlockKey("t") {
		t.Fatalf("entries = %v, want one block", entries)
	}
	if entries[0].Height != 100 {
		t.Errorf("Height = %v, want block estimate 100", entries[0].Height)
	}
}

func TestBuildSplitsByItemLocation(t *testing.T) {
	b := testBuilder()
	items := []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
		map[string]any{"name": "c", "page": 2},
		map[string]any{"name": "d"},
		map[string]any{"name": "e", "page": 1},
	}
	res := b.Build(Input{
		Instances:   []layout.Instance{{ID: "l", Type: "table", DataRef: "items"}},
		Template:    twoColumnTemplate(),
		DataSources: map[string]any{"items": items},
	})

	first := res.Buckets[layout.Region(1, 1)]
	second := res.Buckets[layout.Region(2, 1)]
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("buckets = %v", res.Buckets)
	}
	if got, want := first[0].Key, layout.SegmentKey("l", "rows", 0, 2, 5, false); got != want {
		t.Errorf("first segment = %s, want %s", got, want)
	}
	// item e points backwards and stays with the previous run
	if got, want := second[0].Key, layout.SegmentKey("l", "rows", 2, 3, 5, true); got != want {
		t.Errorf("second segment = %s, want %s", got, want)
	}
	if second[0].Home != layout.Region(1, 1) {
		t.Errorf("segment home = %v, want instance home 1:1", second[0].Home)
	}
}

func TestBuildKeepsPriorHome(t *testing.T) {
	b := testBuilder()
	in := Input{
		Instances: []layout.Instance{{ID: "a", Type: "text"}},
		Template:  twoColumnTemplate(),
		PriorAssignments: map[string]layout.Assignment{
			"a": {Home: layout.Region(1, 2), Actual: layout.Region(3, 1)},
		},
	}
	res := b.Build(in)
	got := res.Assignments["a"]
	if got.Home != layout.Region(1, 2) || got.Actual != layout.Region(3, 1) {
		t.Errorf("assignment = %+v, want home 1:2 actual 3:1", got)
	}
	if len(res.Buckets[layout.Region(1, 2)]) != 1 {
		t.Errorf("entry not bucketed at prior home")
	}
}

func TestBuildAvoidSplitKind(t *testing.T) {
	b := testBuilder()
	res := b.Build(Input{
		Instances:   []layout.Instance{{ID: "g", Type: "gallery", DataRef: "imgs"}},
		DataSources: map[string]any{"imgs": []any{1, 2, 3}},
	})
	e := res.Buckets[layout.Region(1, 1)][0]
	if !e.AvoidSplit || e.Splittable() {
		t.Errorf("gallery entry should avoid splitting: %+v", e)
	}
}

func TestRequiredKeys(t *testing.T) {
	b := testBuilder()
	in := Input{
		Instances: []layout.Instance{
			{ID: "a", Type: "text"},
			{ID: "t", Type: "table", DataRef: "t"},
		},
		DataSources: map[string]any{"t": map[string]any{"caption": "x", "rows": []any{1, 2, 3}}},
	}
	got := b.RequiredKeys(in)
	want := []layout.MeasurementKey{
		layout.BlockKey("a"),
		layout.SegmentKey("t", "rows", 0, 1, 3, false),
		layout.SegmentKey("t", "rows", 0, 2, 3, false),
		layout.SegmentKey("t", "rows", 0, 3, 3, false),
		layout.SegmentKey("t", "rows", 1, 1, 3, true),
		layout.SegmentKey("t", "rows", 1, 2, 3, true),
		layout.SegmentKey("t", "rows", 2, 1, 3, true),
		layout.MetadataKey("t", "rows", 3),
	}
	if !slices.Equal(got, want) {
		t.Errorf("RequiredKeys() =\n%v\nwant\n%v", got, want)
	}

	again := b.RequiredKeys(Input{
		Instances:    in.Instances,
		DataSources:  in.DataSources,
		Measurements: layout.Measurements{layout.BlockKey("a"): 10},
	})
	if !slices.Equal(got, again) {
		t.Error("RequiredKeys should not depend on measurements")
	}
}

func TestRequiredKeysContinuationWindow(t *testing.T) {
	b := testBuilder()
	b.Params.ContinuationWindow = 2
	items := make([]any, 10)
	keys := b.RequiredKeys(Input{
		Instances:   []layout.Instance{{ID: "l", Type: "table", DataRef: "l"}},
		DataSources: map[string]any{"l": items},
	})
	// 10 prefixes, 9 ranges from start 1, 8 ranges from start 2
	if len(keys) != 27 {
		t.Errorf("len(keys) = %d, want 27", len(keys))
	}
	for _, k := range keys {
		if k.Start > 2 {
			t.Errorf("key %s starts beyond the continuation window", k)
		}
	}
}
