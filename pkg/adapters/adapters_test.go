package adapters

import (
	"testing"
)

func TestFixedEstimator(t *testing.T) {
	e := FixedEstimator{BlockHeight: 100, ItemHeight: 20, ListHeader: 30, ContinuationHeader: 10}

	if got := e.EstimateComponentHeight(nil); got != 100 {
		t.Errorf("EstimateComponentHeight(nil) = %v, want 100", got)
	}
	if got := e.EstimateComponentHeight(map[string]any{"height": int64(240)}); got != 240 {
		t.Errorf("EstimateComponentHeight(height=240) = %v, want 240", got)
	}

	items := []any{"a", map[string]any{"height": 50.0}, 3}
	if got := e.EstimateListHeight(items, false); got != 30+20+50+20 {
		t.Errorf("EstimateListHeight(base) = %v, want 120", got)
	}
	if got := e.EstimateListHeight(items, true); got != 10+20+50+20 {
		t.Errorf("EstimateListHeight(cont) = %v, want 100", got)
	}
}

func TestPathResolver(t *testing.T) {
	sources := map[string]any{
		"report": map[string]any{
			"title": "Q3",
			"sections": []any{
				map[string]any{"rows": []any{1, 2}},
				map[string]any{"rows": []any{3}},
			},
		},
	}
	r := PathResolver{}

	tests := []struct {
		ref  string
		ok   bool
		want any
	}{
		{"report.title", true, "Q3"},
		{"report.sections.1.rows", true, nil},
		{"report.sections.5", false, nil},
		{"report.missing", false, nil},
		{"nope", false, nil},
		{"", false, nil},
		{"report.title.x", false, nil},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(sources, tt.ref)
		if ok != tt.ok {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.ref, ok, tt.ok)
			continue
		}
		if tt.want != nil && got != tt.want {
			t.Errorf("Resolve(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}

	rows, _ := r.Resolve(sources, "report.sections.1.rows")
	if s, ok := rows.([]any); !ok || len(s) != 1 {
		t.Errorf("Resolve(rows) = %v, want [3]", rows)
	}
}

func TestItemsNormalizer(t *testing.T) {
	n := NewItemsNormalizer()

	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"nil", nil, 0},
		{"slice", []any{1, 2, 3}, 3},
		{"typed slice", []map[string]any{{"a": 1}, {"a": 2}}, 2},
		{"map with items", map[string]any{"title": "x", "items": []any{1}}, 1},
		{"map with rows", map[string]any{"rows": []string{"a", "b"}}, 2},
		{"map without array", map[string]any{"title": "x"}, 0},
		{"scalar", "hello", 1},
		{"bytes", []byte("raw"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.value); len(got) != tt.want {
				t.Errorf("len(Normalize(%v)) = %d, want %d", tt.value, len(got), tt.want)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	custom := FixedEstimator{BlockHeight: 1}
	a := Default()
	a.Estimator = custom
	a.Resolver = nil
	got := WithDefaults(a)
	if got.Estimator != custom {
		t.Error("WithDefaults should keep a set estimator")
	}
	if !got.Complete() {
		t.Error("WithDefaults should fill every adapter")
	}
}
