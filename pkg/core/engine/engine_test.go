package engine

import (
	"math"
	"testing"
	"time"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/observability"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, cfg Config) (*Engine, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg.Now = c.Now
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, c
}

func singleColumn(height float64) layout.Template {
	return layout.Template{Page: layout.PageGeometry{Width: 600, Height: height, Columns: 1}}
}

func blockInstance(id string) layout.Instance {
	return layout.Instance{ID: id, Type: "text"}
}

func measure(k layout.MeasurementKey, h float64) layout.Measurement {
	return layout.Measurement{Key: k, Height: h}
}

func TestLifecycle(t *testing.T) {
	e, _ := newTestEngine(t, Config{})

	if got := e.State().Status; got != StatusIdle {
		t.Fatalf("initial status = %s, want %s", got, StatusIdle)
	}
	if got := e.Initialize([]layout.Instance{blockInstance("a")}, singleColumn(800), nil, nil); got != StatusWaiting {
		t.Fatalf("status after Initialize = %s, want %s", got, StatusWaiting)
	}
	if e.Recalculate() {
		t.Error("Recalculate while waiting should not produce a plan")
	}

	if got := e.SubmitMeasurements([]layout.Measurement{measure(layout.BlockKey("a"), 200)}); got != StatusMeasuring {
		t.Fatalf("status after measurements = %s, want %s", got, StatusMeasuring)
	}
	if !e.Recalculate() {
		t.Fatal("Recalculate should produce a pending plan")
	}
	v := e.Snapshot()
	if v.Plan != nil {
		t.Error("pending plan must not be visible before commit")
	}
	if v.PendingPageCount != 1 {
		t.Errorf("PendingPageCount = %d, want 1", v.PendingPageCount)
	}

	if !e.Commit() {
		t.Fatal("Commit returned false")
	}
	if got := e.State().Status; got != StatusStable {
		t.Errorf("status after commit = %s, want %s", got, StatusStable)
	}
	v = e.Snapshot()
	if v.Plan == nil || v.Plan.PageCount() != 1 {
		t.Fatalf("committed plan = %+v, want 1 page", v.Plan)
	}
	entry := v.Plan.Pages[0].Columns[0].Entries[0]
	if entry.Span.Top != 0 || entry.Span.Bottom != 200 {
		t.Errorf("span = [%v, %v], want [0, 200]", entry.Span.Top, entry.Span.Bottom)
	}
	if a := v.Assignments["a"]; a.Actual != layout.Region(1, 1) {
		t.Errorf("Actual = %v, want 1:1", a.Actual)
	}
	if e.Commit() {
		t.Error("second Commit should report nothing pending")
	}
}

func TestRecalculateNoOpWhilePending(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	e.Initialize([]layout.Instance{blockInstance("a")}, singleColumn(800), nil, nil)
	e.SubmitMeasurements([]layout.Measurement{measure(layout.BlockKey("a"), 200)})
	e.Recalculate()
	pending := e.State().Pending

	e.SubmitMeasurements([]layout.Measurement{measure(layout.BlockKey("a"), 300)})
	e.Recalculate()
	if e.State().Pending != pending {
		t.Error("Recalculate replaced a pending plan")
	}
	if !e.State().Dirty {
		t.Error("measurement after the pass should keep the state dirty")
	}

	e.Commit()
	if got := e.State().Status; got != StatusMeasuring {
		t.Errorf("status after commit with dirty state = %s, want %s", got, StatusMeasuring)
	}
}

func TestStructuralChangeWhilePending(t *testing.T) {
	twoColumns := layout.Template{Page: layout.PageGeometry{Width: 600, Height: 800, Columns: 2}}
	atColumn := func(id string, col int) layout.Instance {
		return layout.Instance{ID: id, Type: "text", Layout: layout.Placement{Column: col}}
	}
	rows := layout.Instance{ID: "t", Type: "table", DataRef: "orders"}

	tests := []struct {
		name        string
		instances   []layout.Instance
		template    layout.Template
		sources     map[string]any
		update      func(e *Engine)
		id          string
		wantColumns int
		wantHome    layout.RegionKey
		wantTotal   int
	}{
		{
			name:        "template",
			instances:   []layout.Instance{atColumn("a", 2)},
			template:    singleColumn(800),
			update:      func(e *Engine) { e.UpdateTemplate(twoColumns) },
			id:          "a",
			wantColumns: 1,
			wantHome:    layout.Region(1, 2),
		},
		{
			name:      "components",
			instances: []layout.Instance{atColumn("a", 1)},
			template:  twoColumns,
			update: func(e *Engine) {
				e.UpdateComponents([]layout.Instance{atColumn("a", 2)})
			},
			id:          "a",
			wantColumns: 2,
			wantHome:    layout.Region(1, 2),
		},
		{
			name:      "data sources",
			instances: []layout.Instance{rows},
			template:  singleColumn(800),
			sources:   map[string]any{"orders": []any{1, 2}},
			update: func(e *Engine) {
				e.UpdateDataSources(map[string]any{"orders": []any{1, 2, 3}})
			},
			id:          "t",
			wantColumns: 1,
			wantHome:    layout.Region(1, 1),
			wantTotal:   3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, Config{Kinds: layout.KindConfig{"table": {}}})
			e.Initialize(tt.instances, tt.template, tt.sources, nil)
			var batch []layout.Measurement
			for _, k := range e.State().RequiredKeys {
				batch = append(batch, measure(k, 100))
			}
			e.SubmitMeasurements(batch)
			if !e.Recalculate() {
				t.Fatal("Recalculate should produce a pending plan")
			}

			tt.update(e)
			if !e.Commit() {
				t.Fatal("pending plan was dropped by the update")
			}
			st := e.State()
			if st.Committed.ColumnCount != tt.wantColumns {
				t.Errorf("committed ColumnCount = %d, want %d", st.Committed.ColumnCount, tt.wantColumns)
			}
			if st.Status != StatusMeasuring || !st.Dirty {
				t.Errorf("after commit: status = %s, dirty = %v; want %s, true", st.Status, st.Dirty, StatusMeasuring)
			}
			if got := st.Assignments[tt.id].Home; got != tt.wantHome {
				t.Errorf("Home = %v, want %v", got, tt.wantHome)
			}

			if !e.Recalculate() || !e.Commit() {
				t.Fatal("next pass did not produce a plan")
			}
			if got := e.State().Assignments[tt.id]; got.Home != tt.wantHome || got.Actual != tt.wantHome {
				t.Errorf("assignment after next pass = %+v, want home and actual %v", got, tt.wantHome)
			}
			if tt.wantTotal > 0 {
				placed := e.State().Committed.EntriesFor(tt.id)
				if len(placed) == 0 || placed[0].Entry.Total != tt.wantTotal {
					t.Errorf("entries for %s = %+v, want Total %d", tt.id, placed, tt.wantTotal)
				}
			}
		})
	}
}

func TestTemplateChangeRecomputesHomes(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	a := layout.Instance{ID: "a", Type: "text", Layout: layout.Placement{Column: 3}}
	e.Initialize([]layout.Instance{a}, singleColumn(800), nil, nil)
	if got := e.State().Assignments["a"].Home; got != layout.Region(1, 1) {
		t.Fatalf("home in one column = %v, want 1:1", got)
	}

	for cols, want := range map[int]layout.RegionKey{2: layout.Region(1, 2), 3: layout.Region(1, 3), 1: layout.Region(1, 1)} {
		e.UpdateTemplate(layout.Template{Page: layout.PageGeometry{Width: 600, Height: 800, Columns: cols}})
		if got := e.State().Assignments["a"].Home; got != want {
			t.Errorf("%d columns: home = %v, want %v", cols, got, want)
		}
	}
}

func TestNonFiniteMeasurementsIgnored(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	e.Initialize([]layout.Instance{blockInstance("a")}, singleColumn(800), nil, nil)
	e.SubmitMeasurements([]layout.Measurement{measure(layout.BlockKey("a"), 200)})
	e.Recalculate()
	e.Commit()

	for _, h := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		e.SubmitMeasurements([]layout.Measurement{measure(layout.BlockKey("a"), h)})
		if e.State().Dirty {
			t.Errorf("height %v marked the state dirty", h)
		}
		if got := e.State().Measurements[layout.BlockKey("a")]; got != 200 {
			t.Errorf("height %v: a = %v, want 200", h, got)
		}
	}
}

func TestMeasurementFiltering(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	e.Initialize([]layout.Instance{blockInstance("a"), blockInstance("b")}, singleColumn(800), nil, nil)
	e.SubmitMeasurements([]layout.Measurement{
		measure(layout.BlockKey("a"), 200),
		measure(layout.BlockKey("b"), 100),
	})
	e.Recalculate()
	e.Commit()
	if e.State().Dirty {
		t.Fatal("state dirty after commit")
	}

	tests := []struct {
		name  string
		batch []layout.Measurement
		dirty bool
	}{
		{"sub-epsilon delta", []layout.Measurement{measure(layout.BlockKey("a"), 200.1)}, false},
		{"tombstone of unknown key", []layout.Measurement{measure(layout.BlockKey("zzz"), 0)}, false},
		{"pure eviction", []layout.Measurement{measure(layout.BlockKey("b"), -1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.SubmitMeasurements(tt.batch)
			if got := e.State().Dirty; got != tt.dirty {
				t.Errorf("Dirty = %v, want %v", got, tt.dirty)
			}
		})
	}

	if _, ok := e.State().Measurements[layout.BlockKey("b")]; ok {
		t.Error("evicted measurement still present")
	}
	if got := e.State().Measurements[layout.BlockKey("a")]; got != 200 {
		t.Errorf("a = %v, want 200", got)
	}
}

func TestRegionHeightDebounce(t *testing.T) {
	e, c := newTestEngine(t, Config{})
	e.Initialize([]layout.Instance{blockInstance("a")}, singleColumn(800), nil, nil)

	steps := []struct {
		advance time.Duration
		height  float64
		want    float64
	}{
		{0, 600, 600},                      // first report
		{0, 603, 600},                      // jitter
		{400 * time.Millisecond, 603, 600}, // settled, but heights never grow
		{0, 597, 600},                      // new candidate
		{100 * time.Millisecond, 597, 600}, // inside debounce window
		{300 * time.Millisecond, 597, 597}, // settled
		{0, 500, 500},                      // large jump
		{0, 700, 500},                      // large increase ignored
	}
	for i, s := range steps {
		c.Advance(s.advance)
		e.UpdateRegionHeight(s.height)
		if got := e.State().RegionHeight; got != s.want {
			t.Errorf("step %d: RegionHeight = %v, want %v", i, got, s.want)
		}
	}
}

func TestQuorumEndsInitialRound(t *testing.T) {
	e, c := newTestEngine(t, Config{})
	e.Initialize([]layout.Instance{blockInstance("a"), blockInstance("b")}, singleColumn(800), nil, nil)

	e.SubmitMeasurements([]layout.Measurement{measure(layout.BlockKey("a"), 100)})
	if got := e.State().Status; got != StatusWaiting {
		t.Fatalf("status = %s, want %s", got, StatusWaiting)
	}
	if e.Recalculate() {
		t.Fatal("Recalculate before stability window should be a no-op")
	}

	c.Advance(600 * time.Millisecond)
	if !e.Recalculate() {
		t.Fatal("Recalculate after stability window should paginate")
	}
	if !e.State().InitialComplete {
		t.Error("InitialComplete not set")
	}
}

func TestPageVariables(t *testing.T) {
	e, _ := newTestEngine(t, Config{Kinds: layout.KindConfig{"table": {}}})
	instances := []layout.Instance{{ID: "t", Type: "table", DataRef: PageSource + ".rows"}}
	vars := map[string]any{"rows": []any{1, 2, 3}, PageCountVariable: 3}

	e.Initialize(instances, singleColumn(800), nil, vars)
	entries := e.State().Buckets[layout.Region(1, 1)]
	if len(entries) != 1 || entries[0].Total != 3 {
		t.Fatalf("entries = %+v, want one segment of 3 items", entries)
	}

	c := e.Snapshot().RequiredMeasurementKeys
	if len(c) == 0 {
		t.Error("no required keys for list")
	}

	e.SubmitMeasurements([]layout.Measurement{measure(entries[0].Key, 90)})
	e.Recalculate()
	e.Commit()
	if got := e.Snapshot().Plan.PageCount(); got != 3 {
		t.Errorf("PageCount = %d, want 3", got)
	}
}

func TestUpdateComponentsRecomputesChangedHomes(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	tmpl := layout.Template{Page: layout.PageGeometry{Width: 600, Height: 800, Columns: 2}}
	a := layout.Instance{ID: "a", Type: "text", Layout: layout.Placement{Column: 1}}
	b := layout.Instance{ID: "b", Type: "text", Layout: layout.Placement{Column: 1}}
	e.Initialize([]layout.Instance{a, b}, tmpl, nil, nil)

	b.Layout.Column = 2
	e.UpdateComponents([]layout.Instance{a, b})

	got := e.State().Assignments
	if got["a"].Home != layout.Region(1, 1) {
		t.Errorf("a home = %v, want 1:1", got["a"].Home)
	}
	if got["b"].Home != layout.Region(1, 2) {
		t.Errorf("b home = %v, want 1:2", got["b"].Home)
	}
}

func TestHooks(t *testing.T) {
	counters := observability.NewCounters()
	e, _ := newTestEngine(t, Config{Hooks: counters, LayoutHooks: counters})
	e.Initialize([]layout.Instance{blockInstance("a")}, singleColumn(800), nil, nil)
	e.SubmitMeasurements([]layout.Measurement{measure(layout.BlockKey("a"), 200)})
	e.Recalculate()
	e.Commit()

	snap := counters.Snapshot()
	if snap["engine_transitions"] != 4 {
		t.Errorf("engine_transitions = %d, want 4", snap["engine_transitions"])
	}
	if snap["engine_commits"] != 1 {
		t.Errorf("engine_commits = %d, want 1", snap["engine_commits"])
	}
	if snap["paginate_passes"] != 1 {
		t.Errorf("paginate_passes = %d, want 1", snap["paginate_passes"])
	}
}

func TestInvalidParams(t *testing.T) {
	if _, err := New(Config{Params: layout.Params{MaxPages: -1}}); err == nil {
		t.Error("New with invalid params should fail")
	}
}
