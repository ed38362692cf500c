package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Layout hooks
	l := NoopLayoutHooks{}
	l.OnPaginateStart(10)
	l.OnPaginateComplete(2, 3, 1, false, time.Millisecond)
	l.OnRoute("1:1", "1:2", "sibling")
	l.OnOverflow("hero", 1, 1)

	// Engine hooks
	e := NoopEngineHooks{}
	e.OnTransition("initialize", "idle", "waiting")
	e.OnMeasurements(3, 1, 0)
	e.OnCommit(2)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "plan")
	c.OnCacheMiss(ctx, "plan")
	c.OnCacheSet(ctx, "plan", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/documents/{id}")
	h.OnResponse(ctx, "GET", "/documents/{id}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	counters := NewCounters()
	SetLayoutHooks(counters)
	SetEngineHooks(counters)
	SetCacheHooks(counters)
	SetHTTPHooks(counters)
	if Layout() != LayoutHooks(counters) {
		t.Error("SetLayoutHooks should set custom hooks")
	}
	if Engine() != EngineHooks(counters) {
		t.Error("SetEngineHooks should set custom hooks")
	}
	if Cache() != CacheHooks(counters) {
		t.Error("SetCacheHooks should set custom hooks")
	}
	if HTTP() != HTTPHooks(counters) {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset() should restore NoopLayoutHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testLayoutHooks{}
	SetLayoutHooks(custom)

	// Setting nil should be ignored
	SetLayoutHooks(nil)

	if Layout() != LayoutHooks(custom) {
		t.Error("SetLayoutHooks(nil) should be ignored")
	}

	Reset()
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	c := NewCounters()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.OnPaginateStart(5)
			c.OnPaginateComplete(2, 1, 0, true, time.Microsecond)
			c.OnCacheSet(ctx, "plan", 10)
		}()
	}
	wg.Wait()

	c.OnMeasurements(4, 2, 1)
	c.OnResponse(ctx, "GET", "/", 503, 0)
	c.OnResponse(ctx, "GET", "/", 200, 0)

	snap := c.Snapshot()
	checks := map[string]int64{
		"paginate_passes":         8,
		"paginate_short_circuits": 8,
		"paginate_pages":          16,
		"cache_bytes":             80,
		"engine_measurements":     4,
		"engine_evictions":        2,
		"http_server_errors":      1,
	}
	for name, want := range checks {
		if snap[name] != want {
			t.Errorf("%s = %d, want %d", name, snap[name], want)
		}
	}
}

// Test implementations
type testLayoutHooks struct{ NoopLayoutHooks }
