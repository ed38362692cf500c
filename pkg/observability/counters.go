package observability

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// Counters is a lock-free hooks implementation that counts events. It
// implements every hook interface and backs the server's /metrics endpoint.
type Counters struct {
	Passes        atomic.Int64
	ShortCircuits atomic.Int64
	Pages         atomic.Int64
	Routes        atomic.Int64
	Overflows     atomic.Int64
	PaginateNanos atomic.Int64

	Transitions  atomic.Int64
	Measurements atomic.Int64
	Evictions    atomic.Int64
	Ignored      atomic.Int64
	Commits      atomic.Int64

	CacheHits   atomic.Int64
	CacheMisses atomic.Int64
	CacheWrites atomic.Int64
	CacheBytes  atomic.Int64

	Requests    atomic.Int64
	ServerError atomic.Int64
}

var (
	_ LayoutHooks = (*Counters)(nil)
	_ EngineHooks = (*Counters)(nil)
	_ CacheHooks  = (*Counters)(nil)
	_ HTTPHooks   = (*Counters)(nil)
)

// NewCounters returns zeroed counters.
func NewCounters() *Counters { return &Counters{} }

func (c *Counters) OnPaginateStart(int) { c.Passes.Inc() }

func (c *Counters) OnPaginateComplete(pages, routes, _ int, shortCircuit bool, d time.Duration) {
	if shortCircuit {
		c.ShortCircuits.Inc()
	}
	c.Pages.Add(int64(pages))
	c.Routes.Add(int64(routes))
	c.PaginateNanos.Add(d.Nanoseconds())
}

func (c *Counters) OnRoute(string, string, string) {}

func (c *Counters) OnOverflow(string, int, int) { c.Overflows.Inc() }

func (c *Counters) OnTransition(string, string, string) { c.Transitions.Inc() }

func (c *Counters) OnMeasurements(applied, evicted, ignored int) {
	c.Measurements.Add(int64(applied))
	c.Evictions.Add(int64(evicted))
	c.Ignored.Add(int64(ignored))
}

func (c *Counters) OnCommit(int) { c.Commits.Inc() }

func (c *Counters) OnCacheHit(context.Context, string)  { c.CacheHits.Inc() }
func (c *Counters) OnCacheMiss(context.Context, string) { c.CacheMisses.Inc() }

func (c *Counters) OnCacheSet(_ context.Context, _ string, size int) {
	c.CacheWrites.Inc()
	c.CacheBytes.Add(int64(size))
}

func (c *Counters) OnRequest(context.Context, string, string) { c.Requests.Inc() }

func (c *Counters) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	if status >= 500 {
		c.ServerError.Inc()
	}
}

// Snapshot returns the current values keyed by metric name.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"paginate_passes":         c.Passes.Load(),
		"paginate_short_circuits": c.ShortCircuits.Load(),
		"paginate_pages":          c.Pages.Load(),
		"paginate_routes":         c.Routes.Load(),
		"paginate_overflows":      c.Overflows.Load(),
		"paginate_nanoseconds":    c.PaginateNanos.Load(),
		"engine_transitions":      c.Transitions.Load(),
		"engine_measurements":     c.Measurements.Load(),
		"engine_evictions":        c.Evictions.Load(),
		"engine_ignored":          c.Ignored.Load(),
		"engine_commits":          c.Commits.Load(),
		"cache_hits":              c.CacheHits.Load(),
		"cache_misses":            c.CacheMisses.Load(),
		"cache_writes":            c.CacheWrites.Load(),
		"cache_bytes":             c.CacheBytes.Load(),
		"http_requests":           c.Requests.Load(),
		"http_server_errors":      c.ServerError.Load(),
	}
}
