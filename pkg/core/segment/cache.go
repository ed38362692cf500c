package segment

import (
	"slices"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// historyLimit bounds the reroute history kept per signature.
const historyLimit = 8

// RerouteCache memoizes advised reroute targets per descriptor signature.
// It is owned by one planner and is not safe for concurrent use.
type RerouteCache struct {
	limit   int
	entries map[string]*rerouteEntry
}

type rerouteEntry struct {
	history []layout.RegionKey
	thrash  int
	frozen  bool
	target  layout.RegionKey
}

// NewRerouteCache returns a cache that freezes a signature after limit
// target changes.
func NewRerouteCache(limit int) *RerouteCache {
	return &RerouteCache{limit: max(limit, 1), entries: map[string]*rerouteEntry{}}
}

// Record notes that sig was advised into target and returns the target to
// use from now on. Once frozen, the frozen target is returned regardless.
func (c *RerouteCache) Record(sig string, target layout.RegionKey) (layout.RegionKey, bool) {
	e, ok := c.entries[sig]
	if !ok {
		e = &rerouteEntry{}
		c.entries[sig] = e
	}
	if e.frozen {
		return e.target, true
	}
	if n := len(e.history); n > 0 && e.history[n-1] != target {
		e.thrash++
	}
	e.history = append(e.history, target)
	if len(e.history) > historyLimit {
		e.history = e.history[len(e.history)-historyLimit:]
	}
	if e.thrash >= c.limit {
		e.frozen = true
		e.target = slices.MaxFunc(e.history, layout.RegionKey.Compare)
		return e.target, true
	}
	return target, false
}

// Lookup returns the frozen target of sig, if any.
func (c *RerouteCache) Lookup(sig string) (layout.RegionKey, bool) {
	e, ok := c.entries[sig]
	if !ok || !e.frozen {
		return layout.RegionKey{}, false
	}
	return e.target, true
}

// History returns the recorded targets of sig, oldest first.
func (c *RerouteCache) History(sig string) []layout.RegionKey {
	if e, ok := c.entries[sig]; ok {
		return slices.Clone(e.history)
	}
	return nil
}

// Thrash returns how often the advised target of sig changed.
func (c *RerouteCache) Thrash(sig string) int {
	if e, ok := c.entries[sig]; ok {
		return e.thrash
	}
	return 0
}

// Len returns the number of remembered signatures.
func (c *RerouteCache) Len() int { return len(c.entries) }

// Reset forgets everything. Structural input changes call this.
func (c *RerouteCache) Reset() { clear(c.entries) }
