package paginate

import (
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

type routeEdge struct {
	key layout.MeasurementKey
	to  layout.RegionKey
}

// routeGraph records the routes of one pass. Edges only point forward in
// region order, and each (key, target) pair is recorded once.
type routeGraph struct {
	edges []layout.Route
	seen  map[routeEdge]struct{}
}

func newRouteGraph() routeGraph {
	return routeGraph{seen: map[routeEdge]struct{}{}}
}

// add records r. It reports false for backward or self edges and for
// duplicates.
func (g *routeGraph) add(r layout.Route) bool {
	if !r.From.Before(r.To) {
		return false
	}
	k := routeEdge{key: r.Key, to: r.To}
	if _, ok := g.seen[k]; ok {
		return false
	}
	g.seen[k] = struct{}{}
	g.edges = append(g.edges, r)
	return true
}
