package adapters

import (
	"strconv"
	"strings"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// PathResolver resolves dotted references such as "orders.items" or
// "report.sections.2.rows". The first segment names a data source; the rest
// walk nested maps and slices. A reference without dots resolves to the
// whole source.
type PathResolver struct{}

var _ layout.Resolver = PathResolver{}

// Resolve implements layout.Resolver.
func (PathResolver) Resolve(sources map[string]any, ref string) (any, bool) {
	if ref == "" {
		return nil, false
	}
	parts := strings.Split(ref, ".")
	cur, ok := sources[parts[0]]
	if !ok {
		return nil, false
	}
	for _, p := range parts[1:] {
		switch v := cur.(type) {
		case map[string]any:
			if cur, ok = v[p]; !ok {
				return nil, false
			}
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
