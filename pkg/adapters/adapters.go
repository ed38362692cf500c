// Package adapters provides default implementations of the layout adapter
// interfaces: a constant-based height estimator, a dotted-path data resolver
// and a list normalizer.
//
// These are enough to paginate documents whose content heights are either
// measured or roughly uniform. Embedders with real renderers replace the
// estimator with one that knows their fonts and styles.
package adapters

import (
	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// Default returns the default adapter set.
func Default() layout.Adapters {
	return layout.Adapters{
		Estimator:  NewFixedEstimator(),
		Resolver:   PathResolver{},
		Normalizer: NewItemsNormalizer(),
	}
}

// WithDefaults fills unset adapters in a with the defaults.
func WithDefaults(a layout.Adapters) layout.Adapters {
	d := Default()
	if a.Estimator == nil {
		a.Estimator = d.Estimator
	}
	if a.Resolver == nil {
		a.Resolver = d.Resolver
	}
	if a.Normalizer == nil {
		a.Normalizer = d.Normalizer
	}
	return a
}
