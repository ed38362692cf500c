package layout

// Estimator supplies heights before real measurements exist. Implementations
// must be pure.
type Estimator interface {
	EstimateComponentHeight(meta map[string]any) float64
	EstimateListHeight(items []any, continuation bool) float64
	EstimateItemHeight(item any) float64
}

// Resolver resolves an instance's data reference against the data sources.
type Resolver interface {
	Resolve(sources map[string]any, ref string) (any, bool)
}

// Normalizer turns a resolved value into an ordered item array.
type Normalizer interface {
	Normalize(value any) []any
}

// Adapters bundles the external collaborators the engine calls.
type Adapters struct {
	Estimator  Estimator
	Resolver   Resolver
	Normalizer Normalizer
}

// Complete reports whether every adapter is set.
func (a Adapters) Complete() bool {
	return a.Estimator != nil && a.Resolver != nil && a.Normalizer != nil
}

// ListKind describes an expandable list type.
type ListKind struct {
	Name       string `json:"name" toml:"name"`
	AvoidSplit bool   `json:"avoid_split,omitempty" toml:"avoid_split"`
}

// KindConfig maps instance types to list kinds. Types not present are
// opaque blocks.
type KindConfig map[string]ListKind

// Lookup returns the list kind registered for an instance type.
func (k KindConfig) Lookup(typ string) (ListKind, bool) {
	lk, ok := k[typ]
	if ok && lk.Name == "" {
		lk.Name = typ
	}
	return lk, ok
}
