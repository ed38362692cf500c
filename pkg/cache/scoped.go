package cache

// ScopedKeyer prefixes every key of an inner Keyer. The HTTP server scopes
// keys per tenant so documents of different callers never share entries.
//
//	tenant := NewScopedKeyer(NewDefaultKeyer(), "tenant:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix. A nil inner keyer
// means the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) PlanKey(documentHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(documentHash, opts)
}

func (k *ScopedKeyer) KeysKey(documentHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.KeysKey(documentHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(planHash, opts)
}
