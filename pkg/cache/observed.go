package cache

import (
	"context"
	"time"

	"github.com/matzehuels/pageflow/pkg/observability"
)

// Observed reports the traffic of an inner Cache to CacheHooks. The key type
// passed to the hooks is the key's kind (see KindOf).
type Observed struct {
	inner Cache
	hooks observability.CacheHooks
}

var _ Cache = (*Observed)(nil)

// NewObserved wraps c. Nil hooks mean the registered observability.Cache().
func NewObserved(c Cache, hooks observability.CacheHooks) *Observed {
	if hooks == nil {
		hooks = observability.Cache()
	}
	return &Observed{inner: c, hooks: hooks}
}

func (o *Observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.inner.Get(ctx, key)
	if err == nil {
		if hit {
			o.hooks.OnCacheHit(ctx, KindOf(key))
		} else {
			o.hooks.OnCacheMiss(ctx, KindOf(key))
		}
	}
	return data, hit, err
}

func (o *Observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.inner.Set(ctx, key, data, ttl)
	if err == nil {
		o.hooks.OnCacheSet(ctx, KindOf(key), len(data))
	}
	return err
}

func (o *Observed) Delete(ctx context.Context, key string) error { return o.inner.Delete(ctx, key) }

func (o *Observed) Close() error { return o.inner.Close() }
