package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/cache"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete paginate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(doc); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	docHash, err := cache.HashJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	result := &Result{DocumentHash: docHash}

	// Stage 1: Paginate
	start := time.Now()
	plan, hit, err := r.PaginateWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}
	result.Plan = plan
	result.CacheInfo.PlanHit = hit
	result.Stats.PaginateTime = time.Since(start)
	result.Stats.Pages = plan.PageCount()
	result.Stats.Routes = len(plan.Routes)
	result.Stats.Warnings = len(plan.Warnings)
	result.Stats.Diagnostics = len(plan.Diagnostics)
	result.Stats.Entries, result.Stats.Estimated = countEntries(plan)
	result.Stats.Measured = result.Stats.Entries - result.Stats.Estimated

	keys, _, err := r.RequiredKeysWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("required keys: %w", err)
	}
	result.RequiredKeys = keys

	r.Logger.Info("paginated document",
		"pages", result.Stats.Pages,
		"entries", result.Stats.Entries,
		"estimated", result.Stats.Estimated,
		"cached", hit,
		"duration", result.Stats.PaginateTime)

	// Stage 2: Render
	start = time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, plan, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit
	result.Stats.RenderTime = time.Since(start)

	if len(opts.Formats) > 0 {
		r.Logger.Info("rendered outputs",
			"formats", formatList(opts.Formats),
			"duration", result.Stats.RenderTime)
	}
	return result, nil
}

// PaginateWithCacheInfo returns the committed plan of doc, from cache when
// possible, and whether it was a cache hit.
func (r *Runner) PaginateWithCacheInfo(ctx context.Context, doc *document.Document, opts Options) (layout.Plan, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(doc); err != nil {
		return layout.Plan{}, false, err
	}
	docHash, err := cache.HashJSON(doc)
	if err != nil {
		return layout.Plan{}, false, fmt.Errorf("hash document: %w", err)
	}
	key := r.Keyer.PlanKey(docHash, opts.PlanKeyOpts(doc))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if plan, err := document.UnmarshalPlan(data); err == nil {
				return plan, true, nil
			}
			// Undecodable entries are recomputed and overwritten.
		} else if err != nil {
			r.Logger.Warn("plan cache unavailable", "err", err)
		}
	}

	plan, stats, err := Paginate(doc, opts)
	if err != nil {
		return layout.Plan{}, false, err
	}
	r.Logger.Debug("engine pass",
		"iterations", stats.Iterations,
		"splits", stats.Splits,
		"lookups", stats.Lookups)

	if data, err := document.MarshalPlan(plan); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLPlan); err != nil {
			r.Logger.Warn("cache plan", "err", err)
		}
	}
	return plan, false, nil
}

// Paginate is a convenience wrapper that discards the cache hit info.
func (r *Runner) Paginate(ctx context.Context, doc *document.Document, opts Options) (layout.Plan, error) {
	plan, _, err := r.PaginateWithCacheInfo(ctx, doc, opts)
	return plan, err
}

// RequiredKeysWithCacheInfo returns the measurement keys doc needs.
func (r *Runner) RequiredKeysWithCacheInfo(ctx context.Context, doc *document.Document, opts Options) ([]layout.MeasurementKey, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(doc); err != nil {
		return nil, false, err
	}
	// Measurements and region height never change the key set.
	shape := *doc
	shape.Measurements = nil
	shape.RegionHeight = 0
	docHash, err := cache.HashJSON(&shape)
	if err != nil {
		return nil, false, fmt.Errorf("hash document: %w", err)
	}
	key := r.Keyer.KeysKey(docHash, opts.PlanKeyOpts(doc))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var keys []layout.MeasurementKey
			if err := json.Unmarshal(data, &keys); err == nil {
				return keys, true, nil
			}
		}
	}

	keys, err := RequiredKeys(doc, opts)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(keys); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLKeys)
	}
	return keys, false, nil
}

// RequiredKeys is a convenience wrapper that discards the cache hit info.
func (r *Runner) RequiredKeys(ctx context.Context, doc *document.Document, opts Options) ([]layout.MeasurementKey, error) {
	keys, _, err := r.RequiredKeysWithCacheInfo(ctx, doc, opts)
	return keys, err
}

// RenderWithCacheInfo renders artifacts with caching and reports whether all
// of them came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, plan layout.Plan, opts Options) (map[string][]byte, bool, error) {
	if len(opts.Formats) == 0 {
		return map[string][]byte{}, false, nil
	}
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	planData, err := document.MarshalPlan(plan)
	if err != nil {
		return nil, false, fmt.Errorf("serialize plan for cache key: %w", err)
	}
	planHash := cache.Hash(planData)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(planHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, plan, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(planHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
