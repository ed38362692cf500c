// Package pkg provides the core libraries for pageflow document pagination.
//
// # Overview
//
// Pageflow places content instances (opaque blocks and splittable lists)
// into the columns of a page template. Heights arrive asynchronously from a
// measuring renderer; until they do, an estimator fills in. The pkg
// directory is organized into four areas:
//
//  1. [core] - Domain logic (buckets, pagination, the engine state machine)
//  2. [adapters] - Default estimator, data resolver and list normalizer
//  3. [pipeline] - Orchestration (document → paginate → render)
//  4. Infrastructure: [cache], [store], [observability], [errors]
//
// # Architecture
//
// The typical data flow:
//
//	Document (JSON/TOML)
//	         ↓
//	    [core/bucket] package (home regions + unplaced entries)
//	         ↓
//	    [core/paginate] package (place entries, route overflow)
//	         ↓
//	    [core/engine] package (measurement rounds, debounce, commit)
//	         ↓
//	    Plan JSON / routing graph (DOT, SVG, PNG)
//
// # Quick Start
//
//	doc, _ := document.ReadFile("report.toml")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, _ := runner.Execute(ctx, doc, pipeline.Options{Formats: []string{"json"}})
//	fmt.Println(result.Plan.PageCount())
//
// # Main Packages
//
// [core/layout] - Shared domain types: instances, templates, measurement
// and region keys, entries, plans, parameters and the adapter interfaces.
//
// [core/segment] - Advisory first-fit cross-check of list placement. It
// reports disagreements as diagnostics and never changes a plan.
//
// [document] - Wire format of documents, plans and parameter files.
//
// [render/routes] - Routing graph of a plan, rendered with Graphviz.
//
// [cache] - Plan, key-set and artifact caching on disk or in Redis.
//
// [store] - Committed plan snapshots on disk or in MongoDB.
//
// [core]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/core
// [core/bucket]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/core/bucket
// [core/paginate]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/core/paginate
// [core/engine]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/core/engine
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/core/layout
// [core/segment]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/core/segment
// [adapters]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/adapters
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/pipeline
// [document]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/document
// [render/routes]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/render/routes
// [cache]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/errors
package pkg
