// Package paginate places layout entries into page/column regions.
//
// # Overview
//
// A [Paginator] takes buckets of unplaced entries (see pkg/core/bucket), a
// region height, a column count and the known measurements, and returns a
// complete [layout.Plan]. A pass never fails: problems are absorbed locally and
// reported as plan warnings and diagnostics.
//
// # Algorithm
//
// Regions are visited page-major, column-minor. Each region's queue holds
// the entries routed into it by earlier regions plus the entries whose home
// it is, ordered by slot index and instance order. Entries are stacked from
// the top inset downwards; an entry fits when
//
//	bottom + SafetyMargin <= capacity + FitEpsilon
//
// An entry that does not fit is resolved by its shape:
//
//   - Blocks (and lists that avoid splitting) move whole to the next region.
//     A block taller than a fresh region first tries the sibling column of its
//     home page, then the next region, and is force-placed (clipped and
//     flagged as overflow) once it has already been routed.
//   - Lists search for the largest item prefix that fits, place it, and route
//     the remainder as a continuation. Near the bottom of a region only a
//     one-item prefix is considered, and when only a tiny prefix would fit
//     while the whole list fits a fresh region, the list moves instead.
//
// Every forward route carries the rest of the region's queue with it, so
// reading order is preserved. Routes form a directed graph whose edges only
// point forward in region order; [Verify] checks this and the other plan
// invariants mechanically.
//
// # Incremental Passes
//
// Given the previous plan, a pass first compares input signatures and returns
// the previous plan unchanged when nothing changed. Otherwise entries that the
// previous plan placed correctly (same key, same height, same offset) are
// committed without any split lookups.
package paginate
