// Package segment is an advisory cross-check of list placement.
//
// The [Planner] reduces placed entries to abstract [Descriptor] values
// (height, spacing, metadata and continuation flags) and packs them first-fit
// against declared region capacities, independent of the paginator's cursor
// algorithm. [Planner.Audit] compares the two and reports disagreements as
// ADVISORY_MISMATCH diagnostics. It never changes a plan.
//
// Disagreements are remembered in a [RerouteCache] keyed by descriptor
// signature. A descriptor whose advised target keeps flipping between runs is
// frozen to the forward-most target it has seen, so repeated audits converge
// instead of thrashing.
package segment
