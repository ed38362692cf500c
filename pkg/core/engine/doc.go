// Package engine is the layout state machine.
//
// An [Engine] owns everything that persists between pagination passes:
// instances, template, data sources, page variables, the measurement map,
// buckets and home assignments, and the committed and pending plans. It
// decides when enough is known to paginate, runs the paginator, and commits
// the result as the baseline of the next pass.
//
// # State machine
//
// Every consumer call is turned into a typed [Event] and applied by a single
// transition function. Events carry their own timestamp, so a transition
// depends only on the current [State] and the event:
//
//	idle -> waiting-for-initial-measurements -> measuring -> stable
//
// Structural events (Initialize, SetComponents, SetTemplate, SetDataSources,
// SetPageVariables) rebuild buckets and mark the state dirty. Measurement
// batches are applied atomically and schedule at most one rebuild.
// RecalculateLayout stores a pending plan; CommitLayout makes it visible.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Callers serialize access, for
// example with one mutex per document.
package engine
