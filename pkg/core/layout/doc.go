// Package layout defines the domain types shared by the pagination core.
//
// The core packages build on these types:
//
//   - pkg/core/bucket assigns [Instance] values to home regions and produces
//     [Buckets] of unplaced [Entry] values
//   - pkg/core/paginate places entries into regions and returns a [Plan]
//   - pkg/core/engine drives both from asynchronously arriving [Measurement]
//     batches
//
// # Regions
//
// A region is one column of one page, identified by a [RegionKey]. Regions are
// ordered page-major, column-minor; [RegionKey.Before] encodes that order and
// every routing decision in the core respects it.
//
// # Measurement Keys
//
// A [MeasurementKey] names exactly what was (or must be) measured: a whole
// block, or a contiguous index range of a list. It is a comparable value and is
// used directly as a map key. The string forms
//
//	<id>:block
//	<id>:<kind>:<start>:<count>:<total>:<base|cont>
//
// exist only at serialization boundaries; see [ParseMeasurementKey].
//
// # Params
//
// Every empirically tuned constant of the algorithm (safety margins, bottom
// zone fraction, stability windows) is a field of [Params]. [DefaultParams]
// returns the calibrated values; callers override individual fields.
package layout
