// Package bucket assigns content instances to home regions and splits them
// into unplaced layout entries.
//
// # Home Regions
//
// Every instance has exactly one home region, resolved in priority order:
//
//  1. An explicit page/column on the instance
//  2. The horizontal midpoint of the instance's position (or its slot's
//     position), divided into equal-width columns
//  3. Column 1 of the slot's page
//
// Once computed, a home is carried forward through [Input.PriorAssignments]
// so overflow and measurement never move it. Only a structural change (new
// template, changed instance layout) drops the prior assignment.
//
// # Lists
//
// Instance types registered in a [layout.KindConfig] are expandable lists.
// Their data is resolved and normalized through the adapters, and the items
// become one or more segment entries. Items carrying explicit page/column
// fields split the list into contiguous per-region segments. A map-valued
// source with non-array fields also yields a zero-item metadata entry
// ordered before the list, and a list with no items degrades to a block.
//
// # Measurement Keys
//
// [Builder.RequiredKeys] enumerates every key the paginator might ever look
// up, so a renderer can measure them ahead of time and future reflows never
// need a synchronous measure-then-split round trip.
package bucket
