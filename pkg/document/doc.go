// Package document provides the wire format of pageflow documents and plans.
//
// A [Document] bundles everything one pagination needs: the template, the
// component instances, their data sources and page variables, the list kind
// configuration, optional parameter overrides, and any measurements already
// known. Documents are read from JSON or TOML:
//
//	id = "report"
//	region_height = 760
//
//	[template.page]
//	width = 600
//	height = 800
//	columns = 2
//
//	[kinds.table]
//	name = "rows"
//
//	[[components]]
//	id = "title"
//	type = "heading"
//
//	[[components]]
//	id = "orders"
//	type = "table"
//	data_ref = "orders.items"
//
// Plans are serialized as indented JSON with [MarshalPlan]. Measurement keys
// and region keys use their string forms at this boundary only.
package document
