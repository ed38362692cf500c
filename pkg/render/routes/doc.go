// Package routes renders a plan's routing graph with Graphviz.
//
// Every region that holds entries or takes part in a route becomes a node,
// grouped into one cluster per page. Every forwarding decision the paginator
// made becomes an edge labelled with the entry key and the reason:
//
//	dot := routes.ToDOT(plan, routes.Options{})
//	svg, err := routes.RenderSVG(ctx, dot)
//
// Edges are coloured by reason so overflow chains stand out from ordinary
// list splits.
package routes
