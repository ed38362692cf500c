package routes

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// Options configures routing graph rendering.
type Options struct {
	// Detailed adds per-region usage and entry counts to node labels.
	Detailed bool
	// Collapse merges parallel edges with the same reason into one edge
	// labelled with a count.
	Collapse bool
}

var reasonColors = map[layout.RouteReason]string{
	layout.RouteSibling:  "steelblue",
	layout.RouteOverflow: "firebrick",
	layout.RouteSplit:    "darkgreen",
	layout.RouteMove:     "darkorange",
	layout.RouteCarry:    "grey50",
}

// ToDOT converts a plan's routing graph to Graphviz DOT.
func ToDOT(plan layout.Plan, opts Options) string {
	regions := collectRegions(plan)

	var buf bytes.Buffer
	buf.WriteString("digraph routes {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [fontsize=10];\n")

	page := 0
	for _, r := range regions {
		if r.Page != page {
			if page != 0 {
				buf.WriteString("  }\n")
			}
			page = r.Page
			fmt.Fprintf(&buf, "  subgraph cluster_page_%d {\n", page)
			fmt.Fprintf(&buf, "    label=\"page %d\";\n", page)
			buf.WriteString("    style=dashed;\n")
		}
		fmt.Fprintf(&buf, "    %q [label=%q];\n", r.String(), nodeLabel(plan, r, opts.Detailed))
	}
	if page != 0 {
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range edges(plan.Routes, opts.Collapse) {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, color=%s, fontcolor=%s];\n",
			e.from.String(), e.to.String(), e.label, e.color, e.color)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// collectRegions returns every region with entries or routes, in order.
func collectRegions(plan layout.Plan) []layout.RegionKey {
	seen := map[layout.RegionKey]bool{}
	for _, p := range plan.Pages {
		for _, c := range p.Columns {
			if len(c.Entries) > 0 {
				seen[layout.Region(p.Number, c.Index)] = true
			}
		}
	}
	for _, r := range plan.Routes {
		seen[r.From] = true
		seen[r.To] = true
	}
	out := make([]layout.RegionKey, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	slices.SortFunc(out, layout.RegionKey.Compare)
	return out
}

func nodeLabel(plan layout.Plan, r layout.RegionKey, detailed bool) string {
	label := r.String()
	if !detailed {
		return label
	}
	if col, ok := plan.Column(r); ok {
		label += "\nentries: " + strconv.Itoa(len(col.Entries))
	}
	for _, u := range plan.Regions {
		if u.Region == r {
			label += fmt.Sprintf("\nused: %.0f / %.0f", u.Used, u.Used+u.Available)
			break
		}
	}
	return label
}

type edge struct {
	from, to layout.RegionKey
	label    string
	color    string
}

func edges(routes []layout.Route, collapse bool) []edge {
	if !collapse {
		out := make([]edge, len(routes))
		for i, r := range routes {
			out[i] = edge{r.From, r.To, r.Key.String() + "\n" + string(r.Reason), colorOf(r.Reason)}
		}
		return out
	}

	type group struct {
		from, to layout.RegionKey
		reason   layout.RouteReason
	}
	counts := map[group]int{}
	var order []group
	for _, r := range routes {
		g := group{r.From, r.To, r.Reason}
		if counts[g] == 0 {
			order = append(order, g)
		}
		counts[g]++
	}
	slices.SortStableFunc(order, func(a, b group) int {
		if c := a.from.Compare(b.from); c != 0 {
			return c
		}
		if c := a.to.Compare(b.to); c != 0 {
			return c
		}
		return cmp.Compare(a.reason, b.reason)
	})
	out := make([]edge, len(order))
	for i, g := range order {
		out[i] = edge{g.from, g.to, fmt.Sprintf("%s x%d", g.reason, counts[g]), colorOf(g.reason)}
	}
	return out
}

func colorOf(r layout.RouteReason) string {
	if c, ok := reasonColors[r]; ok {
		return c
	}
	return "black"
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales from the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
