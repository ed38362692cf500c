package layout

import (
	"slices"

	"github.com/matzehuels/pageflow/pkg/errors"
)

// Plan is the result of one pagination pass: ordered pages, each with
// ordered columns, each with ordered placed entries.
type Plan struct {
	Pages       []Page            `json:"pages" bson:"pages"`
	Warnings    []OverflowWarning `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Regions     []RegionUsage     `json:"regions,omitempty" bson:"regions,omitempty"`
	Routes      []Route           `json:"routes,omitempty" bson:"routes,omitempty"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty" bson:"diagnostics,omitempty"`

	// Signature identifies the inputs the plan was computed from.
	Signature    string  `json:"signature" bson:"signature"`
	RegionHeight float64 `json:"region_height" bson:"region_height"`
	ColumnCount  int     `json:"column_count" bson:"column_count"`
}

// Page is one page of a plan.
type Page struct {
	Number  int      `json:"number" bson:"number"`
	Columns []Column `json:"columns" bson:"columns"`
}

// Column holds the entries placed in one region, in placement order.
type Column struct {
	Index   int     `json:"index" bson:"index"`
	Entries []Entry `json:"entries" bson:"entries"`
}

// OverflowWarning reports an entry that never fully fit a region.
type OverflowWarning struct {
	ComponentID string `json:"component_id" bson:"component_id"`
	Page        int    `json:"page" bson:"page"`
	Column      int    `json:"column" bson:"column"`
}

// RegionUsage reports how much of a region the plan uses.
type RegionUsage struct {
	Region    RegionKey `json:"region" bson:"region"`
	Used      float64   `json:"used" bson:"used"`
	Available float64   `json:"available" bson:"available"`
}

// RouteReason explains why an entry moved between regions.
type RouteReason string

// Route reasons.
const (
	RouteSibling  RouteReason = "sibling"  // too tall, tried the next column of its home page
	RouteOverflow RouteReason = "overflow" // did not fit, forwarded whole
	RouteSplit    RouteReason = "split"    // remainder of a split list
	RouteMove     RouteReason = "move"     // whole list moved instead of a tiny split
	RouteCarry    RouteReason = "carry"    // queued behind a forwarded entry
)

// Route is one edge of the routing graph: an entry forwarded from one
// region to a later one.
type Route struct {
	Key    MeasurementKey `json:"key" bson:"key"`
	From   RegionKey      `json:"from" bson:"from"`
	To     RegionKey      `json:"to" bson:"to"`
	Reason RouteReason    `json:"reason" bson:"reason"`
}

// Diagnostic is a locally absorbed problem reported alongside a plan.
type Diagnostic struct {
	Code        errors.Code `json:"code" bson:"code"`
	Message     string      `json:"message" bson:"message"`
	ComponentID string      `json:"component_id,omitempty" bson:"component_id,omitempty"`
	Region      *RegionKey  `json:"region,omitempty" bson:"region,omitempty"`
}

// PageCount returns the number of pages.
func (p *Plan) PageCount() int { return len(p.Pages) }

// Column returns the column for region r.
func (p *Plan) Column(r RegionKey) (*Column, bool) {
	if r.Page < 1 || r.Page > len(p.Pages) {
		return nil, false
	}
	cols := p.Pages[r.Page-1].Columns
	if r.Column < 1 || r.Column > len(cols) {
		return nil, false
	}
	return &cols[r.Column-1], true
}

// Placed is an entry together with the region it was placed in.
type Placed struct {
	Region RegionKey
	Entry  *Entry
}

// Placements returns every placed entry in visiting order.
func (p *Plan) Placements() []Placed {
	var out []Placed
	for pi := range p.Pages {
		for ci := range p.Pages[pi].Columns {
			col := &p.Pages[pi].Columns[ci]
			r := Region(p.Pages[pi].Number, col.Index)
			for ei := range col.Entries {
				out = append(out, Placed{Region: r, Entry: &col.Entries[ei]})
			}
		}
	}
	return out
}

// EntriesFor returns the placements of one instance in visiting order.
func (p *Plan) EntriesFor(instanceID string) []Placed {
	var out []Placed
	for _, pl := range p.Placements() {
		if pl.Entry.InstanceID == instanceID {
			out = append(out, pl)
		}
	}
	return out
}

// HasDiagnostic reports whether the plan carries a diagnostic with code.
func (p *Plan) HasDiagnostic(code errors.Code) bool {
	for _, d := range p.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the plan's slices. Entry Items and Meta stay
// shared. Nil slices stay nil.
func (p *Plan) Clone() Plan {
	c := *p
	c.Pages = cloneSlice(p.Pages, func(pg Page) Page {
		pg.Columns = cloneSlice(pg.Columns, func(col Column) Column {
			col.Entries = cloneSlice(col.Entries, func(e Entry) Entry { return *e.Clone() })
			return col
		})
		return pg
	})
	c.Warnings = slices.Clone(p.Warnings)
	c.Regions = slices.Clone(p.Regions)
	c.Routes = slices.Clone(p.Routes)
	c.Diagnostics = cloneSlice(p.Diagnostics, func(d Diagnostic) Diagnostic {
		if d.Region != nil {
			r := *d.Region
			d.Region = &r
		}
		return d
	})
	return c
}

func cloneSlice[T any](s []T, clone func(T) T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[i] = clone(v)
	}
	return out
}
