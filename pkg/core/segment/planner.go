package segment

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/errors"
)

// Descriptor is the abstract shape of one placed entry.
type Descriptor struct {
	Key            layout.MeasurementKey
	InstanceID     string
	Height         float64
	Spacing        float64
	IsMetadata     bool
	IsContinuation bool
	// Lead is the height that must follow a metadata descriptor in the same
	// region, usually one item of its list.
	Lead float64
	// Actual is where the paginator placed the entry.
	Actual layout.RegionKey
}

// Signature identifies a descriptor across runs.
func (d Descriptor) Signature() string {
	return d.Key.String() + "@" + strconv.FormatFloat(d.Height, 'f', 1, 64)
}

// Capacity declares the usable height of one region.
type Capacity struct {
	Region   layout.RegionKey
	Capacity float64
}

// Decision is the advised region of one descriptor.
type Decision struct {
	Descriptor Descriptor
	Region     layout.RegionKey
	Top        float64
	Overflow   bool
	Frozen     bool
}

// Planner packs descriptors first-fit and audits plans.
type Planner struct {
	params layout.Params
	cache  *RerouteCache
	logger *log.Logger
}

// NewPlanner returns a planner with its own reroute cache.
func NewPlanner(params layout.Params, logger *log.Logger) *Planner {
	params.SetDefaults()
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Planner{params: params, cache: NewRerouteCache(params.ThrashLimit), logger: logger}
}

// Cache returns the planner's reroute cache.
func (p *Planner) Cache() *RerouteCache { return p.cache }

// Plan places descriptors first-fit into regions, in order. Decisions never
// move backwards; a frozen target moves a descriptor forward only. A
// descriptor that fits no region is placed alone and flagged as overflow.
func (p *Planner) Plan(descs []Descriptor, regions []Capacity) []Decision {
	if len(regions) == 0 {
		return nil
	}
	eps := p.params.FitEpsilon
	out := make([]Decision, 0, len(descs))
	idx, used := 0, 0.0

	for i, d := range descs {
		dec := Decision{Descriptor: d}
		if target, ok := p.cache.Lookup(d.Signature()); ok {
			if j := indexOf(regions, target); j > idx {
				idx, used = j, 0
				dec.Frozen = true
			}
		}

		need := d.Height
		if d.IsMetadata && i+1 < len(descs) && descs[i+1].InstanceID == d.InstanceID {
			need += descs[i+1].Spacing + d.Lead
		}

		for {
			gap := 0.0
			if used > 0 {
				gap = d.Spacing
			}
			if used+gap+need <= regions[idx].Capacity+eps {
				dec.Top = used + gap
				used += gap + d.Height
				break
			}
			if used == 0 || idx == len(regions)-1 {
				dec.Top = used + gap
				dec.Overflow = true
				used += gap + d.Height
				break
			}
			idx, used = idx+1, 0
		}
		dec.Region = regions[idx].Region
		out = append(out, dec)
	}
	return out
}

func indexOf(regions []Capacity, r layout.RegionKey) int {
	for i, c := range regions {
		if c.Region == r {
			return i
		}
	}
	return -1
}

// Describe converts a plan into descriptors, in visiting order.
func (p *Planner) Describe(plan layout.Plan) []Descriptor {
	placements := plan.Placements()
	out := make([]Descriptor, 0, len(placements))
	for i, pl := range placements {
		e := pl.Entry
		d := Descriptor{
			Key:            e.Key,
			InstanceID:     e.InstanceID,
			Height:         e.Height,
			Spacing:        p.params.EntrySpacing,
			IsMetadata:     e.IsMetadata,
			IsContinuation: e.IsContinuation,
			Actual:         pl.Region,
		}
		if e.Span != nil {
			d.Height = e.Span.Height
		}
		if e.IsMetadata && i+1 < len(placements) {
			if next := placements[i+1].Entry; next.InstanceID == e.InstanceID && next.Count > 0 {
				d.Lead = next.Height / float64(next.Count)
			}
		}
		out = append(out, d)
	}
	return out
}

// Capacities returns the declared capacity of every region of plan.
func (p *Planner) Capacities(plan layout.Plan) []Capacity {
	usable := plan.RegionHeight - p.params.TopInset - p.params.SafetyMargin
	var out []Capacity
	for _, pg := range plan.Pages {
		for _, col := range pg.Columns {
			out = append(out, Capacity{Region: layout.Region(pg.Number, col.Index), Capacity: usable})
		}
	}
	return out
}

// Audit packs plan's entries first-fit and reports every list segment or
// metadata entry placed differently by the paginator. Disagreements are
// recorded in the reroute cache. Audit never modifies plan.
func (p *Planner) Audit(plan layout.Plan) []layout.Diagnostic {
	decisions := p.Plan(p.Describe(plan), p.Capacities(plan))

	var diags []layout.Diagnostic
	for _, dec := range decisions {
		d := dec.Descriptor
		if d.Key.IsBlock() || dec.Region == d.Actual {
			continue
		}
		target, frozen := p.cache.Record(d.Signature(), dec.Region)
		actual := d.Actual
		msg := fmt.Sprintf("%s placed in %s, first-fit advises %s", d.Key, actual, target)
		if frozen {
			msg += " (frozen)"
		}
		diags = append(diags, layout.Diagnostic{
			Code:        errors.ErrCodeAdvisoryMismatch,
			Message:     msg,
			ComponentID: d.InstanceID,
			Region:      &actual,
		})
	}
	if len(diags) > 0 {
		p.logger.Debug("advisory audit", "mismatches", len(diags), "remembered", p.cache.Len())
	}
	return diags
}
