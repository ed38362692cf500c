package layout

// Instance is one content unit placed against a template. Instances are
// caller-owned and treated as immutable for the duration of a pagination cycle.
type Instance struct {
	ID      string         `json:"id" toml:"id" bson:"id"`
	Type    string         `json:"type" toml:"type" bson:"type"`
	DataRef string         `json:"data_ref,omitempty" toml:"data_ref" bson:"data_ref,omitempty"`
	Layout  Placement      `json:"layout" toml:"layout" bson:"layout"`
	Meta    map[string]any `json:"meta,omitempty" toml:"meta" bson:"meta,omitempty"`
}

// Placement is an instance's layout request. Explicit Page/Column take
// precedence over a position; a position takes precedence over the slot's.
type Placement struct {
	SlotID   string `json:"slot_id,omitempty" toml:"slot_id" bson:"slot_id,omitempty"`
	Position *Rect  `json:"position,omitempty" toml:"position" bson:"position,omitempty"`
	Page     int    `json:"page,omitempty" toml:"page" bson:"page,omitempty"`
	Column   int    `json:"column,omitempty" toml:"column" bson:"column,omitempty"`
}

// HasExplicitRegion reports whether the placement names a page or column.
func (p Placement) HasExplicitRegion() bool { return p.Page > 0 || p.Column > 0 }

// Rect is a rectangle in page coordinates (origin top-left).
type Rect struct {
	X      float64 `json:"x" toml:"x" bson:"x"`
	Y      float64 `json:"y" toml:"y" bson:"y"`
	Width  float64 `json:"width" toml:"width" bson:"width"`
	Height float64 `json:"height" toml:"height" bson:"height"`
}

// MidX returns the horizontal midpoint.
func (r Rect) MidX() float64 { return r.X + r.Width/2 }

// Slot is a named area of the template that instances attach to. Slot order
// in the template is the primary ordering key of entries within a region.
type Slot struct {
	ID       string `json:"id" toml:"id" bson:"id"`
	Page     int    `json:"page,omitempty" toml:"page" bson:"page,omitempty"`
	Position Rect   `json:"position" toml:"position" bson:"position"`
}

// PageGeometry describes the physical page and its column grid.
type PageGeometry struct {
	Width     float64 `json:"width" toml:"width" bson:"width"`
	Height    float64 `json:"height" toml:"height" bson:"height"`
	Columns   int     `json:"columns" toml:"columns" bson:"columns"`
	PageCount int     `json:"page_count,omitempty" toml:"page_count" bson:"page_count,omitempty"`
}

// ColumnCount returns the number of columns, at least one.
func (g PageGeometry) ColumnCount() int {
	if g.Columns < 1 {
		return 1
	}
	return g.Columns
}

// Template is the ordered slot list plus page geometry. Any change to a
// template invalidates home region assignments.
type Template struct {
	ID    string       `json:"id,omitempty" toml:"id" bson:"id,omitempty"`
	Slots []Slot       `json:"slots" toml:"slots" bson:"slots"`
	Page  PageGeometry `json:"page" toml:"page" bson:"page"`
}

// SlotIndex returns the index of the slot with the given ID, or len(Slots)
// when no slot matches. Unslotted instances therefore sort after slotted ones.
func (t Template) SlotIndex(id string) int {
	for i, s := range t.Slots {
		if s.ID == id && id != "" {
			return i
		}
	}
	return len(t.Slots)
}

// Slot returns the slot with the given ID.
func (t Template) Slot(id string) (Slot, bool) {
	if i := t.SlotIndex(id); i < len(t.Slots) {
		return t.Slots[i], true
	}
	return Slot{}, false
}

// Assignment records where an instance belongs and where it currently is.
// Home only changes on structural input change; Actual follows the last
// committed plan.
type Assignment struct {
	Home   RegionKey `json:"home" bson:"home"`
	Actual RegionKey `json:"actual" bson:"actual"`
}
