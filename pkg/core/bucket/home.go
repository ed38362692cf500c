package bucket

import (
	"math"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// ResolveHome returns the home region of inst against tmpl. columns and
// pageWidth describe the column grid; a non-positive pageWidth disables
// position-based resolution.
func ResolveHome(inst layout.Instance, tmpl layout.Template, columns int, pageWidth float64) layout.RegionKey {
	columns = max(columns, 1)
	slot, hasSlot := tmpl.Slot(inst.Layout.SlotID)

	page := 1
	if hasSlot && slot.Page > 0 {
		page = slot.Page
	}

	pos := inst.Layout.Position
	if pos == nil && hasSlot && slot.Position != (layout.Rect{}) {
		pos = &slot.Position
	}

	column := 0
	if pos != nil && pageWidth > 0 {
		column = columnAt(pos.MidX(), pageWidth, columns)
	}

	if inst.Layout.Page > 0 {
		page = inst.Layout.Page
	}
	if inst.Layout.Column > 0 {
		column = inst.Layout.Column
	}
	if column < 1 {
		column = 1
	}
	return layout.Region(page, min(column, columns))
}

// columnAt maps a horizontal coordinate to a 1-based column index.
func columnAt(x, pageWidth float64, columns int) int {
	width := pageWidth / float64(columns)
	c := int(math.Floor(x/width)) + 1
	return max(1, min(c, columns))
}
