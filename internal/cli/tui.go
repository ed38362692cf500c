package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PlanModel - Interactive plan browser
// =============================================================================

// PlanModel is the bubbletea model for browsing a plan page by page.
type PlanModel struct {
	Plan   layout.Plan
	Page   int // index into Plan.Pages
	Cursor int // index into the current page's rows
	Height int
	Offset int
}

// NewPlanModel creates a plan browser positioned on the first page.
func NewPlanModel(plan layout.Plan) PlanModel {
	return PlanModel{Plan: plan, Height: 15}
}

func (m PlanModel) Init() tea.Cmd {
	return nil
}

func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "right", "l", "n":
			if m.Page < len(m.Plan.Pages)-1 {
				m.Page++
				m.Cursor, m.Offset = 0, 0
			}
		case "left", "h", "p":
			if m.Page > 0 {
				m.Page--
				m.Cursor, m.Offset = 0, 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// planRow is one entry of the current page with its column index.
type planRow struct {
	column int
	entry  layout.Entry
}

func (m PlanModel) rows() []planRow {
	if m.Page >= len(m.Plan.Pages) {
		return nil
	}
	var rows []planRow
	for _, col := range m.Plan.Pages[m.Page].Columns {
		for _, e := range col.Entries {
			rows = append(rows, planRow{column: col.Index, entry: e})
		}
	}
	return rows
}

func (m PlanModel) View() string {
	var b strings.Builder

	if len(m.Plan.Pages) == 0 {
		b.WriteString(StyleTitle.Render("Empty plan"))
		b.WriteString("\n")
		return b.String()
	}

	page := m.Plan.Pages[m.Page]
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Page %d/%d", page.Number, len(m.Plan.Pages))))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(usageLine(m.Plan, page)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ entries  ←/→ pages  q quit"))
	b.WriteString("\n\n")

	rows := m.rows()
	end := min(m.Offset+m.Height, len(rows))

	cells := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		cells = append(cells, []string{
			cursor,
			strconv.Itoa(r.column),
			r.entry.Key.String(),
			fmt.Sprintf("%.1f", r.entry.Height),
			entryFlags(r.entry),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Col", "Key", "Height", "Flags").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(rows) {
				return lipgloss.NewStyle()
			}
			if idx == m.Cursor {
				return listSelectedStyle
			}
			if rows[idx].entry.Estimated {
				return lipgloss.NewStyle().Foreground(colorYellow)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(rows) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(rows))))
		r := rows[m.Cursor]
		b.WriteString("  ")
		b.WriteString(listDimStyle.Render("home " + r.entry.Home.String() + " " + iconArrow + " " + r.entry.Region.String()))
	}

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// entryFlags summarizes the boolean state of an entry.
func entryFlags(e layout.Entry) string {
	var flags []string
	if e.Estimated {
		flags = append(flags, "est")
	}
	if e.IsMetadata {
		flags = append(flags, "meta")
	}
	if e.IsContinuation {
		flags = append(flags, "cont")
	}
	if e.ContinuesOnNext {
		flags = append(flags, "more")
	}
	if e.AvoidSplit {
		flags = append(flags, "keep")
	}
	return strings.Join(flags, " ")
}

// usageLine reports the used height of each column of page.
func usageLine(plan layout.Plan, page layout.Page) string {
	var parts []string
	for _, u := range plan.Regions {
		if u.Region.Page != page.Number {
			continue
		}
		parts = append(parts, fmt.Sprintf("c%d %.0f/%.0f", u.Region.Column, u.Used, u.Used+u.Available))
	}
	return strings.Join(parts, "  ")
}
