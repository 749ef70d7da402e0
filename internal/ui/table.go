package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a non-focused Bubbles table styled for CLI output.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Nothing is focused, so the selected row must look like the others.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}

// FleetRow is one server line in `fleetdash list`.
type FleetRow struct {
	Status  string // "online", "offline" or "expired"
	Name    string
	Source  string
	OS      string
	CPU     float64
	Mem     float64
	Disk    float64
	Up      string
	Down    string
	Uptime  string
	Billing string
}

var fleetColumns = []TableColumn{
	{"", 2},
	{"SERVER", 22},
	{"SOURCE", 10},
	{"OS", 10},
	{"CPU", 8},
	{"MEM", 8},
	{"DISK", 8},
	{"UP", 10},
	{"DOWN", 10},
	{"UPTIME", 10},
	{"BILLING", 14},
}

// RenderFleetTable renders servers as a colored, fixed-width table.
// Usage columns are colored by threshold; silent servers only show
// identity and billing.
func RenderFleetTable(rows []FleetRow) string {
	if len(rows) == 0 {
		return "No servers reported"
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var header strings.Builder
	for _, c := range fleetColumns {
		header.WriteString(padRight(c.Title, c.Width))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.TrimRight(header.String(), " ")))
	b.WriteString("\n")

	for _, row := range rows {
		cells := []string{statusIcon(row.Status), row.Name, row.Source, row.OS}
		if row.Status == "offline" {
			cells = append(cells, "", "", "", "", "", MutedStyle().Render("offline"))
		} else {
			cells = append(cells,
				percentCell(row.CPU), percentCell(row.Mem), percentCell(row.Disk),
				row.Up, row.Down, row.Uptime)
		}
		cells = append(cells, billingCell(row))

		var line strings.Builder
		for i, c := range fleetColumns {
			line.WriteString(padRight(truncate(cells[i], c.Width-1), c.Width))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}
	return b.String()
}

func statusIcon(status string) string {
	switch status {
	case "online":
		return SuccessStyle().Render(SymbolOnline)
	case "expired":
		return WarningStyle().Render(SymbolExpired)
	default:
		return ErrorStyle().Render(SymbolOffline)
	}
}

func percentCell(p float64) string {
	return lipgloss.NewStyle().Foreground(ThresholdColor(p)).Render(fmt.Sprintf("%.1f%%", p))
}

func billingCell(row FleetRow) string {
	if row.Status == "expired" {
		return ErrorStyle().Render(row.Billing)
	}
	return row.Billing
}

// truncate cuts plain text to width cells. Styled text is left alone.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width || strings.Contains(s, "\x1b") {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
