package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

// inlineColumn is one column of the inline table.
type inlineColumn struct {
	title string
	width int
}

var inlineColumns = []inlineColumn{
	{"System", 10},
	{"Uptime", 9},
	{"CPU", 7},
	{"Mem", 7},
	{"STG", 7},
	{"Up", 10},
	{"Down", 10},
	{"Sent", 10},
	{"Recv", 10},
	{"Billing", 12},
}

const inlineNameWidth = 24

// renderInline renders one row per server under a column header. Offline
// rows carry identity and billing only. Transfer columns are always
// shown here.
func (m Model) renderInline() string {
	lines := []string{m.inlineHeader()}
	for i, s := range m.servers {
		row := m.inlineRow(s)
		if i == m.selected {
			row = InlineSelectedStyle.Render(renderCardLine(row, m.inlineWidth()))
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m Model) inlineWidth() int {
	w := inlineNameWidth
	for _, c := range inlineColumns {
		w += c.width + 1
	}
	return w
}

func (m Model) inlineHeader() string {
	var b strings.Builder
	b.WriteString(padCell(MutedStyle.Render("Server"), inlineNameWidth))
	for _, c := range inlineColumns {
		b.WriteString(" ")
		b.WriteString(padCell(MutedStyle.Render(c.title), c.width))
	}
	return b.String()
}

func (m Model) inlineRow(s Server) string {
	var b strings.Builder
	b.WriteString(padCell(nameLine(s, m.opts, m.spinnerFrame, inlineNameWidth), inlineNameWidth))

	d := s.Metrics
	cells := make([]string, len(inlineColumns))
	cells[9] = inlineBilling(s)

	switch {
	case s.Status == StatusConnecting:
		cells[0] = LabelStyle.Render("connecting")
	case !s.Status.Live():
		cells[0] = ExpiredStyle.Render("offline")
	default:
		cells[0] = ValueStyle.Render(nezha.OSName(d.Platform))
		cells[1] = LabelStyle.Render(d.UptimeLabel())
		cells[2] = percentCell(d.CPU)
		cells[3] = percentCell(d.Mem)
		cells[4] = percentCell(d.Storage)
		cells[5] = ValueStyle.Render(d.UpRate())
		cells[6] = ValueStyle.Render(d.DownRate())
		cells[7] = LabelStyle.Render(d.OutTransferLabel())
		cells[8] = LabelStyle.Render(d.InTransferLabel())
	}

	for i, c := range inlineColumns {
		b.WriteString(" ")
		b.WriteString(padCell(cells[i], c.width))
	}
	return b.String()
}

func percentCell(p float64) string {
	return MetricStyle(p).Render(fmt.Sprintf("%.2f%%", p))
}

// inlineBilling is the short billing column: "12d", "forever", "-3d".
func inlineBilling(s Server) string {
	if s.Note.Billing == nil {
		return ""
	}
	st := s.Billing
	switch {
	case st.NeverExpires:
		return LabelStyle.Render("forever")
	case st.Expired:
		return ExpiredStyle.Render(fmt.Sprintf("expired %dd", -st.DaysLeft))
	case st.Known:
		return LabelStyle.Render(fmt.Sprintf("%dd left", st.DaysLeft))
	}
	return ""
}

// padCell pads or truncates styled content to exactly width cells.
func padCell(content string, width int) string {
	w := lipgloss.Width(content)
	if w > width {
		return lipgloss.NewStyle().MaxWidth(width).Render(content)
	}
	return content + strings.Repeat(" ", width-w)
}
