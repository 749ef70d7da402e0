package monitor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// defaultCardWidth is used before the first window size arrives.
const defaultCardWidth = 42

// renderDashboard renders the list or detail screen, with help on top.
func (m Model) renderDashboard() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.viewMode == ViewDetail {
		if m.viewportReady {
			b.WriteString(m.detailViewport.View())
		} else {
			b.WriteString(m.renderDetailContent())
		}
	} else {
		b.WriteString(m.renderServers())
	}

	if m.height == 0 || m.height >= HeightMinimal {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}
	return b.String()
}

// renderHeader renders the title and fleet summary.
func (m Model) renderHeader() string {
	var updateText string
	switch secs := m.SecondsSinceUpdate(); {
	case !m.received:
		updateText = "waiting for data"
	case secs <= 0:
		updateText = "just now"
	default:
		updateText = fmt.Sprintf("%ds ago", secs)
	}

	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(m.title)
	stats := LabelStyle.Render(fmt.Sprintf(" | %d servers | %d online | sort %s | %s",
		len(m.servers), m.OnlineCount(), m.opts.Sort, updateText))

	return HeaderStyle.Render(title + stats)
}

// renderServers renders every server in the active layout.
func (m Model) renderServers() string {
	if len(m.servers) == 0 {
		if !m.received {
			frame := ConnectingSpinnerFrames[m.spinnerFrame%len(ConnectingSpinnerFrames)]
			return LabelStyle.Render(frame + " Connecting to dashboard...")
		}
		return LabelStyle.Render("No servers reported")
	}

	if m.opts.Layout == LayoutInline {
		return m.renderInline()
	}

	width := m.calculateCardWidth()
	cards := make([]string, 0, len(m.servers))
	for i, s := range m.servers {
		cards = append(cards, m.renderCard(s, width, i == m.selected))
	}
	return m.layoutCards(cards, width)
}

// calculateCardWidth fits two or three cards a row on wide terminals.
func (m Model) calculateCardWidth() int {
	switch {
	case m.width == 0:
		return defaultCardWidth
	case m.width >= BreakpointWide:
		return (m.width / 3) - 3
	case m.width >= BreakpointCompact:
		return (m.width / 2) - 3
	default:
		return m.width - 3
	}
}

// layoutCards arranges cards in rows that fit the terminal.
func (m Model) layoutCards(cards []string, cardWidth int) string {
	perRow := 1
	if m.width > 0 {
		perRow = m.width / (cardWidth + 3)
		if perRow < 1 {
			perRow = 1
		}
	}

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderFooter renders source errors and the key hints.
func (m Model) renderFooter() string {
	var lines []string

	sources := make([]string, 0, len(m.errors))
	for src := range m.errors {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		msg := firstLine(m.errors[src])
		lines = append(lines, ExpiredStyle.Render(fmt.Sprintf("✗ %s: %s", src, msg)))
	}

	hints := []string{"q quit", "r refresh", "s sort", "l layout", "t traffic", "↑↓ select", "enter details", "? help"}
	lines = append(lines, FooterStyle.Render(strings.Join(hints, " | ")))
	return strings.Join(lines, "\n")
}

// firstLine returns the first non-empty line of a structured error,
// dropping its leading marker.
func firstLine(msg string) string {
	for _, l := range strings.Split(msg, "\n") {
		l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "✗"))
		if l != "" {
			return l
		}
	}
	return msg
}
