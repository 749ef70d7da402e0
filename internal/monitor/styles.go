package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dashboard palette.
const (
	ColorDarkBg    = lipgloss.Color("#0B0E14")
	ColorSurfaceBg = lipgloss.Color("#131722")
	ColorBorder    = lipgloss.Color("#2B3245")

	ColorHealthy  = lipgloss.Color("#22C55E") // green-500, the online dot
	ColorWarning  = lipgloss.Color("#F59E0B")
	ColorCritical = lipgloss.Color("#EF4444") // red-500, the offline dot

	ColorTextPrimary   = lipgloss.Color("#F8FAFC")
	ColorTextSecondary = lipgloss.Color("#A1A8BA")
	ColorTextMuted     = lipgloss.Color("#5D6479")

	ColorAccent = lipgloss.Color("#60A5FA")
	ColorGraph  = lipgloss.Color("#38BDF8")

	// Billing and plan badges.
	ColorFree      = lipgloss.Color("#16A34A")
	ColorMetered   = lipgloss.Color("#DB2777")
	ColorBandwidth = lipgloss.Color("#2563EB")
	ColorTraffic   = lipgloss.Color("#15803D")
)

// Usage thresholds for bar and value coloring.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1).
			MarginBottom(1)

	CardSelectedStyle = CardStyle.
				BorderForeground(ColorAccent)

	ServerNameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ExpiredStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	FreeStyle = lipgloss.NewStyle().
			Foreground(ColorFree)

	MeteredStyle = lipgloss.NewStyle().
			Foreground(ColorMetered)

	InlineSelectedStyle = lipgloss.NewStyle().
				Background(ColorSurfaceBg)
)

// Status glyphs.
const (
	GlyphOnline  = "●"
	GlyphOffline = "●"
	GlyphExpired = "◉"
)

// ConnectingSpinnerFrames animate servers named by a filter that no frame
// has mentioned yet.
var ConnectingSpinnerFrames = []string{"◐", "◓", "◑", "◒"}

// StatusStyle returns the dot color for a status.
func StatusStyle(s ServerStatus) lipgloss.Style {
	switch s {
	case StatusOnline:
		return lipgloss.NewStyle().Foreground(ColorHealthy)
	case StatusExpired:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case StatusOffline:
		return lipgloss.NewStyle().Foreground(ColorCritical)
	default:
		return lipgloss.NewStyle().Foreground(ColorTextSecondary)
	}
}

// StatusGlyph returns the dot for a status; connecting servers spin.
func StatusGlyph(s ServerStatus, frame int) string {
	switch s {
	case StatusOnline:
		return GlyphOnline
	case StatusExpired:
		return GlyphExpired
	case StatusOffline:
		return GlyphOffline
	default:
		return ConnectingSpinnerFrames[frame%len(ConnectingSpinnerFrames)]
	}
}

// MetricColor picks green, amber or red for a percentage.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style with the metric's threshold color.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// ProgressBar renders a usage bar of width cells.
func ProgressBar(width int, percent float64) string {
	if width < 1 {
		width = 1
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return MetricStyle(percent).Render(bar)
}

// Badge renders a small colored tag, used for plan labels.
func Badge(text string, bg lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(ColorTextPrimary).
		Background(bg).
		Padding(0, 1).
		Render(text)
}

// SectionHeader renders "╭─ Title ───── Value ╮" across width cells.
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fill := width - leftWidth - rightWidth
	if fill < 1 {
		fill = 1
	}

	border := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return border.Render("╭─ ") +
		titleStyle.Render(title) +
		border.Render(" "+strings.Repeat("─", fill)+" ") +
		valueStyle.Render(value) +
		border.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine pads content between side borders.
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}
	border := lipgloss.NewStyle().Foreground(ColorBorder)

	padding := width - 4 - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}
	return border.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + border.Render("│")
}
