package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderInfo contains information to display in the header.
type HeaderInfo struct {
	Title   string // Defaults to "fleetdash"
	Version string
	Tagline string
	Target  string // Dashboard URL or config path
}

// HeaderWidth is the default width of the header divider
const HeaderWidth = 50

// RenderHeader renders the title block printed above interactive commands.
func RenderHeader(info HeaderInfo) string {
	title := info.Title
	if title == "" {
		title = "fleetdash"
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Render(title))
	if info.Version != "" {
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(ColorSecondary).Render(info.Version))
	}
	b.WriteString("\n")

	if info.Tagline != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorPrimary).Render(info.Tagline))
		b.WriteString("\n")
	}
	if info.Target != "" {
		b.WriteString(MutedStyle().Render(info.Target))
		b.WriteString("\n")
	}

	b.WriteString(MutedStyle().Render(strings.Repeat("━", HeaderWidth)))
	b.WriteString("\n")
	return b.String()
}
