package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

const (
	detailGraphHeight = 3
	detailMinWidth    = 40
)

var (
	detailSectionStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(0, 1).
				MarginBottom(1)

	detailTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)

// updateDetailViewportContent re-renders the selected server into the viewport.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent())
}

// renderDetailContent renders the expanded view of the selected server.
func (m Model) renderDetailContent() string {
	s, ok := m.selectedServer()
	if !ok {
		return LabelStyle.Render("No server selected")
	}

	width := m.width - 4
	if width < detailMinWidth {
		width = detailMinWidth
	}

	sections := []string{m.renderDetailHeader(s)}
	if b := m.renderDetailBilling(s, width); b != "" {
		sections = append(sections, b)
	}
	sections = append(sections, m.renderDetailSystem(s, width))

	if s.Status.Live() {
		sections = append(sections,
			m.renderDetailUsage(s, width),
			m.renderDetailNetwork(s, width),
		)
	}
	sections = append(sections, FooterStyle.Render("Esc back | ↑↓ scroll | r refresh | q quit"))
	return strings.Join(sections, "\n")
}

func (m Model) renderDetailHeader(s Server) string {
	status := StatusStyle(s.Status).Render(StatusGlyph(s.Status, m.spinnerFrame) + " " + s.Status.String())
	name := detailTitleStyle.Render(s.Metrics.Name)
	if m.opts.ShowFlag {
		if flag := nezha.FlagEmoji(s.Metrics.CountryCode); flag != "" {
			name = flag + " " + name
		}
	}
	line := name + "  " + status
	if s.Source != "" {
		line += MutedStyle.Render("  via " + s.Source)
	}
	if s.Status == StatusOffline {
		line += "  " + ExpiredStyle.Render(lastSeen(s.Metrics, m.now))
	}
	return line + "\n"
}

// renderDetailBilling shows the billing schedule and every plan label.
func (m Model) renderDetailBilling(s Server, width int) string {
	if s.Note.Empty() {
		return ""
	}

	lines := []string{detailTitleStyle.Render("Billing & Plan")}
	if b := s.Note.Billing; b != nil {
		lines = append(lines, billingLines(s)...)
		lines = appendField(lines, "Start", b.StartDate)
		lines = appendField(lines, "End", b.EndDate)
		lines = appendField(lines, "Cycle", b.Cycle)
		lines = appendField(lines, "Auto renew", b.AutoRenewal)
	}
	if p := s.Note.Plan; p != nil {
		if labels := p.Labels(); len(labels) > 0 {
			lines = append(lines, LabelStyle.Render("Plan:       ")+ValueStyle.Render(strings.Join(labels, " · ")))
		}
		lines = appendField(lines, "IPv4", p.IPv4)
		lines = appendField(lines, "IPv6", p.IPv6)
	}
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func appendField(lines []string, label, value string) []string {
	if strings.TrimSpace(value) == "" {
		return lines
	}
	return append(lines, LabelStyle.Render(fmt.Sprintf("%-12s", label+":"))+ValueStyle.Render(value))
}

// renderDetailSystem shows platform, uptime, load and connection counts.
func (m Model) renderDetailSystem(s Server, width int) string {
	d := s.Metrics
	lines := []string{detailTitleStyle.Render("System")}

	osLine := nezha.OSName(d.Platform)
	if d.PlatformVersion != "" {
		osLine += " " + d.PlatformVersion
	}
	lines = appendField(lines, "OS", strings.TrimSpace(osLine))
	lines = appendField(lines, "Arch", d.Arch)
	lines = appendField(lines, "Agent", d.Version)

	if s.Status.Live() {
		lines = appendField(lines, "Uptime", d.UptimeLabel())
		lines = appendField(lines, "Load", fmt.Sprintf("%.2f / %.2f / %.2f", d.Load1, d.Load5, d.Load15))
		lines = appendField(lines, "Conns", fmt.Sprintf("TCP %d · UDP %d", d.TCP, d.UDP))
		lines = appendField(lines, "Processes", fmt.Sprintf("%d", d.Processes))
	}
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// renderDetailUsage shows bars and braille history for CPU and memory.
func (m Model) renderDetailUsage(s Server, width int) string {
	d := s.Metrics
	barWidth := width - 24
	if barWidth < 10 {
		barWidth = 10
	}
	graphWidth := width - 6

	usage := func(label string, pct float64, extra string) string {
		line := LabelStyle.Render(fmt.Sprintf("%-6s", label)) + ProgressBar(barWidth, pct) + " " +
			MetricStyle(pct).Render(fmt.Sprintf("%6.2f%%", pct))
		if extra != "" {
			line += "\n" + MutedStyle.Render("      "+extra)
		}
		return line
	}

	lines := []string{
		detailTitleStyle.Render("Usage"),
		usage("CPU", d.CPU, ""),
	}
	if g := RenderBrailleSparkline(m.history.Get(s.Key, MetricCPU, graphWidth*2), graphWidth, detailGraphHeight, ScalePercent, ColorGraph); g != "" {
		lines = append(lines, g)
	}

	lines = append(lines, usage("Mem", d.Mem, "of "+nezha.FormatBytes(d.MemTotal)))
	if g := RenderBrailleSparkline(m.history.Get(s.Key, MetricMem, graphWidth*2), graphWidth, detailGraphHeight, ScalePercent, ColorGraph); g != "" {
		lines = append(lines, g)
	}

	lines = append(lines,
		usage("Swap", d.Swap, ""),
		usage("Disk", d.Storage, "of "+nezha.FormatBytes(d.DiskTotal)),
	)
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// renderDetailNetwork shows live rates with history and cumulative traffic.
func (m Model) renderDetailNetwork(s Server, width int) string {
	d := s.Metrics
	graphWidth := width - 6

	up := lipgloss.NewStyle().Foreground(ColorWarning).Render("↑")
	down := lipgloss.NewStyle().Foreground(ColorHealthy).Render("↓")

	lines := []string{
		detailTitleStyle.Render("Network"),
		fmt.Sprintf("%s %s  %s %s", up, ValueStyle.Render(d.UpRate()), down, ValueStyle.Render(d.DownRate())),
	}
	if g := RenderBrailleSparkline(m.history.Get(s.Key, MetricDown, graphWidth*2), graphWidth, 2, ScaleAuto, ColorHealthy); g != "" {
		lines = append(lines, MutedStyle.Render("download"), g)
	}
	if g := RenderBrailleSparkline(m.history.Get(s.Key, MetricUp, graphWidth*2), graphWidth, 2, ScaleAuto, ColorWarning); g != "" {
		lines = append(lines, MutedStyle.Render("upload"), g)
	}
	lines = appendField(lines, "Sent", d.OutTransferLabel())
	lines = appendField(lines, "Received", d.InTransferLabel())
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}
