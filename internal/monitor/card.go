package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

const (
	cardBarWidth       = 10
	cardSparklineWidth = 12
)

var cardDividerStyle = lipgloss.NewStyle().Foreground(ColorBorder)

func renderCardDivider(width int) string {
	return cardDividerStyle.Render(strings.Repeat("─", width))
}

// renderCardLine pads content to width so card rows line up.
func renderCardLine(content string, width int) string {
	if pad := width - lipgloss.Width(content); pad > 0 {
		return content + strings.Repeat(" ", pad)
	}
	return content
}

// truncateWithEllipsis shortens s to maxLen cells.
func truncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 3 || lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+3 > maxLen {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// nameLine renders the status dot, optional flag and name.
func nameLine(s Server, opts DisplayOptions, frame int, maxWidth int) string {
	parts := []string{StatusStyle(s.Status).Render(StatusGlyph(s.Status, frame))}
	if opts.ShowFlag {
		if flag := nezha.FlagEmoji(s.Metrics.CountryCode); flag != "" {
			parts = append(parts, flag)
		}
	}
	used := lipgloss.Width(strings.Join(parts, " ")) + 1
	parts = append(parts, ServerNameStyle.Render(truncateWithEllipsis(s.Metrics.Name, maxWidth-used)))
	return strings.Join(parts, " ")
}

// billingLines renders the remaining time and price badge for a server.
// Expired and active servers get the same amount badge.
func billingLines(s Server) []string {
	if s.Note.Billing == nil {
		return nil
	}

	var lines []string
	switch st := s.Billing; {
	case st.NeverExpires:
		lines = append(lines, LabelStyle.Render("Remaining: forever"))
	case st.Expired:
		lines = append(lines, ExpiredStyle.Render(fmt.Sprintf("Expired: %d days", -st.DaysLeft)))
	case st.Known:
		lines = append(lines, LabelStyle.Render(fmt.Sprintf("Remaining: %d days", st.DaysLeft)))
	}

	if badge := amountBadge(*s.Note.Billing); badge != "" {
		lines = append(lines, badge)
	}
	return lines
}

func amountBadge(b nezha.BillingInfo) string {
	label := b.AmountLabel()
	switch b.AmountState() {
	case nezha.AmountPrice:
		return LabelStyle.Render("Price: " + label)
	case nezha.AmountFree:
		return FreeStyle.Render(label)
	case nezha.AmountMetered:
		return MeteredStyle.Render(label)
	default:
		return ""
	}
}

// planBadges renders the bandwidth and traffic badges shown on cards.
func planBadges(p *nezha.PlanInfo) string {
	if p == nil {
		return ""
	}
	var badges []string
	if strings.TrimSpace(p.Bandwidth) != "" {
		badges = append(badges, Badge(p.Bandwidth, ColorBandwidth))
	}
	if strings.TrimSpace(p.TrafficVol) != "" {
		badges = append(badges, Badge(p.TrafficVol, ColorTraffic))
	}
	return strings.Join(badges, " ")
}

// usageLine renders "CPU  ▰▰▰▱▱  12.50%".
func usageLine(label string, percent float64) string {
	return LabelStyle.Render(fmt.Sprintf("%-4s", label)) + " " +
		ProgressBar(cardBarWidth, percent) + " " +
		MetricStyle(percent).Render(fmt.Sprintf("%6.2f%%", percent))
}

// transferLine renders the cumulative traffic badges.
func transferLine(m nezha.DisplayMetrics) string {
	return LabelStyle.Render("↑ ") + ValueStyle.Render(m.OutTransferLabel()) +
		LabelStyle.Render("  ↓ ") + ValueStyle.Render(m.InTransferLabel())
}

// lastSeen describes how long ago an offline server reported.
func lastSeen(m nezha.DisplayMetrics, now time.Time) string {
	if m.LastActive.IsZero() || now.IsZero() {
		return "Offline"
	}
	ago := now.Sub(m.LastActive)
	if ago < 0 {
		ago = 0
	}
	switch {
	case ago < time.Minute:
		return fmt.Sprintf("Offline · seen %ds ago", int(ago.Seconds()))
	case ago < time.Hour:
		return fmt.Sprintf("Offline · seen %dm ago", int(ago.Minutes()))
	case ago < 48*time.Hour:
		return fmt.Sprintf("Offline · seen %dh ago", int(ago.Hours()))
	default:
		return fmt.Sprintf("Offline · seen %dd ago", int(ago.Hours()/24))
	}
}

// renderCard renders one server card. Offline servers show identity,
// billing and plan only.
func (m Model) renderCard(s Server, width int, selected bool) string {
	style := CardStyle.Width(width)
	if selected {
		style = CardSelectedStyle.Width(width)
	}
	inner := width - 4

	var lines []string
	lines = append(lines, renderCardLine(nameLine(s, m.opts, m.spinnerFrame, inner), inner))
	for _, l := range billingLines(s) {
		lines = append(lines, renderCardLine(l, inner))
	}
	if badges := planBadges(s.Note.Plan); badges != "" {
		lines = append(lines, renderCardLine(badges, inner))
	}
	lines = append(lines, renderCardDivider(inner))

	switch {
	case s.Status == StatusConnecting:
		lines = append(lines, renderCardLine(LabelStyle.Render("Connecting..."), inner))

	case !s.Status.Live():
		lines = append(lines, renderCardLine(ExpiredStyle.Render(lastSeen(s.Metrics, m.now)), inner))

	default:
		d := s.Metrics
		lines = append(lines,
			renderCardLine(usageLine("CPU", d.CPU)+" "+m.cardSparkline(s.Key, MetricCPU), inner),
			renderCardLine(usageLine("Mem", d.Mem), inner),
			renderCardLine(usageLine("STG", d.Storage), inner),
			renderCardLine(
				LabelStyle.Render("Up ")+ValueStyle.Render(d.UpRate())+
					LabelStyle.Render("  Down ")+ValueStyle.Render(d.DownRate()),
				inner),
		)
		if m.opts.ShowNetTransfer {
			lines = append(lines, renderCardLine(transferLine(d), inner))
		}
	}

	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) cardSparkline(key string, metric Metric) string {
	data := m.history.Get(key, metric, cardSparklineWidth)
	if len(data) < 2 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ColorGraph).Render(RenderMiniSparkline(data, len(data), ScalePercent))
}
