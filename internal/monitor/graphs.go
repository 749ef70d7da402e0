package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille cells hold a 2x4 dot matrix; U+2800 is the empty cell and each of
// the eight bits lights one dot.
const brailleBase = '\u2800'

// brailleDots maps [row][col] inside a cell to its bit, rows top to bottom.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Scale decides the vertical range of a graph.
type Scale int

const (
	// ScalePercent plots against a fixed 0-100 range.
	ScalePercent Scale = iota
	// ScaleAuto plots against 0..max(data), for throughput.
	ScaleAuto
)

// bounds returns the plotting range for data.
func (s Scale) bounds(data []float64) (lo, hi float64) {
	if s == ScalePercent {
		return 0, 100
	}
	for _, v := range data {
		if v > hi {
			hi = v
		}
	}
	return 0, hi
}

func normalizeValue(val, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	n := (val - lo) / (hi - lo)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// RenderBrailleSparkline plots data as a width x height braille graph,
// right aligned so a short history grows in from the right. Percentage
// columns are colored by threshold; ScaleAuto columns use color.
func RenderBrailleSparkline(data []float64, width, height int, scale Scale, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	lo, hi := scale.bounds(data)
	totalDots := height * 4
	points := width * 2

	samples := data
	if len(samples) > points {
		samples = resampleData(samples, points)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}
	colMax := make([]float64, width)
	offset := points - len(samples)

	for i, val := range samples {
		col := (i + offset) / 2
		sub := (i + offset) % 2
		if val > colMax[col] {
			colMax[col] = val
		}

		dots := clampInt(int(normalizeValue(val, lo, hi)*float64(totalDots)+0.5), totalDots)
		for d := 0; d < dots; d++ {
			row := height - 1 - d/4
			grid[row][col] |= rune(1) << brailleDots[3-d%4][sub]
		}
	}

	lines := make([]string, 0, height)
	for _, row := range grid {
		var b strings.Builder
		for col, r := range row {
			c := color
			if scale == ScalePercent {
				c = MetricColor(colMax[col])
			}
			b.WriteString(lipgloss.NewStyle().Foreground(c).Render(string(r)))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// RenderMiniSparkline renders one row of block characters, one per cell.
func RenderMiniSparkline(data []float64, width int, scale Scale) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	lo, hi := scale.bounds(data)
	top := len(sparklineBlocks) - 1

	var b strings.Builder
	for _, val := range resampleData(data, width) {
		idx := clampInt(int(normalizeValue(val, lo, hi)*float64(top)+0.5), top)
		b.WriteRune(sparklineBlocks[idx])
	}
	return b.String()
}

// resampleData stretches or squeezes data to n points. Squeezing keeps the
// bucket maximum so spikes survive; stretching interpolates linearly.
func resampleData(data []float64, n int) []float64 {
	if len(data) == 0 || n <= 0 {
		return nil
	}
	if len(data) == n {
		return data
	}

	out := make([]float64, n)
	if len(data) == 1 {
		for i := range out {
			out[i] = data[0]
		}
		return out
	}

	if len(data) > n {
		bucket := float64(len(data)) / float64(n)
		for i := range out {
			start := int(float64(i) * bucket)
			end := int(float64(i+1) * bucket)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			peak := data[start]
			for _, v := range data[start+1 : end] {
				if v > peak {
					peak = v
				}
			}
			out[i] = peak
		}
		return out
	}

	step := float64(len(data)-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(data)-1 {
			out[i] = data[len(data)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = data[idx]*(1-frac) + data[idx+1]*frac
	}
	return out
}
