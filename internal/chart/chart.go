// Package chart renders terminal sparklines for telemetry signals, with
// color grading against per-signal warning thresholds, minute tick
// marks, and timeline labels.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kim-el/kimtemp/internal/history"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Thresholds grade a signal for display. Either level may be absent,
// a temperature has both while a wattage usually has just High.
type Thresholds struct {
	High    float64
	Crit    float64
	HasHigh bool
	HasCrit bool
}

// Color returns the display color for a value under the thresholds.
func (th Thresholds) Color(v float64) lipgloss.Color {
	switch {
	case th.HasCrit && v >= th.Crit:
		return lipgloss.Color("196") // red
	case th.HasHigh && v >= th.High:
		return lipgloss.Color("208") // orange
	case th.HasHigh && v >= th.High*0.85:
		return lipgloss.Color("220") // yellow
	default:
		return lipgloss.Color("78") // soft green
	}
}

// Sparkline renders bare values without timestamps.
func Sparkline(values []float64, width int, rangeMin, rangeMax float64, th Thresholds) string {
	if width <= 0 {
		return ""
	}
	pts := make([]history.Sample, len(values))
	for i, v := range values {
		pts[i] = history.Sample{Value: v}
	}
	return SparklineSamples(pts, width, rangeMin, rangeMax, th)
}

// SparklineSamples renders a sparkline with a subtle pipe at each
// minute boundary of the sample timeline.
func SparklineSamples(samples []history.Sample, width int, rangeMin, rangeMax float64, th Thresholds) string {
	if width <= 0 {
		return ""
	}

	if len(samples) == 0 {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
		return dim.Render(strings.Repeat("╌", width))
	}

	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	padLen := width - len(samples)
	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	for i := 0; i < padLen; i++ {
		sb.WriteString(dim.Render("╌"))
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i, p := range samples {
		norm := (p.Value - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))

		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}

		if minuteTick(samples, i) {
			sb.WriteString(tickStyle.Render("│"))
			continue
		}

		style := lipgloss.NewStyle().Foreground(th.Color(p.Value))
		if th.HasCrit && p.Value >= th.Crit {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

func minuteTick(samples []history.Sample, i int) bool {
	p := samples[i]
	if p.Time.IsZero() {
		return false
	}
	if p.Time.Second() == 0 {
		return true
	}
	if i > 0 && !samples[i-1].Time.IsZero() {
		return p.Time.Minute() != samples[i-1].Time.Minute()
	}
	return false
}

// Timeline renders HH:MM labels under the sparkline at each minute
// tick position.
func Timeline(samples []history.Sample, width int) string {
	if len(samples) == 0 || width <= 0 {
		return ""
	}

	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	padLen := width - len(samples)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	type tick struct {
		pos   int
		label string
	}
	var ticks []tick

	for i, p := range samples {
		if minuteTick(samples, i) {
			ticks = append(ticks, tick{pos: padLen + i, label: p.Time.Format("15:04")})
		}
	}

	lastEnd := -1
	for _, t := range ticks {
		start := t.pos - 2
		if start < 0 {
			start = 0
		}
		end := start + len(t.label)
		if end > width {
			continue
		}
		if start <= lastEnd+1 {
			continue
		}
		for j, ch := range t.label {
			line[start+j] = ch
		}
		lastEnd = end
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render(string(line))
}

// Value renders a measurement with its unit, color graded.
func Value(v float64, unit string, th Thresholds) string {
	s := fmt.Sprintf("%5.1f%s", v, unit)
	style := lipgloss.NewStyle().Foreground(th.Color(v))
	if th.HasCrit && v >= th.Crit {
		style = style.Bold(true)
	}
	return style.Render(s)
}
