// Package viewer implements the recorded-telemetry browser TUI with
// time scrubbing, day navigation, and sparkline windows over the JSONL
// logs written by the live monitor.
package viewer

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kim-el/kimtemp/internal/chart"
	"github.com/kim-el/kimtemp/internal/history"
	"github.com/kim-el/kimtemp/internal/sampler"
	"github.com/kim-el/kimtemp/internal/store"
)

// Run launches the replay browser.
func Run() error {
	days, err := store.ListDays("")
	if err != nil || len(days) == 0 {
		return fmt.Errorf("no recorded telemetry in %s", store.DataDir())
	}

	p := tea.NewProgram(
		initModel(days),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return nil
}

// ── Signals ──────────────────────────────────────────────────────────

// signalDef names one plotted series and how to pull it from a record.
type signalDef struct {
	name  string
	label string
	unit  string
	th    chart.Thresholds
	get   func(sampler.Record) (float64, bool)
}

func opt(m sampler.OptMetric) (float64, bool) { return m.Value, m.Valid }

var (
	tempThresholds  = chart.Thresholds{High: 75, Crit: 95, HasHigh: true, HasCrit: true}
	powerThresholds = chart.Thresholds{High: 25, HasHigh: true}
)

var signalDefs = []signalDef{
	{"power_w", "system", "W", powerThresholds, func(r sampler.Record) (float64, bool) { return r.PowerW, true }},
	{"display_w", "display+", "W", powerThresholds, func(r sampler.Record) (float64, bool) { return r.DisplayW, true }},
	{"bat_power_w", "battery", "W", powerThresholds, func(r sampler.Record) (float64, bool) { return r.BatPowerW, true }},
	{"cpu_temp", "cpu", "°C", tempThresholds, func(r sampler.Record) (float64, bool) { return opt(r.CPUTemp) }},
	{"gpu_temp", "gpu", "°C", tempThresholds, func(r sampler.Record) (float64, bool) { return opt(r.GPUTemp) }},
	{"mem_temp", "memory", "°C", tempThresholds, func(r sampler.Record) (float64, bool) { return opt(r.MemTemp) }},
	{"ssd_temp", "storage", "°C", tempThresholds, func(r sampler.Record) (float64, bool) { return opt(r.SSDTemp) }},
	{"bat_temp", "battery", "°C", tempThresholds, func(r sampler.Record) (float64, bool) { return opt(r.BatTemp) }},
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorHeading  = lipgloss.Color("147")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
)

// ── Model ────────────────────────────────────────────────────────────

type dataPoint struct {
	time  time.Time
	value float64
}

type model struct {
	days    []string
	dayIdx  int
	records []store.StoredRecord
	cursor  int
	scroll  int
	width   int
	height  int
	err     error

	timeSlots []time.Time
	series    map[string][]dataPoint
}

func initModel(days []string) model {
	m := model{days: days}
	m.loadDay()
	return m
}

func (m *model) loadDay() {
	day := m.days[m.dayIdx]
	records, err := store.LoadDay(day)
	if err != nil {
		m.err = err
		return
	}
	m.records = records
	m.err = nil

	m.timeSlots = m.timeSlots[:0]
	m.series = make(map[string][]dataPoint)
	for _, sr := range records {
		m.timeSlots = append(m.timeSlots, sr.Time)
		for _, def := range signalDefs {
			if v, ok := def.get(sr.Record); ok {
				m.series[def.name] = append(m.series[def.name], dataPoint{time: sr.Time, value: v})
			}
		}
	}

	if len(m.timeSlots) > 0 {
		m.cursor = len(m.timeSlots) - 1
	}
	m.scroll = 0
}

// ── Init / Update ────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < len(m.timeSlots)-1 {
				m.cursor++
			}
		case "shift+left", "H":
			m.cursor -= 60
			if m.cursor < 0 {
				m.cursor = 0
			}
		case "shift+right", "L":
			m.cursor += 60
			if m.cursor >= len(m.timeSlots) {
				m.cursor = len(m.timeSlots) - 1
			}
		case "home":
			m.cursor = 0
		case "end":
			if len(m.timeSlots) > 0 {
				m.cursor = len(m.timeSlots) - 1
			}

		case "[":
			if m.dayIdx < len(m.days)-1 {
				m.dayIdx++
				m.loadDay()
			}
		case "]":
			if m.dayIdx > 0 {
				m.dayIdx--
				m.loadDay()
			}

		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// ── View ─────────────────────────────────────────────────────────────

func (m model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string

	sections = append(sections, m.renderTitle(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("ERROR: %v", m.err))
		sections = append(sections, errBox)
	}

	if len(m.timeSlots) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(2, 0).
			Align(lipgloss.Center).
			Width(contentWidth).
			Render("No data for this day.")
		sections = append(sections, empty)
	} else {
		sections = append(sections, m.renderCursorInfo(contentWidth))
		sections = append(sections,
			m.renderPanel(contentWidth, "POWER", "W"),
			m.renderPanel(contentWidth, "THERMAL", "°C"))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := m.height
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}

	start := m.scroll
	end := start + visibleLines
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

func (m model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("KIMTEMP HISTORY")

	day := m.days[m.dayIdx]
	dayText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true).
		Render(day)

	nav := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  [ %d/%d ]", m.dayIdx+1, len(m.days)))

	dataInfo := ""
	if len(m.timeSlots) > 0 {
		first := m.timeSlots[0].Format("15:04:05")
		last := m.timeSlots[len(m.timeSlots)-1].Format("15:04:05")
		dataInfo = lipgloss.NewStyle().
			Foreground(colorDim).
			Render(fmt.Sprintf("  %s - %s  (%d records)", first, last, len(m.records)))
	}

	right := dayText + nav + dataInfo

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m model) renderCursorInfo(width int) string {
	if m.cursor < 0 || m.cursor >= len(m.timeSlots) {
		return ""
	}

	t := m.timeSlots[m.cursor]
	ts := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true).
		Render(t.Format("15:04:05"))

	pos := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.timeSlots)))

	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	scrubber := m.renderScrubber(barWidth)

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render("  " + ts + pos + "  " + scrubber)
}

func (m model) renderScrubber(width int) string {
	if len(m.timeSlots) == 0 || width <= 0 {
		return ""
	}

	pos := 0
	if len(m.timeSlots) > 1 {
		pos = m.cursor * (width - 1) / (len(m.timeSlots) - 1)
	}
	if pos >= width {
		pos = width - 1
	}

	var sb strings.Builder
	dimS := lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	curS := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i := 0; i < width; i++ {
		if i == pos {
			sb.WriteString(curS.Render("◆"))
			continue
		}
		slotIdx := 0
		if len(m.timeSlots) > 1 {
			slotIdx = i * (len(m.timeSlots) - 1) / (width - 1)
		}
		if slotIdx > 0 && slotIdx < len(m.timeSlots) {
			t := m.timeSlots[slotIdx]
			tPrev := m.timeSlots[slotIdx-1]
			if t.Hour() != tPrev.Hour() {
				sb.WriteString(tickS.Render("│"))
				continue
			}
		}
		sb.WriteString(dimS.Render("─"))
	}

	return sb.String()
}

func (m model) renderPanel(totalWidth int, heading, unit string) string {
	cursorTime := m.timeSlots[m.cursor]

	innerWidth := totalWidth - 4
	if innerWidth < 30 {
		innerWidth = 30
	}

	chartWidth := innerWidth - 56
	if chartWidth < 15 {
		chartWidth = 15
	}
	if chartWidth > 140 {
		chartWidth = 140
	}

	labelW := 12
	valueW := 9

	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorHeading).
		Render(heading)
	rows := []string{head}

	for _, def := range signalDefs {
		if def.unit != unit {
			continue
		}
		pts := m.series[def.name]
		if len(pts) == 0 {
			continue
		}

		current := valueAtTime(pts, cursorTime)

		minV, maxV := math.MaxFloat64, -math.MaxFloat64
		avg := 0.0
		for _, p := range pts {
			if p.value < minV {
				minV = p.value
			}
			if p.value > maxV {
				maxV = p.value
			}
			avg += p.value
		}
		avg /= float64(len(pts))
		rangeMin := math.Max(0, minV-2)
		rangeMax := maxV + 2
		if def.th.HasCrit && def.th.Crit > rangeMax {
			rangeMax = def.th.Crit + 2
		}

		sparkPts := buildSparkWindow(pts, m.cursor, chartWidth, m.timeSlots)

		label := lipgloss.NewStyle().
			Foreground(colorLabel).
			Bold(true).
			Width(labelW).
			Render(def.label)

		value := lipgloss.NewStyle().
			Width(valueW).
			Align(lipgloss.Right).
			Render(chart.Value(current, def.unit, def.th))

		spark := chart.SparklineSamples(sparkPts, chartWidth, rangeMin, rangeMax, def.th)

		frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
		frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

		dimS := lipgloss.NewStyle().Foreground(colorDim)
		valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		stats := dimS.Render(" avg") + valS.Render(fmt.Sprintf("%5.1f", avg)) +
			dimS.Render(" lo") + valS.Render(fmt.Sprintf("%5.1f", minV)) +
			dimS.Render(" pk") + valS.Render(fmt.Sprintf("%5.1f", maxV))

		rows = append(rows, label+" "+value+" "+frameL+spark+frameR+stats)

		timeline := chart.Timeline(sparkPts, chartWidth)
		if strings.TrimSpace(timeline) != "" {
			pad := strings.Repeat(" ", labelW+valueW+2)
			rows = append(rows, pad+" "+timeline)
		}
	}

	if len(rows) == 1 {
		rows = append(rows, lipgloss.NewStyle().Foreground(colorDim).Render("no signals recorded"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":scrub") +
		dimS.Render("  H/L") + keyS.Render(":skip 1m") +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  [/]") + keyS.Render(":day") +
		dimS.Render("  j/k") + keyS.Render(":scroll")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}

// ── Helpers ──────────────────────────────────────────────────────────

// valueAtTime returns the sample closest to t.
func valueAtTime(pts []dataPoint, t time.Time) float64 {
	best := pts[0].value
	bestDiff := absDuration(pts[0].time.Sub(t))
	for _, p := range pts {
		diff := absDuration(p.time.Sub(t))
		if diff < bestDiff {
			bestDiff = diff
			best = p.value
		}
		if p.time.After(t) && diff > bestDiff {
			break
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// buildSparkWindow picks the chartWidth slots ending at the cursor and
// maps each to the signal's sample at that timestamp, if any.
func buildSparkWindow(pts []dataPoint, cursorIdx int, width int, timeSlots []time.Time) []history.Sample {
	if len(pts) == 0 || len(timeSlots) == 0 {
		return nil
	}

	cursorTime := timeSlots[cursorIdx]

	valueMap := make(map[int64]float64)
	for _, p := range pts {
		valueMap[p.time.Unix()] = p.value
	}

	var result []history.Sample
	for i := width - 1; i >= 0; i-- {
		slotIdx := cursorIdx - i
		if slotIdx < 0 || slotIdx >= len(timeSlots) {
			continue
		}
		t := timeSlots[slotIdx]
		if v, ok := valueMap[t.Unix()]; ok {
			result = append(result, history.Sample{Value: v, Time: t})
		}
	}

	if v, ok := valueMap[cursorTime.Unix()]; ok {
		if len(result) == 0 || result[len(result)-1].Time != cursorTime {
			result = append(result, history.Sample{Value: v, Time: cursorTime})
		}
	}

	return result
}
