// Package monitor implements the live telemetry TUI using BubbleTea,
// with sparkline charts for the power and thermal signals and a battery
// status panel.
package monitor

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kim-el/kimtemp/internal/chart"
	"github.com/kim-el/kimtemp/internal/history"
	"github.com/kim-el/kimtemp/internal/sampler"
	"github.com/kim-el/kimtemp/internal/store"
)

const historySize = 600 // 10 minutes at 1s interval

var (
	tempThresholds  = chart.Thresholds{High: 75, Crit: 95, HasHigh: true, HasCrit: true}
	powerThresholds = chart.Thresholds{High: 25, HasHigh: true}
)

// ── Messages ─────────────────────────────────────────────────────────

type recordMsg struct {
	rec  sampler.Record
	time time.Time
}

type streamClosedMsg struct{}

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the live monitor. Records arrive on
// a channel fed by the sampler loop running in its own goroutine.
type Model struct {
	records   <-chan sampler.Record
	last      sampler.Record
	hasData   bool
	history   *history.Set
	store     *store.DiskStore
	err       error
	width     int
	height    int
	scroll    int
	lastTick  time.Time
	startTime time.Time
	paused    bool
}

// New creates the initial model reading from the given record stream.
func New(records <-chan sampler.Record) Model {
	ds, err := store.New()
	m := Model{
		records:   records,
		history:   history.NewSet(historySize),
		store:     ds,
		startTime: time.Now(),
	}
	if err != nil {
		m.err = fmt.Errorf("disk store: %w", err)
	}
	return m
}

// ── Commands ─────────────────────────────────────────────────────────

func waitRecord(ch <-chan sampler.Record) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return recordMsg{rec: rec, time: time.Now()}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return waitRecord(m.records)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.store != nil {
				m.store.Close()
			}
			return m, tea.Quit
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		case "home":
			m.scroll = 0
		case " ", "p":
			m.paused = !m.paused
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case recordMsg:
		// A paused view still drains the stream so the sampler never
		// blocks on emit.
		if m.paused {
			return m, waitRecord(m.records)
		}
		m.last = msg.rec
		m.hasData = true
		m.lastTick = msg.time
		m.recordSignals(msg.rec, msg.time)

		if m.store != nil {
			if err := m.store.Write(msg.rec, msg.time); err != nil {
				m.err = fmt.Errorf("write: %w", err)
			}
		}
		return m, waitRecord(m.records)

	case streamClosedMsg:
		if m.store != nil {
			m.store.Close()
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) recordSignals(rec sampler.Record, t time.Time) {
	m.history.Record("power_w", rec.PowerW, t)
	m.history.Record("display_w", rec.DisplayW, t)
	m.history.Record("bat_power_w", rec.BatPowerW, t)
	for _, z := range []struct {
		name string
		v    sampler.OptMetric
	}{
		{"cpu_temp", rec.CPUTemp},
		{"gpu_temp", rec.GPUTemp},
		{"mem_temp", rec.MemTemp},
		{"ssd_temp", rec.SSDTemp},
		{"bat_temp", rec.BatTemp},
	} {
		if z.v.Valid {
			m.history.Record(z.name, z.v.Value, t)
		}
	}
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
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorHigh     = lipgloss.Color("208")
	colorCrit     = lipgloss.Color("196")
	colorPaused   = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string

	sections = append(sections, m.renderTitleBar(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Width(contentWidth).
			Padding(0, 1).
			Render(fmt.Sprintf(" ERROR: %v", m.err))
		sections = append(sections, errBox)
	}

	if !m.hasData {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Waiting for telemetry...")
		sections = append(sections, waiting)
	} else {
		sections = append(sections,
			m.renderPowerPanel(contentWidth),
			m.renderThermalPanel(contentWidth),
			m.renderBatteryPanel(contentWidth))
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

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("KIMTEMP MONITOR")

	var statusParts []string

	uptime := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime))))
	statusParts = append(statusParts, uptime)

	if !m.lastTick.IsZero() {
		ts := lipgloss.NewStyle().
			Foreground(colorDim).
			Render(m.lastTick.Format("15:04:05"))
		statusParts = append(statusParts, ts)
	}

	if m.paused {
		p := lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true).
			Render("PAUSED")
		statusParts = append(statusParts, p)
	}

	if m.store != nil {
		rec := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Render("REC") +
			lipgloss.NewStyle().
				Foreground(colorDim).
				Render(" "+store.DataDir())
		statusParts = append(statusParts, rec)
	}

	sep := lipgloss.NewStyle().Foreground(colorDim).Render(" │ ")
	right := strings.Join(statusParts, sep)

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

func (m Model) chartWidth(totalWidth int) int {
	w := totalWidth - 64
	if w < 15 {
		w = 15
	}
	if w > 140 {
		w = 140
	}
	return w
}

func (m Model) signalRow(name, label, unit string, th chart.Thresholds, labelW, chartW int) (string, []history.Sample) {
	series := m.history.Series(name)
	if series == nil {
		return "", nil
	}

	rangeMin := math.Max(0, series.Min-2)
	rangeMax := series.Peak + 2
	if th.HasCrit && th.Crit > rangeMax {
		rangeMax = th.Crit + 2
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	labelCell := lipgloss.NewStyle().
		Foreground(colorLabel).
		Width(labelW).
		Render(truncate(label, labelW))

	value := lipgloss.NewStyle().
		Width(9).
		Align(lipgloss.Right).
		Render(chart.Value(series.Last(), unit, th))

	pts := series.WindowSamples(chartW)
	spark := chart.SparklineSamples(pts, chartW, rangeMin, rangeMax, th)

	stats := dimS.Render(" avg") + valS.Render(fmt.Sprintf("%5.1f", series.Avg())) +
		dimS.Render(" lo") + valS.Render(fmt.Sprintf("%5.1f", series.Min)) +
		dimS.Render(" pk") + valS.Render(fmt.Sprintf("%5.1f", series.Peak))

	return labelCell + " " + value + " " + frameL + spark + frameR + stats, pts
}

func (m Model) renderPanel(totalWidth, chartW, labelW int, heading string, rows []string, pts []history.Sample) string {
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorHeading).
		Render(heading)
	all := append([]string{head}, rows...)

	if pts != nil {
		timeline := chart.Timeline(pts, chartW)
		if strings.TrimSpace(timeline) != "" {
			pad := strings.Repeat(" ", labelW+11)
			all = append(all, pad+" "+timeline)
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, all...))
}

func (m Model) renderPowerPanel(totalWidth int) string {
	labelW := 12
	chartW := m.chartWidth(totalWidth)

	var rows []string
	var lastPts []history.Sample
	for _, sig := range []struct{ name, label string }{
		{"power_w", "system"},
		{"display_w", "display+"},
		{"bat_power_w", "battery"},
	} {
		row, pts := m.signalRow(sig.name, sig.label, "W", powerThresholds, labelW, chartW)
		if row != "" {
			rows = append(rows, row)
			lastPts = pts
		}
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	rails := dimS.Render("cpu") + valS.Render(fmt.Sprintf("%6dmW", m.last.CPUMw)) +
		dimS.Render("  gpu") + valS.Render(fmt.Sprintf("%6dmW", m.last.GPUMw)) +
		dimS.Render("  ane") + valS.Render(fmt.Sprintf("%6dmW", m.last.ANEMw)) +
		dimS.Render("  wifi") + valS.Render(fmt.Sprintf("%5dmW", m.last.WiFiMw)) +
		dimS.Render("  ssd") + valS.Render(fmt.Sprintf("%5dmW", m.last.SSDMw)) +
		dimS.Render("  bt") + valS.Render(fmt.Sprintf("%5dmW", m.last.BTMw))
	rows = append(rows, rails)

	return m.renderPanel(totalWidth, chartW, labelW, "POWER", rows, lastPts)
}

func (m Model) renderThermalPanel(totalWidth int) string {
	labelW := 12
	chartW := m.chartWidth(totalWidth)

	var rows []string
	var lastPts []history.Sample
	for _, sig := range []struct{ name, label string }{
		{"cpu_temp", "cpu"},
		{"gpu_temp", "gpu"},
		{"mem_temp", "memory"},
		{"ssd_temp", "storage"},
		{"bat_temp", "battery"},
	} {
		row, pts := m.signalRow(sig.name, sig.label, "°C", tempThresholds, labelW, chartW)
		if row != "" {
			rows = append(rows, row)
			lastPts = pts
		}
	}
	if len(rows) == 0 {
		rows = append(rows, lipgloss.NewStyle().Foreground(colorDim).Render("no thermal zones reporting"))
	}

	return m.renderPanel(totalWidth, chartW, labelW, "THERMAL", rows, lastPts)
}

func (m Model) renderBatteryPanel(totalWidth int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	state := "discharging"
	if m.last.Charging {
		state = "charging"
	}

	row1 := dimS.Render("charge ") + valS.Render(fmt.Sprintf("%d%%", m.last.BatteryPct)) +
		dimS.Render("  state ") + valS.Render(state) +
		dimS.Render("  cycles ") + valS.Render(fmt.Sprintf("%d", m.last.CycleCount)) +
		dimS.Render("  health ") + valS.Render(fmt.Sprintf("%d%%", m.last.HealthPct)) +
		dimS.Render("  est ") + valS.Render(fmt.Sprintf("%.1fh", m.last.EfficiencyHrs))

	row2 := dimS.Render("mem free ") + valS.Render(fmt.Sprintf("%d%%", m.last.MemFreePct)) +
		dimS.Render("  wakeups/s ") + valS.Render(fmt.Sprintf("%.0f", m.last.WakeupsPerSec))

	rows := []string{row1, row2}

	if len(m.last.TopCPU) > 0 {
		var tops []string
		for _, p := range m.last.TopCPU {
			tops = append(tops, fmt.Sprintf("%s %.0fms", p.Name, p.CPUMs))
		}
		rows = append(rows, dimS.Render("top cpu  ")+valS.Render(strings.Join(tops, "  ")))
	}
	if len(m.last.HighWakeups) > 0 {
		var wakers []string
		for _, p := range m.last.HighWakeups {
			wakers = append(wakers, fmt.Sprintf("%s %.0f/s", p.Name, p.Wakeups))
		}
		rows = append(rows, dimS.Render("wakeful  ")+valS.Render(strings.Join(wakers, "  ")))
	}

	return m.renderPanel(totalWidth, 0, 0, "BATTERY", rows, nil)
}

func (m Model) renderFooter(width int) string {
	okS := lipgloss.NewStyle().Foreground(colorOk).Render("██")
	warnS := lipgloss.NewStyle().Foreground(colorWarn).Render("██")
	highS := lipgloss.NewStyle().Foreground(colorHigh).Render("██")
	critS := lipgloss.NewStyle().Foreground(colorCrit).Render("██")
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render("│")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	legend := okS + dimS.Render(" ok ") +
		warnS + dimS.Render(" warm ") +
		highS + dimS.Render(" high ") +
		critS + dimS.Render(" crit ") +
		tickS + dimS.Render(" 1min")

	keys := dimS.Render("q") + lipgloss.NewStyle().Foreground(colorLabel).Render(":quit") +
		dimS.Render("  j/k") + lipgloss.NewStyle().Foreground(colorLabel).Render(":scroll") +
		dimS.Render("  p") + lipgloss.NewStyle().Foreground(colorLabel).Render(":pause")

	gap := width - lipgloss.Width(legend) - lipgloss.Width(keys) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + filler + keys)
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 3 {
		return s[:w]
	}
	return s[:w-1] + "…"
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
