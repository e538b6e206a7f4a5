package sysstat

import (
	"sort"
	"strconv"
	"strings"
)

// parsePmsetBattery extracts the charge percentage and charging flag
// from `pmset -g batt` output. The percentage is the last token before
// the first '%'.
func parsePmsetBattery(out string) (pct int, charging bool) {
	before, _, found := strings.Cut(out, "%")
	if found {
		fields := strings.Fields(before)
		if len(fields) > 0 {
			if v, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
				pct = v
			}
		}
	}
	charging = strings.Contains(out, "; charging;") ||
		(strings.Contains(out, "AC Power") && !strings.Contains(out, "discharging"))
	return pct, charging
}

// parseVMStat pulls the reclaimable page counts out of vm_stat output.
// Values are page counts with a trailing period.
func parseVMStat(out string) (free, inactive, speculative uint64) {
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "Pages free:"):
			free = vmStatPages(line)
		case strings.HasPrefix(line, "Pages inactive:"):
			inactive = vmStatPages(line)
		case strings.HasPrefix(line, "Pages speculative:"):
			speculative = vmStatPages(line)
		}
	}
	return free, inactive, speculative
}

func vmStatPages(line string) uint64 {
	_, rest, found := strings.Cut(line, ":")
	if !found {
		return 0
	}
	v, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(rest), "."), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// noiseProcs are the measurement's own footprint plus system tasks that
// would dominate every sample; they count toward the wakeup total but
// never appear in the ranked lists.
var noiseProcs = map[string]bool{
	"kernel_task":  true,
	"powerd":       true,
	"powermetrics": true,
	"launchd":      true,
}

// parseTaskTable reads the "Running tasks" section of powermetrics
// output. Rows start after the Name header and end at the ALL_TASKS
// summary or the CPU Power section. A malformed row is skipped, never
// fatal.
func parseTaskTable(out string) (procs []ProcSample, totalWakeups float64) {
	inTasks := false
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Name") {
			inTasks = true
			continue
		}
		if strings.HasPrefix(line, "ALL_TASKS") || strings.HasPrefix(line, "CPU Power") {
			break
		}
		if !inTasks || strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 8 {
			continue
		}
		if _, err := strconv.Atoi(parts[1]); err != nil {
			continue // second column must be the task ID
		}
		cpuMs, _ := strconv.ParseFloat(parts[2], 64)
		wakeups, _ := strconv.ParseFloat(parts[6], 64)
		totalWakeups += wakeups
		if noiseProcs[parts[0]] {
			continue
		}
		procs = append(procs, ProcSample{Name: parts[0], CPUMs: cpuMs, Wakeups: wakeups})
	}
	return procs, totalWakeups
}

// topByCPU returns the n busiest processes by CPU time.
func topByCPU(procs []ProcSample, n int) []ProcSample {
	sorted := make([]ProcSample, len(procs))
	copy(sorted, procs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CPUMs > sorted[j].CPUMs })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// highWakeups returns up to n processes waking more than min times per
// second, busiest first.
func highWakeups(procs []ProcSample, min float64, n int) []ProcSample {
	sorted := make([]ProcSample, len(procs))
	copy(sorted, procs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CPUMs > sorted[j].CPUMs })

	var out []ProcSample
	for _, p := range sorted {
		if p.Wakeups > min {
			out = append(out, p)
			if len(out) == n {
				break
			}
		}
	}
	return out
}

// parseIoregBattery reads the smart-battery properties from
// `ioreg -r -c AppleSmartBattery` output.
func parseIoregBattery(out string) BatteryInfo {
	info := BatteryInfo{DesignMAH: 4500, HealthPct: 100}
	nominalSeen := false

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(line, `"DesignCapacity"`) && strings.Contains(line, "="):
			if v, ok := ioregFloat(line); ok {
				info.DesignMAH = v
			}
		case strings.Contains(line, `"NominalChargeCapacity"`) && strings.Contains(line, "="):
			if v, ok := ioregFloat(line); ok {
				info.NominalMAH = v
				nominalSeen = true
			}
		case strings.HasPrefix(trimmed, `"CycleCount" =`):
			if v, ok := ioregFloat(line); ok {
				info.CycleCount = int(v)
			}
		}
	}

	if !nominalSeen {
		info.NominalMAH = info.DesignMAH
	}
	if info.DesignMAH > 0 {
		info.HealthPct = int(info.NominalMAH / info.DesignMAH * 100)
	}
	return info
}

func ioregFloat(line string) (float64, bool) {
	_, rest, found := strings.Cut(line, "=")
	if !found {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
