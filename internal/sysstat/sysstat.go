// Package sysstat collects the slow-channel statistics that come from
// external tools rather than sensor registers: battery state (pmset,
// ioreg), free memory (vm_stat, sysctl), and the per-process activity
// table (powermetrics). All invocation goes through an injectable
// Runner so tests feed canned output instead of spawning processes.
package sysstat

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/kim-el/kimtemp/internal/logger"
)

// Runner invokes an external command and returns its stdout.
type Runner func(name string, args ...string) (string, error)

// Exec is the production Runner.
func Exec(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	return string(out), err
}

// ProcSample is one row of the process activity table.
type ProcSample struct {
	Name    string  `json:"name"`
	CPUMs   float64 `json:"cpu_ms"`
	Wakeups float64 `json:"wakeups"`
}

// Snapshot is the slow channel's contribution to a composite record.
type Snapshot struct {
	BatteryPct   int
	Charging     bool
	MemFreePct   int
	TotalWakeups float64
	TopCPU       []ProcSample
	HighWakeups  []ProcSample
}

// BatteryInfo holds the static battery figures sampled once at startup.
type BatteryInfo struct {
	DesignMAH  float64
	NominalMAH float64
	CycleCount int
	HealthPct  int
	CapacityWh float64
}

// Collector gathers slow-channel statistics. Each field degrades
// independently: a tool that fails or emits garbage leaves its field at
// the zero value and never aborts the snapshot.
type Collector struct {
	run      Runner
	log      logger.Logger
	pageSize uint64
	totalMem uint64
}

const (
	defaultTotalMem = 16 * 1024 * 1024 * 1024
	defaultPageSize = 16384
	// Nominal per-cell voltage used to convert mAh capacity to Wh.
	cellVoltage = 11.4
)

// NewCollector creates a collector using real process invocation and
// probes the machine's memory geometry once.
func NewCollector(log logger.Logger) *Collector {
	return NewCollectorWithRunner(Exec, log)
}

// NewCollectorWithRunner is NewCollector with an injected Runner.
func NewCollectorWithRunner(run Runner, log logger.Logger) *Collector {
	if log == nil {
		log = logger.Noop()
	}
	c := &Collector{run: run, log: log, pageSize: defaultPageSize, totalMem: defaultTotalMem}

	if out, err := run("sysctl", "-n", "hw.memsize"); err == nil {
		if v, err := strconv.ParseUint(strings.TrimSpace(out), 10, 64); err == nil && v > 0 {
			c.totalMem = v
		}
	}
	if out, err := run("pagesize"); err == nil {
		if v, err := strconv.ParseUint(strings.TrimSpace(out), 10, 64); err == nil && v > 0 {
			c.pageSize = v
		}
	}
	return c
}

// Collect runs every slow-channel tool and assembles a snapshot.
func (c *Collector) Collect() Snapshot {
	var s Snapshot

	if out, err := c.run("pmset", "-g", "batt"); err == nil {
		s.BatteryPct, s.Charging = parsePmsetBattery(out)
	} else {
		c.log.Debug("pmset failed: %v", err)
	}

	if out, err := c.run("vm_stat"); err == nil {
		free, inactive, speculative := parseVMStat(out)
		freeBytes := (free + inactive + speculative) * c.pageSize
		s.MemFreePct = int(float64(freeBytes) / float64(c.totalMem) * 100)
	} else {
		c.log.Debug("vm_stat failed: %v", err)
	}

	if out, err := c.run("sudo", "powermetrics", "-n", "1", "-i", "100",
		"--samplers", "cpu_power,tasks"); err == nil {
		procs, total := parseTaskTable(out)
		s.TotalWakeups = total
		s.TopCPU = topByCPU(procs, 5)
		s.HighWakeups = highWakeups(procs, 50.0, 5)
	} else {
		c.log.Debug("powermetrics failed: %v", err)
	}

	return s
}

// Battery reads the static battery figures from the IO registry.
// Missing fields fall back to a 4500 mAh pack, matching the tool's
// documented defaults rather than failing.
func (c *Collector) Battery() BatteryInfo {
	info := BatteryInfo{DesignMAH: 4500, NominalMAH: 4500, HealthPct: 100}

	out, err := c.run("ioreg", "-r", "-c", "AppleSmartBattery")
	if err != nil {
		c.log.Debug("ioreg failed: %v", err)
	} else {
		info = parseIoregBattery(out)
	}
	info.CapacityWh = info.NominalMAH * cellVoltage / 1000.0
	return info
}
