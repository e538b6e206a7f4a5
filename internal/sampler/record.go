// Package sampler runs the dual-cadence telemetry loop: cheap register
// reads every tick, expensive external collection every Nth tick, one
// composite record per tick.
package sampler

import (
	"math"
	"strconv"

	"github.com/kim-el/kimtemp/internal/sysstat"
)

// OptMetric is a value that may be absent. Absence is distinct from a
// measured zero: an empty zone marshals to JSON null, never 0.0.
type OptMetric struct {
	Value float64
	Valid bool
}

// Metric wraps a present value.
func Metric(v float64) OptMetric {
	return OptMetric{Value: v, Valid: true}
}

// MarshalJSON renders the value to one decimal, or null when absent.
func (m OptMetric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, m.Value, 'f', 1, 64), nil
}

// UnmarshalJSON accepts null or a number.
func (m *OptMetric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = OptMetric{}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Metric(v)
	return nil
}

// Record is the per-tick composite output. Zone averages and power
// figures are fresh every tick; the battery/memory/process fields carry
// the slow channel's latest values and only change on cadence
// boundaries.
type Record struct {
	CPUTemp OptMetric `json:"cpu_temp"`
	GPUTemp OptMetric `json:"gpu_temp"`
	MemTemp OptMetric `json:"mem_temp"`
	SSDTemp OptMetric `json:"ssd_temp"`
	BatTemp OptMetric `json:"bat_temp"`

	PowerW    float64 `json:"power_w"`
	BatPowerW float64 `json:"bat_power_w"`
	MemPowerW float64 `json:"mem_power_w"`
	DisplayW  float64 `json:"display_w"`

	CPUMw  int `json:"cpu_mw"`
	GPUMw  int `json:"gpu_mw"`
	ANEMw  int `json:"ane_mw"`
	WiFiMw int `json:"wifi_mw"`
	SSDMw  int `json:"ssd_mw"`
	BTMw   int `json:"bt_mw"`

	BatteryPct    int                  `json:"battery_pct"`
	Charging      bool                 `json:"charging"`
	CycleCount    int                  `json:"cycle_count"`
	HealthPct     int                  `json:"health_pct"`
	MemFreePct    int                  `json:"mem_free_pct"`
	EfficiencyHrs float64              `json:"efficiency_hrs"`
	WakeupsPerSec float64              `json:"wakeups_per_sec"`
	TopCPU        []sysstat.ProcSample `json:"top_cpu"`
	HighWakeups   []sysstat.ProcSample `json:"high_wakeups"`
}

func round0(v float64) float64 { return math.Round(v) }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// milliwatts converts a watt reading for the integer mW fields.
func milliwatts(w float32) int { return int(w * 1000) }
