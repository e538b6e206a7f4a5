package sysstat

import (
	"errors"
	"strings"
	"testing"

	"github.com/kim-el/kimtemp/internal/logger"
)

const pmsetDischarging = `Now drawing from 'Battery Power'
 -InternalBattery-0 (id=12345679)	87%; discharging; 4:33 remaining present: true
`

const pmsetCharging = `Now drawing from 'AC Power'
 -InternalBattery-0 (id=12345679)	65%; charging; 1:12 remaining present: true
`

const pmsetFull = `Now drawing from 'AC Power'
 -InternalBattery-0 (id=12345679)	100%; charged; 0:00 remaining present: true
`

func TestParsePmsetBattery(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		pct      int
		charging bool
	}{
		{"discharging", pmsetDischarging, 87, false},
		{"charging", pmsetCharging, 65, true},
		{"full on AC", pmsetFull, 100, true},
		{"garbage", "no battery here", 0, false},
	}
	for _, tt := range tests {
		pct, charging := parsePmsetBattery(tt.out)
		if pct != tt.pct || charging != tt.charging {
			t.Errorf("%s: got (%d, %v), want (%d, %v)", tt.name, pct, charging, tt.pct, tt.charging)
		}
	}
}

const vmStatOutput = `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                              123456.
Pages active:                            800000.
Pages inactive:                          200000.
Pages speculative:                        50000.
Pages throttled:                              0.
Pages wired down:                        150000.
"Translation faults":                 987654321.
`

func TestParseVMStat(t *testing.T) {
	free, inactive, speculative := parseVMStat(vmStatOutput)
	if free != 123456 {
		t.Errorf("free = %d, want 123456", free)
	}
	if inactive != 200000 {
		t.Errorf("inactive = %d, want 200000", inactive)
	}
	if speculative != 50000 {
		t.Errorf("speculative = %d, want 50000", speculative)
	}
}

const powermetricsOutput = `Machine model: Mac16,1
OS version: 24D70

*** Running tasks ***

Name                 ID     CPU ms/s  User%  Deadlines  Deadlines2  Wakeups  Intr  GPU ms/s
WindowServer         362    245.1     12.5   0.0        0.0         120.5    0.0   1.2
kernel_task          0      500.0     0.0    0.0        0.0         300.0    0.0   0.0
Safari               1200   180.3     10.2   0.0        0.0         60.0     0.0   0.0
powermetrics         4567   90.0      5.0    0.0        0.0         40.0     0.0   0.0
Terminal             800    50.2      2.0    0.0        0.0         10.0     0.0   0.0
ALL_TASKS            -2     1065.6    29.7   0.0        0.0         530.5    0.0   1.2

CPU Power: 1250 mW
`

func TestParseTaskTable(t *testing.T) {
	procs, total := parseTaskTable(powermetricsOutput)

	if total != 530.5 {
		t.Errorf("total wakeups = %f, want 530.5 (noise rows still count)", total)
	}

	// kernel_task and powermetrics are excluded from the ranked rows.
	if len(procs) != 3 {
		t.Fatalf("procs = %d, want 3", len(procs))
	}
	for _, p := range procs {
		if noiseProcs[p.Name] {
			t.Errorf("noise process %s leaked into the table", p.Name)
		}
	}

	top := topByCPU(procs, 5)
	if top[0].Name != "WindowServer" || top[1].Name != "Safari" || top[2].Name != "Terminal" {
		t.Errorf("top order wrong: %v", top)
	}

	high := highWakeups(procs, 50.0, 5)
	if len(high) != 2 {
		t.Fatalf("high wakeups = %d, want 2", len(high))
	}
	if high[0].Name != "WindowServer" || high[1].Name != "Safari" {
		t.Errorf("high wakeups order wrong: %v", high)
	}
}

func TestParseTaskTableMalformedRows(t *testing.T) {
	out := `Name  ID  CPU
short row
not-a-task xyz 1.0 2.0 3.0 4.0 5.0 6.0
`
	procs, total := parseTaskTable(out)
	if len(procs) != 0 || total != 0 {
		t.Errorf("malformed rows must be skipped, got %v total=%f", procs, total)
	}
}

const ioregOutput = `+-o AppleSmartBattery  <class AppleSmartBattery, id 0x100000321, registered>
    {
      "AppleRawCurrentCapacity" = 3900
      "CycleCount" = 250
      "DesignCapacity" = 4382
      "NominalChargeCapacity" = 4100
      "CycleCountLastQualification" = 0
      "ExternalConnected" = No
    }
`

func TestParseIoregBattery(t *testing.T) {
	info := parseIoregBattery(ioregOutput)
	if info.DesignMAH != 4382 {
		t.Errorf("design = %f, want 4382", info.DesignMAH)
	}
	if info.NominalMAH != 4100 {
		t.Errorf("nominal = %f, want 4100", info.NominalMAH)
	}
	if info.CycleCount != 250 {
		t.Errorf("cycles = %d, want 250", info.CycleCount)
	}
	if info.HealthPct != 93 {
		t.Errorf("health = %d, want 93", info.HealthPct)
	}
}

func TestParseIoregBatteryDefaults(t *testing.T) {
	info := parseIoregBattery("")
	if info.DesignMAH != 4500 || info.NominalMAH != 4500 || info.HealthPct != 100 {
		t.Errorf("unexpected defaults: %+v", info)
	}
}

func fakeRunner(t *testing.T) Runner {
	t.Helper()
	return func(name string, args ...string) (string, error) {
		switch {
		case name == "sysctl":
			return "34359738368\n", nil
		case name == "pagesize":
			return "16384\n", nil
		case name == "pmset":
			return pmsetDischarging, nil
		case name == "vm_stat":
			return vmStatOutput, nil
		case name == "sudo" && len(args) > 0 && args[0] == "powermetrics":
			return powermetricsOutput, nil
		case name == "ioreg":
			return ioregOutput, nil
		}
		return "", errors.New("unexpected command " + name + " " + strings.Join(args, " "))
	}
}

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollectorWithRunner(fakeRunner(t), logger.Noop())

	s := c.Collect()
	if s.BatteryPct != 87 || s.Charging {
		t.Errorf("battery = (%d, %v), want (87, false)", s.BatteryPct, s.Charging)
	}
	// (123456+200000+50000) pages * 16 KiB over 32 GiB.
	if s.MemFreePct != 17 {
		t.Errorf("mem free = %d%%, want 17", s.MemFreePct)
	}
	if s.TotalWakeups != 530.5 {
		t.Errorf("wakeups = %f, want 530.5", s.TotalWakeups)
	}
	if len(s.TopCPU) != 3 || len(s.HighWakeups) != 2 {
		t.Errorf("lists = %d/%d, want 3/2", len(s.TopCPU), len(s.HighWakeups))
	}
}

func TestCollectorDegradesPerTool(t *testing.T) {
	log := logger.NewBuffer()
	c := NewCollectorWithRunner(func(name string, args ...string) (string, error) {
		if name == "vm_stat" {
			return "", errors.New("spawn failed")
		}
		return fakeRunner(t)(name, args...)
	}, log)

	s := c.Collect()
	if s.MemFreePct != 0 {
		t.Errorf("failed tool must leave its field zero, got %d", s.MemFreePct)
	}
	if s.BatteryPct != 87 {
		t.Error("other fields must survive a single tool failure")
	}
	if !log.HasLevel("debug") {
		t.Error("degradation should be logged at debug")
	}
}

func TestCollectorBattery(t *testing.T) {
	c := NewCollectorWithRunner(fakeRunner(t), logger.Noop())
	info := c.Battery()
	wantWh := 4100 * 11.4 / 1000.0
	if info.CapacityWh != wantWh {
		t.Errorf("capacity = %f Wh, want %f", info.CapacityWh, wantWh)
	}
}
