package sampler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kim-el/kimtemp/internal/config"
	"github.com/kim-el/kimtemp/internal/logger"
	"github.com/kim-el/kimtemp/internal/smc"
	"github.com/kim-el/kimtemp/internal/sysstat"
	"github.com/kim-el/kimtemp/internal/zone"
)

// fakeSlow counts collections and stamps each snapshot with its
// sequence number so tests can see exactly which boundary produced it.
type fakeSlow struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
}

func (f *fakeSlow) Collect() sysstat.Snapshot {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return sysstat.Snapshot{BatteryPct: n, MemFreePct: 50, TotalWakeups: 530.5}
}

func (f *fakeSlow) Battery() sysstat.BatteryInfo {
	return sysstat.BatteryInfo{DesignMAH: 4382, NominalMAH: 4100, CycleCount: 250, HealthPct: 93, CapacityWh: 46.74}
}

func testSource() *smc.MemSource {
	src := smc.NewMemSource()
	src.SetFloat(smc.MustKey("PSTR"), 12.5)
	src.SetFloat(smc.MustKey("PPBR"), 7.25)
	src.SetFloat(smc.MustKey("PP0b"), 3.0)
	src.SetFloat(smc.MustKey("PP1b"), 2.0)
	src.SetFloat(smc.MustKey("PP7b"), 1.0)
	src.SetFloat(smc.MustKey("PMVC"), 0.5)
	// PZC1, PP9b, PHPM absent: they read as 0.
	src.SetTemp(smc.MustKey("Tp01"), 45.0)
	src.SetTemp(smc.MustKey("Tp02"), 55.0)
	src.SetTemp(smc.MustKey("Te03"), 1000.0) // sentinel junk, gated out
	src.SetTemp(smc.MustKey("TB1T"), 32.5)
	return src
}

func newTestSampler(slow SlowSource, cfg Config) *Sampler {
	def := config.Default()
	return New(testSource(), zone.NewClassifier(def.Rules()), def.Model(),
		def.BatteryKey(), slow, cfg, logger.Noop())
}

var errStop = errors.New("stop")

// collect runs the sampler until n records have been emitted.
func collect(t *testing.T, s *Sampler, n int) []Record {
	t.Helper()
	var records []Record
	err := s.Run(context.Background(), func(r Record) error {
		records = append(records, r)
		if len(records) == n {
			return errStop
		}
		return nil
	})
	if err != errStop {
		t.Fatalf("Run returned %v, want errStop", err)
	}
	return records
}

func TestSingleShot(t *testing.T) {
	s := newTestSampler(&fakeSlow{}, Config{Interval: time.Millisecond, Once: true})

	var records []Record
	err := s.Run(context.Background(), func(r Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	r := records[0]
	if !r.CPUTemp.Valid || r.CPUTemp.Value != 50.0 {
		t.Errorf("cpu_temp = %+v, want 50.0 (junk reading excluded)", r.CPUTemp)
	}
	if r.GPUTemp.Valid {
		t.Error("gpu_temp should be absent with no GPU diodes")
	}
	if !r.BatTemp.Valid || r.BatTemp.Value != 32.5 {
		t.Errorf("bat_temp = %+v, want 32.5", r.BatTemp)
	}
	if r.PowerW != 12.5 || r.BatPowerW != 7.25 {
		t.Errorf("power = %f/%f, want 12.5/7.25", r.PowerW, r.BatPowerW)
	}
	// 12.5 - (3+2+1+0.5) with ssd/bt/mem rails unresolvable (0).
	if r.DisplayW != 6.0 {
		t.Errorf("display_w = %f, want 6.0", r.DisplayW)
	}
	if r.CPUMw != 3000 || r.WiFiMw != 500 || r.SSDMw != 0 {
		t.Errorf("rail mW = %d/%d/%d, want 3000/500/0", r.CPUMw, r.WiFiMw, r.SSDMw)
	}
	if r.BatteryPct != 1 || r.CycleCount != 250 || r.HealthPct != 93 {
		t.Errorf("slow fields = %d/%d/%d", r.BatteryPct, r.CycleCount, r.HealthPct)
	}
	if r.WakeupsPerSec != 531 {
		t.Errorf("wakeups = %f, want 531", r.WakeupsPerSec)
	}
}

func TestRecordJSONShape(t *testing.T) {
	s := newTestSampler(&fakeSlow{}, Config{Interval: time.Millisecond, Once: true})

	var rec Record
	if err := s.Run(context.Background(), func(r Record) error {
		rec = r
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)

	for _, want := range []string{
		`"cpu_temp":50.0`,
		`"gpu_temp":null`,
		`"bat_temp":32.5`,
		`"display_w":6`,
		`"cpu_mw":3000`,
		`"charging":false`,
		`"top_cpu":[]`,
		`"high_wakeups":[]`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("record JSON missing %s:\n%s", want, line)
		}
	}
}

func TestDualCadence(t *testing.T) {
	slow := &fakeSlow{}
	s := newTestSampler(slow, Config{
		Interval:    time.Millisecond,
		Cadence:     5,
		SlowTimeout: time.Second,
	})

	records := collect(t, s, 12)

	// Ticks 2-5 carry tick 1's slow fields verbatim.
	for i := 1; i < 5; i++ {
		if records[i].BatteryPct != records[0].BatteryPct {
			t.Errorf("tick %d battery = %d, want %d", i+1, records[i].BatteryPct, records[0].BatteryPct)
		}
	}
	if records[0].BatteryPct != 1 {
		t.Errorf("first boundary snapshot = %d, want 1", records[0].BatteryPct)
	}
	if records[5].BatteryPct != 2 {
		t.Errorf("second boundary snapshot = %d, want 2", records[5].BatteryPct)
	}
	if records[10].BatteryPct != 3 {
		t.Errorf("third boundary snapshot = %d, want 3", records[10].BatteryPct)
	}
}

func TestStalledSlowChannelDegrades(t *testing.T) {
	slow := &fakeSlow{delay: 60 * time.Millisecond}
	s := newTestSampler(slow, Config{
		Interval:    time.Millisecond,
		Cadence:     2,
		SlowTimeout: 2 * time.Millisecond,
	})

	records := collect(t, s, 120)

	// The first boundary times out: the record still comes out, on
	// time, with the zero-value cache.
	if records[0].BatteryPct != 0 {
		t.Errorf("first record battery = %d, want cached 0", records[0].BatteryPct)
	}

	// The stalled result lands at a later boundary instead of being lost.
	last := records[len(records)-1]
	if last.BatteryPct < 1 {
		t.Error("late result never adopted")
	}

	// The in-flight collection is never duplicated while stalled. The
	// run spans ~60 boundaries; without the guard every one would
	// launch a collection.
	slow.mu.Lock()
	calls := slow.calls
	slow.mu.Unlock()
	if calls > 10 {
		t.Errorf("collect calls = %d, want no pile-up", calls)
	}
}

func TestFastOnlySkipsSlowChannel(t *testing.T) {
	slow := &fakeSlow{}
	s := newTestSampler(slow, Config{
		Interval: time.Millisecond,
		FastOnly: true,
	})

	records := collect(t, s, 3)

	slow.mu.Lock()
	calls := slow.calls
	slow.mu.Unlock()
	if calls != 0 {
		t.Errorf("fast mode ran the slow channel %d times", calls)
	}
	for _, r := range records {
		if r.BatteryPct != 0 {
			t.Error("fast mode must not populate slow fields")
		}
		if r.DisplayW != 6.0 {
			t.Errorf("fast channel must stay fresh, display_w = %f", r.DisplayW)
		}
	}
}

func TestKeyEnumerationFailureDegrades(t *testing.T) {
	def := config.Default()
	log := logger.NewBuffer()
	s := New(failingKeySource{testSource()}, zone.NewClassifier(def.Rules()),
		def.Model(), def.BatteryKey(), &fakeSlow{}, Config{Interval: time.Millisecond, Once: true}, log)

	var rec Record
	if err := s.Run(context.Background(), func(r Record) error {
		rec = r
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if rec.CPUTemp.Valid {
		t.Error("no keys means no zone averages")
	}
	if rec.PowerW != 12.5 {
		t.Error("power reads must survive a failed enumeration")
	}
	if !log.HasLevel("warn") {
		t.Error("enumeration failure should be logged")
	}
}

type failingKeySource struct {
	*smc.MemSource
}

func (f failingKeySource) Keys() ([]smc.Key, error) {
	return nil, errors.New("enumeration failed")
}
