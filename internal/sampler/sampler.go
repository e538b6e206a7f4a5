package sampler

import (
	"context"
	"time"

	"github.com/kim-el/kimtemp/internal/logger"
	"github.com/kim-el/kimtemp/internal/power"
	"github.com/kim-el/kimtemp/internal/smc"
	"github.com/kim-el/kimtemp/internal/sysstat"
	"github.com/kim-el/kimtemp/internal/zone"
)

// SlowSource provides the expensive, subprocess-derived statistics.
// sysstat.Collector is the production implementation.
type SlowSource interface {
	Collect() sysstat.Snapshot
	Battery() sysstat.BatteryInfo
}

// Config tunes the loop.
type Config struct {
	Interval    time.Duration // tick period (default 1s)
	Cadence     int           // slow channel runs every Nth tick (default 5)
	Once        bool          // emit a single record, then stop
	FastOnly    bool          // power only: temps sampled once, no slow channel
	SlowTimeout time.Duration // bounded wait for a stalled slow collection
	TempRange   zone.Range    // gate for thermal readings
}

func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = time.Second
	}
	if c.Cadence < 1 {
		c.Cadence = 5
	}
	if c.SlowTimeout == 0 {
		c.SlowTimeout = 2 * time.Second
	}
	if c.TempRange == (zone.Range{}) {
		c.TempRange = zone.DefaultTempRange
	}
	return c
}

// Sampler owns the loop state: the hardware handle, the classification
// and decomposition tables, and the cached slow-channel fields. One
// sampler serves one running mode; nothing here is shared.
type Sampler struct {
	src        smc.Source
	classifier *zone.Classifier
	model      power.Model
	batteryKey smc.Key
	slow       SlowSource
	cfg        Config
	log        logger.Logger
}

// New assembles a sampler. slow may be nil when cfg.FastOnly is set.
func New(src smc.Source, classifier *zone.Classifier, model power.Model,
	batteryKey smc.Key, slow SlowSource, cfg Config, log logger.Logger) *Sampler {
	if log == nil {
		log = logger.Noop()
	}
	return &Sampler{
		src:        src,
		classifier: classifier,
		model:      model,
		batteryKey: batteryKey,
		slow:       slow,
		cfg:        cfg.withDefaults(),
		log:        log,
	}
}

// temps holds one tick's zone averages.
type temps struct {
	cpu, gpu, mem, ssd, bat OptMetric
}

// slowFields is the cached slow channel plus figures derived at merge
// time.
type slowFields struct {
	snap       sysstat.Snapshot
	efficiency float64
}

// Run drives the loop until ctx is done or, in single-shot mode, after
// one record. The emit callback receives each composite record; its
// error stops the loop.
func (s *Sampler) Run(ctx context.Context, emit func(Record) error) error {
	keys, err := s.src.Keys()
	if err != nil {
		// Degraded but alive: zone averages will all be absent.
		s.log.Warn("key enumeration failed: %v", err)
	}

	battery := sysstat.BatteryInfo{DesignMAH: 4500, NominalMAH: 4500, HealthPct: 100,
		CapacityWh: 4500 * 11.4 / 1000}
	if s.slow != nil && !s.cfg.FastOnly {
		battery = s.slow.Battery()
	}

	var (
		cached   slowFields
		zones    temps
		resultCh = make(chan sysstat.Snapshot, 1)
		inflight = false
	)

	for tick := 0; ; tick++ {
		m := s.model.Measure(s.src)
		batW := smc.FloatOrZero(s.src, s.batteryKey)

		if !s.cfg.FastOnly || tick == 0 {
			zones = s.collectTemps(keys)
		}

		if s.slow != nil && !s.cfg.FastOnly && tick%s.cfg.Cadence == 0 {
			if !inflight {
				inflight = true
				go func() { resultCh <- s.slow.Collect() }()
			}
			// The handoff cell is consumed only on boundary ticks, so
			// intermediate ticks carry the previous values verbatim. A
			// stalled collection must not hold up the fast channel:
			// after the bounded wait we reuse the cache and try again
			// at the next boundary.
			select {
			case snap := <-resultCh:
				inflight = false
				cached = s.merge(snap, m.Total, battery)
			case <-time.After(s.cfg.SlowTimeout):
				s.log.Warn("slow channel stalled, reusing cached values")
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := emit(s.build(m, batW, zones, cached, battery)); err != nil {
			return err
		}
		if s.cfg.Once {
			return nil
		}
		if !sleep(ctx, s.cfg.Interval) {
			return ctx.Err()
		}
	}
}

// collectTemps classifies every enumerated key and aggregates each
// thermal zone. Unclassified keys are dropped, and zones where nothing
// passes the range gate stay absent.
func (s *Sampler) collectTemps(keys []smc.Key) temps {
	buckets := make(map[zone.Zone][]float64)
	for _, k := range keys {
		z := s.classifier.Classify(k)
		if z == zone.Unclassified {
			continue
		}
		t, err := s.src.ReadTemperature(k)
		if err != nil {
			continue
		}
		buckets[z] = append(buckets[z], t)
	}

	avg := func(z zone.Zone) OptMetric {
		v, ok := zone.Aggregate(buckets[z], s.cfg.TempRange)
		if !ok {
			return OptMetric{}
		}
		return Metric(v)
	}
	return temps{
		cpu: avg(zone.CPU),
		gpu: avg(zone.GPU),
		mem: avg(zone.Memory),
		ssd: avg(zone.Storage),
		bat: avg(zone.Battery),
	}
}

// merge installs a fresh slow snapshot and derives the battery-hours
// estimate from the current total draw.
func (s *Sampler) merge(snap sysstat.Snapshot, sysPower float32, battery sysstat.BatteryInfo) slowFields {
	eff := 99.0
	if sysPower > 0.1 {
		eff = battery.CapacityWh / float64(sysPower)
	}
	return slowFields{snap: snap, efficiency: eff}
}

func (s *Sampler) build(m power.Measurement, batW float32, zones temps,
	cached slowFields, battery sysstat.BatteryInfo) Record {
	rec := Record{
		CPUTemp: zones.cpu,
		GPUTemp: zones.gpu,
		MemTemp: zones.mem,
		SSDTemp: zones.ssd,
		BatTemp: zones.bat,

		PowerW:    round2(float64(m.Total)),
		BatPowerW: round2(float64(batW)),
		MemPowerW: round2(float64(m.Rails["mem"])),
		DisplayW:  round2(float64(m.Residual)),

		CPUMw:  milliwatts(m.Rails["cpu"]),
		GPUMw:  milliwatts(m.Rails["gpu"]),
		ANEMw:  milliwatts(m.Rails["ane"]),
		WiFiMw: milliwatts(m.Rails["wifi"]),
		SSDMw:  milliwatts(m.Rails["ssd"]),
		BTMw:   milliwatts(m.Rails["bt"]),

		BatteryPct:    cached.snap.BatteryPct,
		Charging:      cached.snap.Charging,
		CycleCount:    battery.CycleCount,
		HealthPct:     battery.HealthPct,
		MemFreePct:    cached.snap.MemFreePct,
		EfficiencyHrs: round1(cached.efficiency),
		WakeupsPerSec: round0(cached.snap.TotalWakeups),
		TopCPU:        cached.snap.TopCPU,
		HighWakeups:   cached.snap.HighWakeups,
	}
	if rec.TopCPU == nil {
		rec.TopCPU = []sysstat.ProcSample{}
	}
	if rec.HighWakeups == nil {
		rec.HighWakeups = []sysstat.ProcSample{}
	}
	return rec
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
