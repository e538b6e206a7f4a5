// Package detect smooths a noisy scalar signal with an exponential
// moving average and emits discrete events when it departs from its
// last stable level. Slow drifts re-baseline quietly; sharp transitions
// fire exactly once.
package detect

import (
	"context"
	"math"
	"time"
)

// Mode selects how deviation from the stable reference is measured.
type Mode int

const (
	// Absolute compares |smoothed - stable| against the threshold.
	Absolute Mode = iota
	// Relative compares |smoothed - stable| / stable against it.
	Relative
)

// Config tunes a Detector. Zero fields take the listed defaults.
type Config struct {
	Alpha       float64       // EMA weight of the newest sample (default 0.2)
	Mode        Mode          // deviation mode (default Absolute)
	Threshold   float64       // strict: deviation must exceed this to fire
	Interval    time.Duration // sample cadence (default 100ms)
	Cooldown    time.Duration // pause after an event (default 500ms)
	StableFloor float64       // lower bound on the reference (default 100)
}

func (c Config) withDefaults() Config {
	if c.Alpha == 0 {
		c.Alpha = 0.2
	}
	if c.Interval == 0 {
		c.Interval = 100 * time.Millisecond
	}
	if c.Cooldown == 0 {
		c.Cooldown = 500 * time.Millisecond
	}
	if c.StableFloor == 0 {
		c.StableFloor = 100
	}
	return c
}

// Event is one detected state change.
type Event struct {
	Deviation float64 // |smoothed - stable| in signal units
	Ratio     float64 // Deviation relative to the stable reference
	Value     float64 // smoothed signal at the moment of emission
}

// Detector holds the smoothing state for one running signal. It is
// owned by a single sampling loop and never shared.
type Detector struct {
	cfg        Config
	quietLimit int

	primed   bool
	smoothed float64
	stable   float64
	quiet    int
}

// New creates a detector. The quiet-period limit derives from the
// sample interval so roughly one second of quiet re-baselines the
// reference regardless of cadence.
func New(cfg Config) *Detector {
	cfg = cfg.withDefaults()
	limit := int(time.Second / cfg.Interval)
	if limit < 1 {
		limit = 1
	}
	return &Detector{cfg: cfg, quietLimit: limit}
}

// floor keeps the reference away from zero so relative mode never
// divides by it.
func (d *Detector) floor(v float64) float64 {
	if v < d.cfg.StableFloor {
		return d.cfg.StableFloor
	}
	return v
}

// Sample feeds one raw value through the filter. The first sample
// initializes the state and never emits. Every later sample either
// emits an event or advances the quiet counter; there is no third
// outcome.
func (d *Detector) Sample(x float64) (Event, bool) {
	if !d.primed {
		d.smoothed = x
		d.stable = d.floor(x)
		d.primed = true
		return Event{}, false
	}

	a := d.cfg.Alpha
	d.smoothed = a*x + (1-a)*d.smoothed

	dev := math.Abs(d.smoothed - d.stable)
	ratio := dev / d.stable

	trigger := dev
	if d.cfg.Mode == Relative {
		trigger = ratio
	}

	if trigger > d.cfg.Threshold {
		ev := Event{Deviation: dev, Ratio: ratio, Value: d.smoothed}
		d.stable = d.floor(d.smoothed)
		d.quiet = 0
		return ev, true
	}

	d.quiet++
	if d.quiet > d.quietLimit {
		// Quiet long enough: track the drift without firing.
		d.stable = d.floor(d.smoothed)
		d.quiet = 0
	}
	return Event{}, false
}

// Smoothed exposes the current filter output, mainly for display.
func (d *Detector) Smoothed() float64 { return d.smoothed }

// Monitor samples read at the configured interval until ctx is done,
// calling emit for each detected change. A failed read is an
// unavailable sample and is skipped; the loop never terminates over a
// single bad reading. After an event the loop pauses for the cooldown
// so one transition cannot fire on every intermediate EMA step.
func (d *Detector) Monitor(ctx context.Context, read func() (float64, error), emit func(Event)) error {
	for {
		x, err := read()
		if err == nil {
			if ev, fired := d.Sample(x); fired {
				emit(ev)
				if !sleep(ctx, d.cfg.Cooldown) {
					return ctx.Err()
				}
			}
		}
		if !sleep(ctx, d.cfg.Interval) {
			return ctx.Err()
		}
	}
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
