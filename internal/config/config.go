// Package config loads the per-device tables the engine runs on: the
// key classification rules, the power rails subtracted in the residual
// model, and the loop tuning. The defaults are the M4-verified tables;
// other hardware revisions override them with a YAML file rather than
// editing code.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kim-el/kimtemp/internal/power"
	"github.com/kim-el/kimtemp/internal/smc"
	"github.com/kim-el/kimtemp/internal/zone"
)

// Config mirrors the YAML file layout.
type Config struct {
	Zones     []ZoneRule    `yaml:"zones"`
	TempRange RangeConfig   `yaml:"temp_range"`
	Power     PowerConfig   `yaml:"power"`
	Sampler   SamplerConfig `yaml:"sampler"`
	Detect    DetectConfig  `yaml:"detect"`
}

// ZoneRule is one prefix classification rule. Order in the file is
// match priority.
type ZoneRule struct {
	Prefix string `yaml:"prefix"`
	Zone   string `yaml:"zone"`
}

// RangeConfig bounds plausible temperatures (exclusive).
type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// PowerConfig names the rails of the decomposition. A revision lacking
// a rail (no radio sensor, say) simply omits it; the key then reads 0
// and drops out of the subtraction.
type PowerConfig struct {
	Total   string       `yaml:"total"`
	Battery string       `yaml:"battery"`
	Rails   []RailConfig `yaml:"rails"`
}

// RailConfig is one named component rail.
type RailConfig struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

// SamplerConfig tunes the dual-cadence loop.
type SamplerConfig struct {
	IntervalMS    int `yaml:"interval_ms"`
	Cadence       int `yaml:"cadence"`
	SlowTimeoutMS int `yaml:"slow_timeout_ms"`
}

// DetectConfig tunes the change detector.
type DetectConfig struct {
	Alpha       float64 `yaml:"alpha"`
	CooldownMS  int     `yaml:"cooldown_ms"`
	StableFloor float64 `yaml:"stable_floor"`
}

// Default returns the embedded M4 tables.
func Default() Config {
	return Config{
		Zones: []ZoneRule{
			{Prefix: "Tp", Zone: "cpu"},
			{Prefix: "Te", Zone: "cpu"},
			{Prefix: "Tc", Zone: "cpu"},
			{Prefix: "TC", Zone: "cpu"},
			{Prefix: "Tg", Zone: "gpu"},
			{Prefix: "TG", Zone: "gpu"},
			{Prefix: "TM", Zone: "memory"},
			{Prefix: "TS", Zone: "storage"},
			{Prefix: "TB", Zone: "battery"},
		},
		TempRange: RangeConfig{Min: 0, Max: 150},
		Power: PowerConfig{
			Total:   "PSTR",
			Battery: "PPBR",
			Rails: []RailConfig{
				{Name: "cpu", Key: "PP0b"},
				{Name: "gpu", Key: "PP1b"},
				{Name: "ane", Key: "PP7b"},
				{Name: "wifi", Key: "PMVC"},
				{Name: "ssd", Key: "PZC1"},
				{Name: "bt", Key: "PP9b"},
				{Name: "mem", Key: "PHPM"},
			},
		},
		Sampler: SamplerConfig{IntervalMS: 1000, Cadence: 5, SlowTimeoutMS: 2000},
		Detect:  DetectConfig{Alpha: 0.2, CooldownMS: 500, StableFloor: 100},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged. Fields present in the file replace the default;
// absent fields keep it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	for _, r := range c.Zones {
		if r.Prefix == "" || len(r.Prefix) > 4 {
			return fmt.Errorf("zone prefix %q must be 1-4 bytes", r.Prefix)
		}
		if _, ok := zone.ParseZone(r.Zone); !ok {
			return fmt.Errorf("unknown zone %q", r.Zone)
		}
	}
	if c.TempRange.Max <= c.TempRange.Min {
		return fmt.Errorf("temp_range max must exceed min")
	}
	if _, err := smc.ParseKey(c.Power.Total); err != nil {
		return err
	}
	if _, err := smc.ParseKey(c.Power.Battery); err != nil {
		return err
	}
	for _, r := range c.Power.Rails {
		if r.Name == "" {
			return fmt.Errorf("rail with key %q has no name", r.Key)
		}
		if _, err := smc.ParseKey(r.Key); err != nil {
			return err
		}
	}
	if c.Sampler.IntervalMS <= 0 {
		return fmt.Errorf("sampler interval_ms must be positive")
	}
	if c.Sampler.Cadence < 1 {
		return fmt.Errorf("sampler cadence must be at least 1")
	}
	if c.Detect.Alpha <= 0 || c.Detect.Alpha > 1 {
		return fmt.Errorf("detect alpha must be in (0, 1]")
	}
	return nil
}

// Rules converts the classification table to domain form.
func (c Config) Rules() []zone.Rule {
	rules := make([]zone.Rule, 0, len(c.Zones))
	for _, r := range c.Zones {
		z, ok := zone.ParseZone(r.Zone)
		if !ok {
			continue
		}
		rules = append(rules, zone.Rule{Prefix: r.Prefix, Zone: z})
	}
	return rules
}

// Range converts the temperature gate to domain form.
func (c Config) Range() zone.Range {
	return zone.Range{Min: c.TempRange.Min, Max: c.TempRange.Max}
}

// Model builds the residual decomposition from the rail table.
func (c Config) Model() power.Model {
	m := power.Model{Total: smc.MustKey(c.Power.Total)}
	for _, r := range c.Power.Rails {
		m.Components = append(m.Components, power.Rail{Name: r.Name, Key: smc.MustKey(r.Key)})
	}
	return m
}

// BatteryKey is the physical battery rail, reported alongside the
// decomposition but never subtracted in it.
func (c Config) BatteryKey() smc.Key {
	return smc.MustKey(c.Power.Battery)
}

// Interval is the fast-channel tick period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Sampler.IntervalMS) * time.Millisecond
}

// SlowTimeout bounds the wait for a stalled slow-channel collection.
func (c Config) SlowTimeout() time.Duration {
	return time.Duration(c.Sampler.SlowTimeoutMS) * time.Millisecond
}

// Cooldown is the post-event pause of the change detector.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.Detect.CooldownMS) * time.Millisecond
}
