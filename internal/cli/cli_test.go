package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/kim-el/kimtemp/internal/config"
	"github.com/kim-el/kimtemp/internal/sampler"
	"github.com/kim-el/kimtemp/internal/smc"
	"github.com/kim-el/kimtemp/internal/zone"
)

func cliSource() *smc.MemSource {
	src := smc.NewMemSource()
	src.SetFloat(smc.MustKey("PSTR"), 12.5)
	src.SetFloat(smc.MustKey("PP0b"), 3.25)
	src.SetTemp(smc.MustKey("Tp01"), 45.0)
	src.SetTemp(smc.MustKey("Tp02"), 55.0)
	src.SetTemp(smc.MustKey("Te03"), 1000.0)
	src.SetTemp(smc.MustKey("TB1T"), 30.0)
	return src
}

func TestZoneAverage(t *testing.T) {
	cfg := config.Default()
	src := cliSource()

	v, ok := zoneAverage(src, cfg, zone.CPU)
	if !ok || v != 50.0 {
		t.Errorf("cpu = (%f, %v), want (50.0, true)", v, ok)
	}

	if _, ok := zoneAverage(src, cfg, zone.GPU); ok {
		t.Error("gpu zone has no diodes, want absent")
	}

	v, ok = zoneAverage(src, cfg, zone.Battery)
	if !ok || v != 30.0 {
		t.Errorf("battery = (%f, %v), want (30.0, true)", v, ok)
	}
}

func TestFormatZone(t *testing.T) {
	if got := formatZone(50.25, true); got != "50.2" {
		t.Errorf("formatZone = %q", got)
	}
	if got := formatZone(0, false); got != "N/A" {
		t.Errorf("formatZone absent = %q, want N/A", got)
	}
}

func TestListPowerKeys(t *testing.T) {
	var sb strings.Builder
	if err := listPowerKeys(cliSource(), &sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.Contains(out, "PSTR") || !strings.Contains(out, "12.500") {
		t.Errorf("output missing total rail:\n%s", out)
	}
	if !strings.Contains(out, "PP0b") {
		t.Errorf("output missing cpu rail:\n%s", out)
	}
	if strings.Contains(out, "Tp01") {
		t.Errorf("temperature keys must not appear:\n%s", out)
	}
}

func TestBuildSamplerFlagOverrides(t *testing.T) {
	defer func() {
		streamIntervalFlag = ""
		streamCadenceFlag = 0
	}()

	streamIntervalFlag = "250ms"
	streamCadenceFlag = 10

	s, err := buildSampler(config.Default(), cliSource(), sampler.Config{FastOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatal("nil sampler")
	}

	streamIntervalFlag = "not-a-duration"
	if _, err := buildSampler(config.Default(), cliSource(), sampler.Config{}); err == nil {
		t.Error("bad interval must be rejected")
	}

	streamIntervalFlag = "-1s"
	if _, err := buildSampler(config.Default(), cliSource(), sampler.Config{}); err == nil {
		t.Error("non-positive interval must be rejected")
	}
}

func TestStreamFlagDefaultsFromConfig(t *testing.T) {
	cfg := config.Default()
	if cfg.Interval() != time.Second {
		t.Errorf("default interval = %v", cfg.Interval())
	}
	s, err := buildSampler(cfg, cliSource(), sampler.Config{FastOnly: true})
	if err != nil || s == nil {
		t.Fatalf("buildSampler: %v", err)
	}
}
