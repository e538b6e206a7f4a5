package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/kim-el/kimtemp/internal/history"
)

func TestSparkline(t *testing.T) {
	values := []float64{5, 8, 12, 18, 25, 30, 38, 45, 52}
	th := Thresholds{High: 40, Crit: 55, HasHigh: true, HasCrit: true}
	result := Sparkline(values, 20, 0, 60, th)
	if len(result) == 0 {
		t.Error("sparkline should not be empty")
	}
	t.Logf("Sparkline: %s", result)
}

func TestSparklineMinuteTicks(t *testing.T) {
	base := time.Date(2026, 8, 25, 14, 0, 50, 0, time.Local)
	var pts []history.Sample
	for i := 0; i < 20; i++ {
		pts = append(pts, history.Sample{
			Value: float64(40 + i%5),
			Time:  base.Add(time.Duration(i) * time.Second),
		})
	}

	th := Thresholds{High: 80, Crit: 100, HasHigh: true, HasCrit: true}
	result := SparklineSamples(pts, 20, 30, 55, th)
	if len(result) == 0 {
		t.Error("sparkline should not be empty")
	}
	if !strings.Contains(result, "│") {
		t.Error("expected minute tick mark in sparkline")
	}
	t.Logf("Sparkline with ticks: %s", result)
}

func TestThresholdColors(t *testing.T) {
	th := Thresholds{High: 40, Crit: 55, HasHigh: true, HasCrit: true}
	if th.Color(60) != "196" {
		t.Error("critical value should be red")
	}
	if th.Color(45) != "208" {
		t.Error("high value should be orange")
	}
	if th.Color(20) != "78" {
		t.Error("nominal value should be green")
	}
}

func TestEmptySparkline(t *testing.T) {
	result := SparklineSamples(nil, 10, 0, 60, Thresholds{})
	if !strings.Contains(result, "╌") {
		t.Error("empty series should render placeholder dashes")
	}
}
