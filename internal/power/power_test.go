package power

import (
	"testing"

	"github.com/kim-el/kimtemp/internal/smc"
)

func TestResidual(t *testing.T) {
	got := Residual(12.5, 3.0, 2.0, 1.0, 0.5)
	if got != 6.0 {
		t.Errorf("Residual = %f, want 6.0", got)
	}
}

func TestResidualClampsAtZero(t *testing.T) {
	// Components summing past the total are measurement skew, not
	// negative power.
	got := Residual(12.5, 3.0, 2.0, 1.0, 0.5, 6.5)
	if got != 0.0 {
		t.Errorf("Residual = %f, want 0.0", got)
	}
}

func TestResidualNonNegative(t *testing.T) {
	cases := []struct {
		total      float32
		components []float32
	}{
		{0, nil},
		{0, []float32{5}},
		{-3, []float32{1, 2}},
		{100, []float32{50, 60}},
	}
	for _, c := range cases {
		if got := Residual(c.total, c.components...); got < 0 {
			t.Errorf("Residual(%v, %v) = %f, want >= 0", c.total, c.components, got)
		}
	}
}

func TestResidualNoComponents(t *testing.T) {
	if got := Residual(7.25); got != 7.25 {
		t.Errorf("Residual with no components = %f, want 7.25", got)
	}
}

func TestModelMeasure(t *testing.T) {
	src := smc.NewMemSource()
	src.SetFloat(smc.MustKey("PSTR"), 12.5)
	src.SetFloat(smc.MustKey("PP0b"), 3.0)
	src.SetFloat(smc.MustKey("PP1b"), 2.0)
	// PHPM deliberately absent: unavailable rails contribute 0.

	m := Model{
		Total: smc.MustKey("PSTR"),
		Components: []Rail{
			{Name: "cpu", Key: smc.MustKey("PP0b")},
			{Name: "gpu", Key: smc.MustKey("PP1b")},
			{Name: "mem", Key: smc.MustKey("PHPM")},
		},
	}

	got := m.Measure(src)
	if got.Total != 12.5 {
		t.Errorf("Total = %f, want 12.5", got.Total)
	}
	if got.Rails["mem"] != 0 {
		t.Errorf("absent rail = %f, want 0", got.Rails["mem"])
	}
	if got.Residual != 7.5 {
		t.Errorf("Residual = %f, want 7.5", got.Residual)
	}
}
