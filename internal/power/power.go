// Package power infers subsystem power that no register reports
// directly. The platform exposes a trustworthy total rail and several
// component rails; the display's draw is the residual of total minus
// the sum of components.
package power

import "github.com/kim-el/kimtemp/internal/smc"

// Residual returns max(0, total - sum(components)). The subtraction
// stays in single precision, the width the rails arrive in. Small
// negative residuals happen because rails are sampled at slightly
// different instants; they are clamped, not reported as negative power.
func Residual(total float32, components ...float32) float32 {
	r := total
	for _, c := range components {
		r -= c
	}
	if r < 0 {
		return 0
	}
	return r
}

// Rail is one named component of the decomposition. The set of rails
// subtracted varies per hardware revision, so it is configuration, not
// a constant.
type Rail struct {
	Name string
	Key  smc.Key
}

// Model describes a full decomposition: the total rail and the ordered
// component rails subtracted from it.
type Model struct {
	Total      smc.Key
	Components []Rail
}

// Measurement is one sampled decomposition, in watts.
type Measurement struct {
	Total    float32
	Rails    map[string]float32
	Residual float32
}

// Measure samples every rail and computes the residual. An unresolvable
// rail reads as 0 and drops out of the subtraction; the model is
// agnostic to where each value comes from.
func (m Model) Measure(src smc.Source) Measurement {
	out := Measurement{
		Total: smc.FloatOrZero(src, m.Total),
		Rails: make(map[string]float32, len(m.Components)),
	}
	vals := make([]float32, 0, len(m.Components))
	for _, r := range m.Components {
		v := smc.FloatOrZero(src, r.Key)
		out.Rails[r.Name] = v
		vals = append(vals, v)
	}
	out.Residual = Residual(out.Total, vals...)
	return out
}
