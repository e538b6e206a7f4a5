// Package zone classifies raw sensor keys into semantic zones and
// reduces per-zone reading sets to a single representative value.
package zone

import "github.com/kim-el/kimtemp/internal/smc"

// Zone is a semantic grouping of sensors by physical subsystem.
type Zone int

const (
	Unclassified Zone = iota
	CPU
	GPU
	Memory
	Storage
	Battery
)

var zoneNames = map[Zone]string{
	Unclassified: "unclassified",
	CPU:          "cpu",
	GPU:          "gpu",
	Memory:       "memory",
	Storage:      "storage",
	Battery:      "battery",
}

func (z Zone) String() string {
	if n, ok := zoneNames[z]; ok {
		return n
	}
	return "unclassified"
}

// ParseZone maps a config name back to a Zone.
func ParseZone(name string) (Zone, bool) {
	for z, n := range zoneNames {
		if n == name {
			return z, true
		}
	}
	return Unclassified, false
}

// Rule maps a key prefix to a zone. Rules are evaluated top to bottom;
// the first match wins, so more specific families must come first.
type Rule struct {
	Prefix string
	Zone   Zone
}

// DefaultRules is the Apple Silicon thermal key table, ordered
// CPU > GPU > Memory > Storage > Battery.
func DefaultRules() []Rule {
	return []Rule{
		{"Tp", CPU},
		{"Te", CPU},
		{"Tc", CPU},
		{"TC", CPU},
		{"Tg", GPU},
		{"TG", GPU},
		{"TM", Memory},
		{"TS", Storage},
		{"TB", Battery},
	}
}

// Classifier assigns keys to zones by ordered prefix match.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier over an ordered rule table.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the zone for a key. Every key maps to exactly one
// zone; keys matching no rule fall through to Unclassified.
func (c *Classifier) Classify(k smc.Key) Zone {
	for _, r := range c.rules {
		if k.HasPrefix(r.Prefix) {
			return r.Zone
		}
	}
	return Unclassified
}
