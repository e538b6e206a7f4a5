// Package history keeps bounded in-memory series of telemetry samples,
// one ring per signal, with running min/peak/avg statistics.
package history

import (
	"math"
	"time"
)

// Sample is one recorded value.
type Sample struct {
	Value float64
	Time  time.Time
}

// Series is a ring buffer of samples for a single signal.
type Series struct {
	Samples []Sample
	Max     int // capacity
	Min     float64
	Peak    float64
}

// NewSeries creates a series with the given capacity.
func NewSeries(capacity int) *Series {
	return &Series{
		Samples: make([]Sample, 0, capacity),
		Max:     capacity,
		Min:     math.MaxFloat64,
		Peak:    -math.MaxFloat64,
	}
}

// Push appends a sample, evicting the oldest when full.
func (s *Series) Push(value float64, t time.Time) {
	p := Sample{Value: value, Time: t}
	if len(s.Samples) >= s.Max {
		copy(s.Samples, s.Samples[1:])
		s.Samples[len(s.Samples)-1] = p
	} else {
		s.Samples = append(s.Samples, p)
	}

	if value < s.Min {
		s.Min = value
	}
	if value > s.Peak {
		s.Peak = value
	}
}

// Last returns the most recent value, or 0 if empty.
func (s *Series) Last() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	return s.Samples[len(s.Samples)-1].Value
}

// Avg returns the mean over all stored samples.
func (s *Series) Avg() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range s.Samples {
		sum += p.Value
	}
	return sum / float64(len(s.Samples))
}

// Window returns the last n values, oldest first.
func (s *Series) Window(n int) []float64 {
	if n <= 0 || len(s.Samples) == 0 {
		return nil
	}
	start := len(s.Samples) - n
	if start < 0 {
		start = 0
	}
	vals := make([]float64, 0, n)
	for _, p := range s.Samples[start:] {
		vals = append(vals, p.Value)
	}
	return vals
}

// WindowSamples returns the last n samples with their timestamps.
func (s *Series) WindowSamples(n int) []Sample {
	if n <= 0 || len(s.Samples) == 0 {
		return nil
	}
	start := len(s.Samples) - n
	if start < 0 {
		start = 0
	}
	out := make([]Sample, len(s.Samples[start:]))
	copy(out, s.Samples[start:])
	return out
}

// Set holds the series for every tracked signal.
type Set struct {
	Data     map[string]*Series
	Capacity int
}

// NewSet creates a set with the given per-signal capacity.
func NewSet(capacity int) *Set {
	return &Set{
		Data:     make(map[string]*Series),
		Capacity: capacity,
	}
}

// Record appends a sample under the given signal name.
func (s *Set) Record(name string, value float64, t time.Time) {
	b, ok := s.Data[name]
	if !ok {
		b = NewSeries(s.Capacity)
		s.Data[name] = b
	}
	b.Push(value, t)
}

// Series returns the series for a signal, or nil.
func (s *Set) Series(name string) *Series {
	return s.Data[name]
}
