package zone

// Range bounds plausible readings for a zone. Both bounds are
// exclusive: absent sensors report sentinel values (-1, overflow junk)
// that must never reach an average.
type Range struct {
	Min float64
	Max float64
}

// DefaultTempRange gates thermal readings. Anything at or below 0 or
// at or above 150 is sensor noise, not a die temperature.
var DefaultTempRange = Range{Min: 0, Max: 150}

// Contains reports whether v lies strictly inside the range.
func (r Range) Contains(v float64) bool {
	return v > r.Min && v < r.Max
}

// Aggregate filters readings to the valid range and returns their
// arithmetic mean. The second return is false when nothing passes the
// gate; the caller decides what sentinel to substitute, the aggregator
// never guesses.
func Aggregate(readings []float64, r Range) (float64, bool) {
	var sum float64
	var n int
	for _, v := range readings {
		if r.Contains(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
