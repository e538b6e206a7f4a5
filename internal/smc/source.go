package smc

import "errors"

// ErrNotFound reports a key that does not resolve on this hardware.
// Callers treat it as "no value", never as fatal.
var ErrNotFound = errors.New("smc: key not found")

// Source is a handle to the raw sensor registers. Implementations must
// tolerate unknown keys by returning ErrNotFound.
type Source interface {
	// Keys enumerates every key the hardware exposes.
	Keys() ([]Key, error)
	// ReadFloat reads a scalar register. Power rails report watts in
	// single precision, matching the hardware's native width.
	ReadFloat(k Key) (float32, error)
	// ReadTemperature reads a thermal register in degrees Celsius.
	ReadTemperature(k Key) (float64, error)
	// Close releases the handle.
	Close() error
}

// FloatOrZero reads k and substitutes 0 when the key is unavailable.
// This is the documented default for power rails feeding the
// subtraction model: an absent component contributes nothing.
func FloatOrZero(src Source, k Key) float32 {
	v, err := src.ReadFloat(k)
	if err != nil {
		return 0
	}
	return v
}
