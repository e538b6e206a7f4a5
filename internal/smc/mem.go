package smc

import "sort"

// MemSource is an in-memory Source for tests and for exercising the
// pipeline on hardware without an SMC. Keys registered as floats and
// keys registered as temperatures live in separate families, mirroring
// the hardware's typed registers.
type MemSource struct {
	floats map[Key]float32
	temps  map[Key]float64
	closed bool
}

// NewMemSource creates an empty in-memory source.
func NewMemSource() *MemSource {
	return &MemSource{
		floats: make(map[Key]float32),
		temps:  make(map[Key]float64),
	}
}

// SetFloat registers or updates a scalar register.
func (m *MemSource) SetFloat(k Key, v float32) { m.floats[k] = v }

// SetTemp registers or updates a thermal register.
func (m *MemSource) SetTemp(k Key, v float64) { m.temps[k] = v }

// Delete removes a key entirely, simulating an absent sensor.
func (m *MemSource) Delete(k Key) {
	delete(m.floats, k)
	delete(m.temps, k)
}

// Keys returns all registered keys in byte order.
func (m *MemSource) Keys() ([]Key, error) {
	keys := make([]Key, 0, len(m.floats)+len(m.temps))
	for k := range m.floats {
		keys = append(keys, k)
	}
	for k := range m.temps {
		if _, dup := m.floats[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// ReadFloat returns the registered scalar value.
func (m *MemSource) ReadFloat(k Key) (float32, error) {
	v, ok := m.floats[k]
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

// ReadTemperature returns the registered thermal value.
func (m *MemSource) ReadTemperature(k Key) (float64, error) {
	v, ok := m.temps[k]
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

// Close marks the source closed.
func (m *MemSource) Close() error {
	m.closed = true
	return nil
}
