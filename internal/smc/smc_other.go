//go:build !darwin || !cgo

package smc

import "errors"

// Open fails on platforms without an SMC. The rest of the engine runs
// against any Source implementation, so tests and fakes are unaffected.
func Open() (Source, error) {
	return nil, errors.New("smc: hardware source only available on darwin")
}
