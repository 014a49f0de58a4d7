package sim

import "errors"

var (
	// ErrInvalidParameter is returned when a parameter value is outside its domain.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnknownParameter is returned for a name that was never defined.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrPopulationCap is the reason recorded when a spawn would exceed the world cap.
	ErrPopulationCap = errors.New("population cap reached")
)
