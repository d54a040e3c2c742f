package timeloop

import "errors"

var (
	// ErrMissingModel is returned by New when a resource model is nil.
	ErrMissingModel = errors.New("timeloop: missing resource model")
	// ErrInvalidStep is returned for non-positive step sizes or an empty time span.
	ErrInvalidStep = errors.New("timeloop: invalid step size")
	// ErrNonMonotonicTime is returned when a step would not advance time.
	ErrNonMonotonicTime = errors.New("timeloop: step end does not advance time")
	// ErrWrongMode is returned when an operation is not available in the stepper's mode.
	ErrWrongMode = errors.New("timeloop: operation not available in this mode")
	// ErrResourceLength is returned when injected resources do not match the population.
	ErrResourceLength = errors.New("timeloop: resource length does not match population")
)
