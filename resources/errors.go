package resources

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid or incomplete concept parameters.
	ErrConfiguration = errors.New("resources: configuration error")
	// ErrUnknownModel is returned by Registry.New for an unregistered type.
	ErrUnknownModel = errors.New("resources: unknown concept type")
	// ErrForeignStep is returned when a step is handed to a model that did not prepare it.
	ErrForeignStep = errors.New("resources: step was prepared by another model")
	// ErrStepConsumed is returned when a step is reused after CalculateResources.
	ErrStepConsumed = errors.New("resources: step already calculated")
)

// MissingParameterError names the first required key absent from a concept node.
type MissingParameterError struct {
	Key string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("resources: missing required parameter %q", e.Key)
}

// Is makes a missing parameter match ErrConfiguration.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrConfiguration
}

// ParameterTypeError reports a value that cannot be coerced to the wanted type.
type ParameterTypeError struct {
	Key   string
	Value string
	Want  string
}

func (e *ParameterTypeError) Error() string {
	return fmt.Sprintf("resources: parameter %q: cannot use %q as %s", e.Key, e.Value, e.Want)
}

// Is makes a type error match ErrConfiguration.
func (e *ParameterTypeError) Is(target error) bool {
	return target == ErrConfiguration
}

// DomainViolationError reports a plant registered on or outside the domain boundary.
type DomainViolationError struct {
	Index  int // position the plant would have had in the step
	X, Y   float64
	Domain Domain
}

func (e *DomainViolationError) Error() string {
	d := e.Domain
	return fmt.Sprintf("resources: plant %d at (%g, %g) lies outside domain (%g..%g, %g..%g); check domains in project file",
		e.Index, e.X, e.Y, d.X1, d.X2, d.Y1, d.Y2)
}

// ZeroOccupancyError reports a plant whose zone of influence covers no grid cell.
type ZeroOccupancyError struct {
	Index  int
	Window Window
	Radius float64 // effective radius used for occupancy
}

func (e *ZeroOccupancyError) Error() string {
	return fmt.Sprintf("resources: plant %d occupies no grid cell (effective radius %g) in step [%g, %g]; refine the mesh or increase the plant radius",
		e.Index, e.Radius, e.Window.TIni, e.Window.TEnd)
}
