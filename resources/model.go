// Package resources implements resource competition concepts: the shared
// model contract, the spatial grid and the Zone-of-Influence algorithms.
package resources

import (
	"github.com/pthm-cable/mangrove/components"
)

// Plant is the read-only view of an individual a concept registers.
type Plant interface {
	Position() (x, y float64)
	Geometry() components.Geometry
}

// Window is the time interval of one step, in seconds.
type Window struct {
	TIni, TEnd float64
}

// Duration returns TEnd - TIni.
func (w Window) Duration() float64 {
	return w.TEnd - w.TIni
}

// Step accumulates the plants registered for one resource calculation.
// It is created by PrepareNextTimeStep, filled by AddPlant and consumed by
// CalculateResources; a new step is needed for every time step.
type Step struct {
	Window Window

	// Parallel sequences in registration order.
	X, Y   []float64
	Radius []float64 // influence radius the owning concept reads
	Height []float64

	// Plants registered with a radius below the mesh resolution.
	CoarseMesh int

	owner Model
	done  bool
}

func newStep(owner Model, tIni, tEnd float64) *Step {
	return &Step{
		Window: Window{TIni: tIni, TEnd: tEnd},
		owner:  owner,
	}
}

// Len returns the number of registered plants.
func (s *Step) Len() int {
	return len(s.X)
}

func (s *Step) add(x, y, r, h float64) {
	s.X = append(s.X, x)
	s.Y = append(s.Y, y)
	s.Radius = append(s.Radius, r)
	s.Height = append(s.Height, h)
}

// check verifies that m may use the step.
func (s *Step) check(m Model) error {
	if s == nil || s.owner != m {
		return ErrForeignStep
	}
	if s.done {
		return ErrStepConsumed
	}
	return nil
}

// Result holds one resource factor per registered plant, in registration order.
type Result struct {
	Window Window
	Values []float64
	Cells  []int // occupied cells per plant; zero for concepts without a grid
}

// OccupiedCells returns the number of distinct cells weighted by plant
// value, i.e. sum(Values[i] * Cells[i]). For equal-sharing concepts this is
// the number of occupied cells in the step.
func (r Result) OccupiedCells() float64 {
	var total float64
	for i, v := range r.Values {
		total += v * float64(r.Cells[i])
	}
	return total
}

// Model is a resource competition concept.
//
// Per time step the caller prepares a step, registers every living plant
// and then calculates resources:
//
//	step := m.PrepareNextTimeStep(tIni, tEnd)
//	for _, p := range plants {
//		if err := m.AddPlant(step, p); err != nil { ... }
//	}
//	res, err := m.CalculateResources(step)
type Model interface {
	// Name returns the concept type as configured.
	Name() string
	// PrepareNextTimeStep starts a new step for the window [tIni, tEnd].
	PrepareNextTimeStep(tIni, tEnd float64) *Step
	// AddPlant registers p for the step.
	AddPlant(step *Step, p Plant) error
	// CalculateResources computes one factor per registered plant.
	CalculateResources(step *Step) (Result, error)
}
