package sim

import (
	"fmt"

	"github.com/pthm-cable/mangrove/timeloop"
)

// CreateExternalTimeStepper replaces the project clock with one paced by
// the caller, starting at t0. Step sizes start at the configured cadences.
func (s *Simulation) CreateExternalTimeStepper(t0 float64) error {
	st, err := s.newStepper(timeloop.External, t0)
	if err != nil {
		return err
	}
	s.stepper = st
	s.external = true
	return nil
}

func (s *Simulation) externalStepper() (*timeloop.Stepper, error) {
	if !s.external {
		return nil, ErrNoExternalStepper
	}
	return s.stepper, nil
}

// SetSteps sets the above- and below-ground cadences of the external stepper.
func (s *Simulation) SetSteps(stepAG, stepBG float64) error {
	st, err := s.externalStepper()
	if err != nil {
		return err
	}
	return st.SetSteps(stepAG, stepBG)
}

// SetResources injects resource factors for the next step, one per living
// plant in population order. A nil slice leaves that model in charge.
func (s *Simulation) SetResources(ag, bg []float64) error {
	st, err := s.externalStepper()
	if err != nil {
		return err
	}
	return st.SetResources(ag, bg)
}

// GetResources returns the factors used in the last step.
func (s *Simulation) GetResources() (ag, bg []float64, err error) {
	st, err := s.externalStepper()
	if err != nil {
		return nil, nil, err
	}
	ag, bg = st.Resources()
	return ag, bg, nil
}

// PropagateModel advances the project by one step ending at tEnd.
func (s *Simulation) PropagateModel(tEnd float64) error {
	st, err := s.externalStepper()
	if err != nil {
		return err
	}
	if err := s.timedStep(func() error { return st.Step(tEnd) }); err != nil {
		return fmt.Errorf("propagating to %g: %w", tEnd, err)
	}
	return nil
}
