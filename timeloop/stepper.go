// Package timeloop advances a plant population through time, driving the
// above- and below-ground resource models on their own cadences.
package timeloop

import (
	"fmt"
	"math"

	"github.com/pthm-cable/mangrove/resources"
)

// Mode selects who paces the stepper.
type Mode int

const (
	// SelfDriving steps from TStart to TEnd on its own via Run.
	SelfDriving Mode = iota
	// External performs one step per Step call, up to a caller-given end time.
	External
)

func (m Mode) String() string {
	switch m {
	case SelfDriving:
		return "self-driving"
	case External:
		return "external"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Phase names reported to a PhaseTimer. Each resource model reports its own
// prepare, register and calculate phases.
const (
	PhaseAGPrepare   = "ag_prepare"
	PhaseAGRegister  = "ag_register"
	PhaseAGCalculate = "ag_calculate"
	PhaseBGPrepare   = "bg_prepare"
	PhaseBGRegister  = "bg_register"
	PhaseBGCalculate = "bg_calculate"
	PhaseGrow        = "grow"
	PhaseTelemetry   = "telemetry"
)

// Phases lists the phases of one step in execution order.
var Phases = []string{
	PhaseAGPrepare, PhaseAGRegister, PhaseAGCalculate,
	PhaseBGPrepare, PhaseBGRegister, PhaseBGCalculate,
	PhaseGrow, PhaseTelemetry,
}

// Population is the plant collaborator driven by the stepper.
type Population interface {
	// Plants returns the living plants in registration order.
	Plants() []resources.Plant
	// Grow consumes one resource factor per plant, in the order of plants.
	Grow(w resources.Window, plants []resources.Plant, ag, bg []float64) (births, deaths int, err error)
}

// PhaseTimer is notified when a step enters a new phase.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Observer receives a report after every completed step.
type Observer interface {
	OnStep(r StepReport) error
}

// StepReport describes one completed step.
type StepReport struct {
	Index  int
	Window resources.Window

	// Plants as registered, before growth.
	Plants []resources.Plant
	AG, BG []float64

	// Model results, nil when the values were reused or injected.
	AGResult *resources.Result
	BGResult *resources.Result

	Births int
	Deaths int
	Alive  int
}

// Options configures a Stepper.
type Options struct {
	Mode   Mode
	TStart float64
	TEnd   float64 // ignored in External mode
	StepAG float64
	StepBG float64

	Observer Observer
	Timer    PhaseTimer
}

type noopTimer struct{}

func (noopTimer) StartPhase(string) {}

// Stepper owns the simulation clock.
type Stepper struct {
	opts Options
	pop  Population

	ag, bg *channel

	cursor float64
	steps  int

	lastAG, lastBG []float64
}

// New validates the models and step sizes and returns a stepper positioned at
// opts.TStart.
func New(ag, bg resources.Model, pop Population, opts Options) (*Stepper, error) {
	if ag == nil {
		return nil, fmt.Errorf("%w: aboveground", ErrMissingModel)
	}
	if bg == nil {
		return nil, fmt.Errorf("%w: belowground", ErrMissingModel)
	}
	if pop == nil {
		return nil, fmt.Errorf("timeloop: missing population")
	}
	if err := checkSteps(opts.StepAG, opts.StepBG); err != nil {
		return nil, err
	}
	if opts.Mode == SelfDriving && !(opts.TEnd > opts.TStart) {
		return nil, fmt.Errorf("%w: t_end (%g) must be greater than t_start (%g)", ErrInvalidStep, opts.TEnd, opts.TStart)
	}
	if opts.Timer == nil {
		opts.Timer = noopTimer{}
	}

	return &Stepper{
		opts:   opts,
		pop:    pop,
		ag:     newChannel("aboveground", ag, opts.StepAG, channelPhases{PhaseAGPrepare, PhaseAGRegister, PhaseAGCalculate}),
		bg:     newChannel("belowground", bg, opts.StepBG, channelPhases{PhaseBGPrepare, PhaseBGRegister, PhaseBGCalculate}),
		cursor: opts.TStart,
	}, nil
}

func checkSteps(stepAG, stepBG float64) error {
	for _, s := range []float64{stepAG, stepBG} {
		if !(s > 0) || math.IsInf(s, 1) {
			return fmt.Errorf("%w: %g", ErrInvalidStep, s)
		}
	}
	return nil
}

// Mode returns the stepper's mode.
func (s *Stepper) Mode() Mode { return s.opts.Mode }

// Time returns the current time cursor.
func (s *Stepper) Time() float64 { return s.cursor }

// Steps returns the number of completed steps.
func (s *Stepper) Steps() int { return s.steps }

// Done reports whether a self-driving stepper reached TEnd.
func (s *Stepper) Done() bool {
	return s.opts.Mode == SelfDriving && s.cursor >= s.opts.TEnd
}

// SetSteps changes the above- and below-ground cadences.
func (s *Stepper) SetSteps(stepAG, stepBG float64) error {
	if err := checkSteps(stepAG, stepBG); err != nil {
		return err
	}
	s.ag.step = stepAG
	s.bg.step = stepBG
	return nil
}

// SetResources injects resource factors for the next step, replacing the
// models' computation for that step. A nil slice leaves its model in charge.
// Non-nil slices must have one value per living plant.
func (s *Stepper) SetResources(ag, bg []float64) error {
	if s.opts.Mode != External {
		return fmt.Errorf("%w: SetResources in %s mode", ErrWrongMode, s.opts.Mode)
	}
	n := len(s.pop.Plants())
	if ag != nil && len(ag) != n {
		return fmt.Errorf("%w: %d aboveground values for %d plants", ErrResourceLength, len(ag), n)
	}
	if bg != nil && len(bg) != n {
		return fmt.Errorf("%w: %d belowground values for %d plants", ErrResourceLength, len(bg), n)
	}
	s.ag.inject(ag)
	s.bg.inject(bg)
	return nil
}

// Resources returns copies of the factors used in the last step.
func (s *Stepper) Resources() (ag, bg []float64) {
	return append([]float64(nil), s.lastAG...), append([]float64(nil), s.lastBG...)
}

// Reset moves the cursor to t0 and forgets all cached and injected resources.
func (s *Stepper) Reset(t0 float64) {
	s.cursor = t0
	s.ag.reset()
	s.bg.reset()
	s.lastAG, s.lastBG = nil, nil
}

// Step advances an external stepper by one step ending at tEnd.
func (s *Stepper) Step(tEnd float64) error {
	if s.opts.Mode != External {
		return fmt.Errorf("%w: Step in %s mode", ErrWrongMode, s.opts.Mode)
	}
	if !(tEnd > s.cursor) {
		return fmt.Errorf("%w: %g <= %g", ErrNonMonotonicTime, tEnd, s.cursor)
	}
	return s.advance(tEnd)
}

// Run steps a self-driving stepper until TEnd. The last step ends exactly at TEnd.
func (s *Stepper) Run() error {
	if s.opts.Mode != SelfDriving {
		return fmt.Errorf("%w: Run in %s mode", ErrWrongMode, s.opts.Mode)
	}
	for !s.Done() {
		if err := s.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Next performs one self-driving step. It is a no-op once TEnd is reached.
func (s *Stepper) Next() error {
	if s.opts.Mode != SelfDriving {
		return fmt.Errorf("%w: Next in %s mode", ErrWrongMode, s.opts.Mode)
	}
	if s.Done() {
		return nil
	}
	return s.advance(s.nextEnd())
}

// nextEnd returns the end of the next self-driving step.
func (s *Stepper) nextEnd() float64 {
	step := min(s.ag.step, s.bg.step)
	next := s.cursor + step
	// Snap to TEnd when accumulated rounding would leave a sliver step.
	if next >= s.opts.TEnd || s.opts.TEnd-next < step*1e-9 {
		return s.opts.TEnd
	}
	return next
}

func (s *Stepper) advance(tEnd float64) error {
	w := resources.Window{TIni: s.cursor, TEnd: tEnd}
	final := s.opts.Mode == SelfDriving && tEnd >= s.opts.TEnd
	plants := s.pop.Plants()

	// Channels are committed only once the whole step has succeeded.
	ag, err := s.ag.resolve(w, plants, final, s.opts.Timer)
	if err != nil {
		return fmt.Errorf("step [%g, %g]: %w", w.TIni, w.TEnd, err)
	}
	bg, err := s.bg.resolve(w, plants, final, s.opts.Timer)
	if err != nil {
		return fmt.Errorf("step [%g, %g]: %w", w.TIni, w.TEnd, err)
	}

	s.opts.Timer.StartPhase(PhaseGrow)
	births, deaths, err := s.pop.Grow(w, plants, ag.values, bg.values)
	if err != nil {
		return fmt.Errorf("step [%g, %g]: growing population: %w", w.TIni, w.TEnd, err)
	}

	s.ag.commit(w, plants, ag)
	s.bg.commit(w, plants, bg)
	s.cursor = tEnd
	s.lastAG, s.lastBG = ag.values, bg.values
	s.steps++

	if s.opts.Observer != nil {
		s.opts.Timer.StartPhase(PhaseTelemetry)
		report := StepReport{
			Index:    s.steps,
			Window:   w,
			Plants:   plants,
			AG:       ag.values,
			BG:       bg.values,
			AGResult: ag.result,
			BGResult: bg.result,
			Births:   births,
			Deaths:   deaths,
			Alive:    len(plants) - deaths + births,
		}
		if err := s.opts.Observer.OnStep(report); err != nil {
			return fmt.Errorf("step [%g, %g]: observer: %w", w.TIni, w.TEnd, err)
		}
	}
	return nil
}
