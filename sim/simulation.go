// Package sim assembles a project from its configuration and runs it, either
// on its own clock or paced by an embedding controller.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/mangrove/config"
	"github.com/pthm-cable/mangrove/population"
	"github.com/pthm-cable/mangrove/resources"
	"github.com/pthm-cable/mangrove/telemetry"
	"github.com/pthm-cable/mangrove/timeloop"
)

// ErrNoExternalStepper is returned by the embedding API before
// CreateExternalTimeStepper was called.
var ErrNoExternalStepper = errors.New("sim: no external time stepper")

// Options configures a Simulation beyond its project configuration.
type Options struct {
	Seed      int64               // overrides population.seed when non-zero
	LogStats  bool                // log step and perf stats via slog
	OutputDir string              // overrides output.dir when non-empty
	Registry  *resources.Registry // nil uses resources.DefaultRegistry
}

// Simulation is one project: its resource models, population, clock and
// telemetry.
type Simulation struct {
	cfg  *config.Config
	opts Options

	aboveground resources.Model
	belowground resources.Model
	pop         *population.Population

	stepper  *timeloop.Stepper
	external bool

	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	statsCallback func(telemetry.StepStats)
	last          telemetry.StepStats
}

// NewSimulation builds the resource models, the population and the
// self-driving clock described by cfg. Misconfigured models fail here,
// before any step runs.
func NewSimulation(cfg *config.Config, opts Options) (*Simulation, error) {
	c := *cfg
	if opts.Seed != 0 {
		c.Population.Seed = opts.Seed
	}
	if opts.OutputDir != "" {
		c.Output.Dir = opts.OutputDir
	}
	reg := opts.Registry
	if reg == nil {
		reg = resources.DefaultRegistry()
	}

	ag, err := reg.New(&c.Resources.Aboveground)
	if err != nil {
		return nil, fmt.Errorf("aboveground resources: %w", err)
	}
	bg, err := reg.New(&c.Resources.Belowground)
	if err != nil {
		return nil, fmt.Errorf("belowground resources: %w", err)
	}

	pop, err := population.New(&c)
	if err != nil {
		return nil, fmt.Errorf("population: %w", err)
	}

	s := &Simulation{
		cfg:         &c,
		opts:        opts,
		aboveground: ag,
		belowground: bg,
		pop:         pop,
		collector:   telemetry.NewCollector(),
		perf:        telemetry.NewPerfCollector(c.Telemetry.PerfWindow),
	}

	s.stepper, err = s.newStepper(timeloop.SelfDriving, c.TimeLoop.TStart)
	if err != nil {
		return nil, err
	}

	s.output, err = telemetry.NewOutputManager(c.Output.Dir)
	if err != nil {
		return nil, err
	}
	if err := s.output.WriteConfig(&c); err != nil {
		s.output.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	return s, nil
}

func (s *Simulation) newStepper(mode timeloop.Mode, t0 float64) (*timeloop.Stepper, error) {
	tl := s.cfg.TimeLoop
	return timeloop.New(s.aboveground, s.belowground, s.pop, timeloop.Options{
		Mode:     mode,
		TStart:   t0,
		TEnd:     tl.TEnd,
		StepAG:   tl.DeltaTAG,
		StepBG:   tl.DeltaTBG,
		Observer: s,
		Timer:    s.perf,
	})
}

// Run drives the project from t_start to t_end.
func (s *Simulation) Run() error {
	if s.external {
		return fmt.Errorf("%w: Run with an external time stepper", timeloop.ErrWrongMode)
	}

	start := time.Now()
	slog.Info("simulation started",
		"t_start", s.stepper.Time(),
		"t_end", s.cfg.TimeLoop.TEnd,
		"aboveground", s.aboveground.Name(),
		"belowground", s.belowground.Name(),
		"plants", s.pop.Len(),
	)

	for !s.stepper.Done() {
		if err := s.timedStep(s.stepper.Next); err != nil {
			return err
		}
	}

	births, deaths := s.collector.Totals()
	slog.Info("simulation finished",
		"steps", s.stepper.Steps(),
		"t_end", s.stepper.Time(),
		"plants", s.pop.Len(),
		"births", births,
		"deaths", deaths,
		"duration", time.Since(start).String(),
	)
	return nil
}

// timedStep runs one step under the perf collector and flushes perf stats
// every perf window.
func (s *Simulation) timedStep(step func() error) error {
	s.perf.StartStep()
	err := step()
	s.perf.EndStep()
	if err != nil {
		return err
	}

	n := s.stepper.Steps()
	if n%max(s.cfg.Telemetry.PerfWindow, 1) != 0 {
		return nil
	}
	perfStats := s.perf.Stats()
	if s.opts.LogStats {
		perfStats.LogStats()
	}
	if err := s.output.WritePerf(perfStats, n); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	return nil
}

// OnStep records telemetry for a completed step.
func (s *Simulation) OnStep(r timeloop.StepReport) error {
	stats := s.collector.Flush(r)
	s.last = stats

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.opts.LogStats && r.Index%max(s.cfg.Telemetry.LogEvery, 1) == 0 {
		stats.LogStats()
	}

	if err := s.output.WriteStep(stats); err != nil {
		slog.Error("failed to write step stats", "error", err)
	}
	if every := s.cfg.Output.PlantEvery; every > 0 && r.Index%every == 0 {
		if err := s.output.WritePlants(s.collector.Plants(r)); err != nil {
			slog.Error("failed to write plants", "error", err)
		}
	}
	return nil
}

// SetStatsCallback registers fn to receive the stats of every step.
func (s *Simulation) SetStatsCallback(fn func(telemetry.StepStats)) {
	s.statsCallback = fn
}

// Stats returns the stats of the last completed step.
func (s *Simulation) Stats() telemetry.StepStats {
	return s.last
}

// Time returns the simulation clock.
func (s *Simulation) Time() float64 {
	return s.stepper.Time()
}

// Population returns the plant population.
func (s *Simulation) Population() *population.Population {
	return s.pop
}

// Config returns the effective project configuration.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// Close flushes and closes run output.
func (s *Simulation) Close() error {
	return s.output.Close()
}
