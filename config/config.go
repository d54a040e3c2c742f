// Package config provides project configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/mangrove/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig marks a project that cannot be run.
var ErrInvalidConfig = errors.New("config: invalid project")

// Config holds all project parameters.
type Config struct {
	Resources  ResourcesConfig  `yaml:"resources"`
	TimeLoop   TimeLoopConfig   `yaml:"time_loop"`
	Population PopulationConfig `yaml:"population"`
	Species    []SpeciesConfig  `yaml:"species"`
	Output     OutputConfig     `yaml:"output"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ResourcesConfig holds the resource concept nodes. Each node is parsed by
// the concept selected by its "type" key, so its layout is concept-specific.
type ResourcesConfig struct {
	Aboveground yaml.Node `yaml:"aboveground"`
	Belowground yaml.Node `yaml:"belowground"`
}

// TimeLoopConfig holds simulation time parameters, all in seconds.
type TimeLoopConfig struct {
	TStart   float64 `yaml:"t_start"`
	TEnd     float64 `yaml:"t_end"`
	DeltaTAG float64 `yaml:"delta_t_ag"` // above-ground resource cadence
	DeltaTBG float64 `yaml:"delta_t_bg"` // below-ground resource cadence (0 = delta_t_ag)
}

// PopulationConfig holds plant groups and the RNG seed.
type PopulationConfig struct {
	Seed   int64         `yaml:"seed"`
	Groups []GroupConfig `yaml:"groups"`
}

// GroupConfig defines one plant group.
type GroupConfig struct {
	Name         string             `yaml:"name"`
	Species      string             `yaml:"species"`
	Distribution DistributionConfig `yaml:"distribution"`
}

// DistributionConfig controls initial placement and recruitment.
type DistributionConfig struct {
	Type                string       `yaml:"type"` // "random" or "grid"
	Domain              DomainConfig `yaml:"domain"`
	NIndividuals        int          `yaml:"n_individuals"`
	NRecruitmentPerStep int          `yaml:"n_recruitment_per_step"`
}

// DomainConfig is a rectangular area.
type DomainConfig struct {
	X1 float64 `yaml:"x_1"`
	X2 float64 `yaml:"x_2"`
	Y1 float64 `yaml:"y_1"`
	Y2 float64 `yaml:"y_2"`
}

// SpeciesConfig holds species-specific parameters for the Kiwi growth model.
type SpeciesConfig struct {
	Name     string              `yaml:"name"`
	Geometry components.Geometry `yaml:"geometry"` // initial geometry

	MaxHeight         float64 `yaml:"max_height"` // cm
	MaxDBH            float64 `yaml:"max_dbh"`    // cm
	MaxGrowth         float64 `yaml:"max_growth"` // cm per year
	B2                float64 `yaml:"b2"`
	B3                float64 `yaml:"b3"`
	MortalityConstant float64 `yaml:"mortality_constant"`
	AZOIScaling       float64 `yaml:"a_zoi_scaling"`
}

// OutputConfig controls CSV output.
type OutputConfig struct {
	Dir        string `yaml:"dir"`         // empty = no output
	PlantEvery int    `yaml:"plant_every"` // write plants.csv every N steps (0 = never)
}

// TelemetryConfig holds logging cadence parameters.
type TelemetryConfig struct {
	LogEvery   int `yaml:"log_every"`   // log step stats every N steps
	PerfWindow int `yaml:"perf_window"` // steps averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]int // name -> index into Species
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML merged over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	builtin := append([]SpeciesConfig(nil), cfg.Species...)

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.Species = mergeSpecies(builtin, cfg.Species)

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeSpecies returns the built-in species with same-named entries from
// user replaced and new ones appended.
func mergeSpecies(builtin, user []SpeciesConfig) []SpeciesConfig {
	out := append([]SpeciesConfig(nil), builtin...)
	for _, sp := range user {
		replaced := false
		for i := range out {
			if out[i].Name == sp.Name {
				out[i] = sp
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, sp)
		}
	}
	return out
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.TimeLoop.DeltaTBG == 0 {
		c.TimeLoop.DeltaTBG = c.TimeLoop.DeltaTAG
	}
	if c.Telemetry.LogEvery < 1 {
		c.Telemetry.LogEvery = 1
	}

	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	for i, sp := range c.Species {
		c.Derived.SpeciesIndex[sp.Name] = i
	}
}

// Validate checks the time loop and population before any step runs.
// Resource nodes are validated by the concepts that parse them.
func (c *Config) Validate() error {
	tl := c.TimeLoop
	if !(tl.TEnd > tl.TStart) {
		return fmt.Errorf("%w: t_end (%g) must be greater than t_start (%g)", ErrInvalidConfig, tl.TEnd, tl.TStart)
	}
	if tl.DeltaTAG <= 0 || tl.DeltaTBG <= 0 {
		return fmt.Errorf("%w: delta_t_ag and delta_t_bg must be positive", ErrInvalidConfig)
	}

	for i, g := range c.Population.Groups {
		if _, ok := c.Derived.SpeciesIndex[g.Species]; !ok {
			return fmt.Errorf("%w: group %d (%s): unknown species %q", ErrInvalidConfig, i, g.Name, g.Species)
		}
		d := g.Distribution.Domain
		if !(d.X1 < d.X2) || !(d.Y1 < d.Y2) {
			return fmt.Errorf("%w: group %d (%s): degenerate distribution domain", ErrInvalidConfig, i, g.Name)
		}
		if g.Distribution.NIndividuals < 0 || g.Distribution.NRecruitmentPerStep < 0 {
			return fmt.Errorf("%w: group %d (%s): negative plant count", ErrInvalidConfig, i, g.Name)
		}
		switch g.Distribution.Type {
		case "random", "grid":
		default:
			return fmt.Errorf("%w: group %d (%s): unknown distribution %q", ErrInvalidConfig, i, g.Name, g.Distribution.Type)
		}
	}

	for _, sp := range c.Species {
		if sp.MaxDBH <= 0 || sp.MaxHeight <= 0 {
			return fmt.Errorf("%w: species %q: max_dbh and max_height must be positive", ErrInvalidConfig, sp.Name)
		}
		if !sp.Geometry.Valid() {
			return fmt.Errorf("%w: species %q: invalid initial geometry", ErrInvalidConfig, sp.Name)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
