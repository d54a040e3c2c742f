package resources

import (
	"fmt"
	"log/slog"
	"math"

	"gopkg.in/yaml.v3"
)

// gridModel is the state shared by grid-based concepts: the parsed domain,
// the grid built from it and the worker budget.
type gridModel struct {
	name    string
	grid    *Grid
	workers int
}

func newGridModel(name string, d Domain, workers int) (gridModel, error) {
	if workers < 0 {
		return gridModel{}, fmt.Errorf("%w: workers must not be negative, got %d", ErrConfiguration, workers)
	}
	grid, err := MakeGrid(d)
	if err != nil {
		return gridModel{}, err
	}
	return gridModel{name: name, grid: grid, workers: workerCount(workers)}, nil
}

// parseGridModel reads the domain keys and the optional "workers" key.
func parseGridModel(node *yaml.Node) (gridModel, error) {
	d, p, err := ParseDomain(node)
	if err != nil {
		return gridModel{}, err
	}
	name, err := p.String("type")
	if err != nil {
		return gridModel{}, err
	}
	workers, err := p.IntOr("workers", 0)
	if err != nil {
		return gridModel{}, err
	}
	m, err := newGridModel(name, d, workers)
	if err != nil {
		return gridModel{}, err
	}
	slog.Info("initiated resource concept",
		"type", name,
		"x_resolution", d.XResolution,
		"y_resolution", d.YResolution,
		"mesh_size", m.grid.MeshSize,
	)
	return m, nil
}

// Name returns the concept type.
func (m *gridModel) Name() string {
	return m.name
}

// Grid returns the concept's grid.
func (m *gridModel) Grid() *Grid {
	return m.grid
}

// register validates one plant and appends it to step.
func (m *gridModel) register(step *Step, x, y, r, h float64) error {
	index := step.Len()
	if !m.grid.Domain.Contains(x, y) {
		return &DomainViolationError{Index: index, X: x, Y: y, Domain: m.grid.Domain}
	}
	if r < m.grid.MeshSize/math.Sqrt2 {
		step.CoarseMesh++
		slog.Warn("mesh too coarse for resource concept",
			"type", m.name,
			"plant", index,
			"radius", r,
			"mesh_size", m.grid.MeshSize,
		)
	}
	step.add(x, y, r, h)
	return nil
}
