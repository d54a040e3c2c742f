package resources

import (
	"gopkg.in/yaml.v3"
)

// SymmetricZOI is the below-ground Zone-of-Influence concept in which plants
// occupying the same grid cell share its resource equally (BETTINA geometry,
// Peters 2017). A plant's factor is its average share per occupied cell, so
// a plant alone on all its cells receives 1.
type SymmetricZOI struct {
	gridModel
}

// NewSymmetricZOI creates the concept over d. workers == 0 uses one worker per CPU.
func NewSymmetricZOI(d Domain, workers int) (*SymmetricZOI, error) {
	base, err := newGridModel("SymmetricZOI", d, workers)
	if err != nil {
		return nil, err
	}
	return &SymmetricZOI{gridModel: base}, nil
}

// ParseSymmetricZOI creates the concept from a configuration node.
func ParseSymmetricZOI(node *yaml.Node) (Model, error) {
	base, err := parseGridModel(node)
	if err != nil {
		return nil, err
	}
	return &SymmetricZOI{gridModel: base}, nil
}

// PrepareNextTimeStep starts a step for [tIni, tEnd].
func (m *SymmetricZOI) PrepareNextTimeStep(tIni, tEnd float64) *Step {
	return newStep(m, tIni, tEnd)
}

// AddPlant registers p's position and root radius.
func (m *SymmetricZOI) AddPlant(step *Step, p Plant) error {
	if err := step.check(m); err != nil {
		return err
	}
	x, y := p.Position()
	geo := p.Geometry()
	return m.register(step, x, y, geo.RRoot, geo.Height)
}

// CalculateResources splits every occupied cell equally among its occupants
// and averages each plant's shares over its occupied cells.
func (m *SymmetricZOI) CalculateResources(step *Step) (Result, error) {
	if err := step.check(m); err != nil {
		return Result{}, err
	}
	step.done = true

	n := step.Len()
	res := Result{Window: step.Window, Values: make([]float64, n), Cells: make([]int, n)}
	if n == 0 {
		return res, nil
	}

	occ, err := computeOccupancy(m.grid, step, m.workers)
	if err != nil {
		return Result{}, err
	}

	// Share of one occupant per cell (BETTINA "compete_below").
	share := make([]float64, occ.cells)
	for c, k := range occ.contested {
		if k > 0 {
			share[c] = 1 / float64(k)
		}
	}

	workers := m.workers
	if n*occ.cells < parallelThreshold {
		workers = 1
	}
	parallelFor(n, workers, func(lo, hi int) {
		for p := lo; p < hi; p++ {
			var wins float64
			for c, ok := range occ.row(p) {
				if ok {
					wins += share[c]
				}
			}
			res.Values[p] = wins / float64(occ.counts[p])
		}
	})
	copy(res.Cells, occ.counts)

	return res, nil
}
