package resources

import (
	"gopkg.in/yaml.v3"
)

// AsymmetricZOI is the above-ground Zone-of-Influence concept: every grid
// cell inside a plant's crown radius goes entirely to its tallest occupant.
// A plant's factor is the fraction of its occupied cells it wins.
type AsymmetricZOI struct {
	gridModel
}

// NewAsymmetricZOI creates the concept over d. workers == 0 uses one worker per CPU.
func NewAsymmetricZOI(d Domain, workers int) (*AsymmetricZOI, error) {
	base, err := newGridModel("AsymmetricZOI", d, workers)
	if err != nil {
		return nil, err
	}
	return &AsymmetricZOI{gridModel: base}, nil
}

// ParseAsymmetricZOI creates the concept from a configuration node.
func ParseAsymmetricZOI(node *yaml.Node) (Model, error) {
	base, err := parseGridModel(node)
	if err != nil {
		return nil, err
	}
	return &AsymmetricZOI{gridModel: base}, nil
}

// PrepareNextTimeStep starts a step for [tIni, tEnd].
func (m *AsymmetricZOI) PrepareNextTimeStep(tIni, tEnd float64) *Step {
	return newStep(m, tIni, tEnd)
}

// AddPlant registers p's position, crown radius and height.
func (m *AsymmetricZOI) AddPlant(step *Step, p Plant) error {
	if err := step.check(m); err != nil {
		return err
	}
	x, y := p.Position()
	geo := p.Geometry()
	return m.register(step, x, y, geo.RCrown, geo.Height)
}

// CalculateResources awards each occupied cell to its tallest occupant; on
// equal heights the plant registered first wins.
func (m *AsymmetricZOI) CalculateResources(step *Step) (Result, error) {
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

	workers := m.workers
	if n*occ.cells < parallelThreshold {
		workers = 1
	}
	winner := make([]int, occ.cells)
	parallelFor(occ.cells, workers, func(lo, hi int) {
		for c := lo; c < hi; c++ {
			best := -1
			for p := 0; p < n; p++ {
				if occ.present[p*occ.cells+c] && (best < 0 || step.Height[p] > step.Height[best]) {
					best = p
				}
			}
			winner[c] = best
		}
	})

	wins := make([]int, n)
	for _, w := range winner {
		if w >= 0 {
			wins[w]++
		}
	}
	for p := range res.Values {
		res.Values[p] = float64(wins[p]) / float64(occ.counts[p])
	}
	copy(res.Cells, occ.counts)

	return res, nil
}
