package resources

import (
	"gopkg.in/yaml.v3"
)

// Default is the neutral concept: every plant receives a factor of 1, so
// growth is not limited by this resource.
type Default struct {
	name string
}

// NewDefault creates the neutral concept.
func NewDefault() *Default {
	return &Default{name: "Default"}
}

// ParseDefault creates the neutral concept from a configuration node; only
// "type" is read.
func ParseDefault(node *yaml.Node) (Model, error) {
	p, err := ParseParameters(node, "type")
	if err != nil {
		return nil, err
	}
	name, err := p.String("type")
	if err != nil {
		return nil, err
	}
	return &Default{name: name}, nil
}

// Name returns the concept type.
func (m *Default) Name() string {
	return m.name
}

// PrepareNextTimeStep starts a step for [tIni, tEnd].
func (m *Default) PrepareNextTimeStep(tIni, tEnd float64) *Step {
	return newStep(m, tIni, tEnd)
}

// AddPlant registers p without any domain check.
func (m *Default) AddPlant(step *Step, p Plant) error {
	if err := step.check(m); err != nil {
		return err
	}
	x, y := p.Position()
	step.add(x, y, 0, p.Geometry().Height)
	return nil
}

// CalculateResources returns 1 for every registered plant.
func (m *Default) CalculateResources(step *Step) (Result, error) {
	if err := step.check(m); err != nil {
		return Result{}, err
	}
	step.done = true

	n := step.Len()
	res := Result{Window: step.Window, Values: make([]float64, n), Cells: make([]int, n)}
	for i := range res.Values {
		res.Values[i] = 1
	}
	return res, nil
}
