package timeloop

import (
	"fmt"

	"github.com/pthm-cable/mangrove/resources"
)

// identified is implemented by plants with a stable identity across steps.
type identified interface {
	ID() uint32
}

// channel drives one resource model on its own cadence and remembers the
// factor each plant last received.
type channel struct {
	name   string
	model  resources.Model
	step   float64
	phases channelPhases

	last    float64
	updated bool
	cache   map[uint32]float64

	injected []float64
}

// channelPhases names the timer phases of one model.
type channelPhases struct {
	prepare, register, calculate string
}

// resolution is the outcome of resolving a channel for one window. It is
// applied by commit once the step has succeeded.
type resolution struct {
	values   []float64
	result   *resources.Result
	fresh    bool // values replace the cache
	consumed bool // values came from an injection
}

func newChannel(name string, m resources.Model, step float64, phases channelPhases) *channel {
	return &channel{name: name, model: m, step: step, phases: phases, cache: make(map[uint32]float64)}
}

func (c *channel) reset() {
	c.updated = false
	c.last = 0
	c.injected = nil
	clear(c.cache)
}

func (c *channel) inject(values []float64) {
	if values == nil {
		c.injected = nil
		return
	}
	c.injected = append([]float64(nil), values...)
}

// due reports whether the model must be recomputed for a step ending at tEnd.
func (c *channel) due(tEnd float64, final bool) bool {
	if !c.updated || final {
		return true
	}
	return tEnd-c.last >= c.step*(1-1e-9)
}

// resolve returns one factor per plant for window w without changing the
// channel. Injected values win over computation; a model that is not due
// reuses each plant's previous factor, and plants it has not seen yet
// receive 1.
func (c *channel) resolve(w resources.Window, plants []resources.Plant, final bool, timer PhaseTimer) (resolution, error) {
	if c.injected != nil {
		return resolution{values: c.injected, fresh: true, consumed: true}, nil
	}

	if !c.due(w.TEnd, final) {
		values := make([]float64, len(plants))
		for i, p := range plants {
			v, ok := c.cache[key(p, i)]
			if !ok {
				v = 1
			}
			values[i] = v
		}
		return resolution{values: values}, nil
	}

	timer.StartPhase(c.phases.prepare)
	step := c.model.PrepareNextTimeStep(w.TIni, w.TEnd)

	timer.StartPhase(c.phases.register)
	for _, p := range plants {
		if err := c.model.AddPlant(step, p); err != nil {
			return resolution{}, fmt.Errorf("%s resources (%s): %w", c.name, c.model.Name(), err)
		}
	}

	timer.StartPhase(c.phases.calculate)
	res, err := c.model.CalculateResources(step)
	if err != nil {
		return resolution{}, fmt.Errorf("%s resources (%s): %w", c.name, c.model.Name(), err)
	}
	if len(res.Values) != len(plants) {
		return resolution{}, fmt.Errorf("%s resources (%s): %d values for %d plants",
			c.name, c.model.Name(), len(res.Values), len(plants))
	}

	return resolution{values: res.Values, result: &res, fresh: true}, nil
}

// commit applies a resolution produced by resolve for the same window.
func (c *channel) commit(w resources.Window, plants []resources.Plant, r resolution) {
	if r.consumed {
		c.injected = nil
	}
	if !r.fresh {
		return
	}
	clear(c.cache)
	for i, p := range plants {
		c.cache[key(p, i)] = r.values[i]
	}
	c.last = w.TEnd
	c.updated = true
}

// key identifies a plant across steps. Plants without an ID are matched by
// their position in the population order.
func key(p resources.Plant, i int) uint32 {
	if id, ok := p.(identified); ok {
		return id.ID()
	}
	return uint32(i)
}
