// Package population manages the plant population of a project: initial
// placement, growth, mortality and recruitment. Plants are ECS entities.
package population

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/mangrove/components"
	"github.com/pthm-cable/mangrove/config"
	"github.com/pthm-cable/mangrove/resources"
)

// Group is a set of plants sharing species and placement rules.
type Group struct {
	Name         string
	Species      int
	Distribution config.DistributionConfig
}

// Population holds all living plants.
type Population struct {
	world *ecs.World
	rng   *rand.Rand

	plantMapper *ecs.Map3[components.Position, components.Geometry, components.Plant]
	plantFilter *ecs.Filter3[components.Position, components.Geometry, components.Plant]

	species []config.SpeciesConfig
	groups  []Group

	nextID uint32
	alive  int
}

// New creates the population described by cfg and places the initial plants.
func New(cfg *config.Config) (*Population, error) {
	world := ecs.NewWorld()

	p := &Population{
		world:       world,
		rng:         rand.New(rand.NewSource(cfg.Population.Seed)),
		plantMapper: ecs.NewMap3[components.Position, components.Geometry, components.Plant](world),
		plantFilter: ecs.NewFilter3[components.Position, components.Geometry, components.Plant](world),
		species:     cfg.Species,
	}

	for _, g := range cfg.Population.Groups {
		idx, ok := cfg.Derived.SpeciesIndex[g.Species]
		if !ok {
			return nil, fmt.Errorf("group %s: unknown species %q", g.Name, g.Species)
		}
		p.groups = append(p.groups, Group{Name: g.Name, Species: idx, Distribution: g.Distribution})
	}

	for gi, g := range p.groups {
		switch g.Distribution.Type {
		case "grid":
			p.spawnLattice(gi)
		default:
			p.spawnRandom(gi, g.Distribution.NIndividuals)
		}
		slog.Info("initiated plant group",
			"group", g.Name,
			"species", p.species[g.Species].Name,
			"distribution", g.Distribution.Type,
			"plants", g.Distribution.NIndividuals,
		)
	}

	return p, nil
}

// Spawn creates a plant of the given group at (x, y) with its species'
// initial geometry.
func (p *Population) Spawn(group int, x, y float64) ecs.Entity {
	g := &p.groups[group]
	sp := &p.species[g.Species]

	pos := components.Position{X: x, Y: y}
	geo := GeometryFor(sp, sp.Geometry.RStem)
	plant := components.Plant{
		ID:         p.nextID,
		Group:      uint16(group),
		Species:    uint16(g.Species),
		Alive:      true,
		ResourceAG: 1,
		ResourceBG: 1,
	}
	p.nextID++
	p.alive++

	return p.plantMapper.NewEntity(&pos, &geo, &plant)
}

// spawnRandom places n plants uniformly inside the group's domain, never on its boundary.
func (p *Population) spawnRandom(group, n int) {
	d := p.groups[group].Distribution.Domain
	for i := 0; i < n; i++ {
		x := p.uniformOpen(d.X1, d.X2)
		y := p.uniformOpen(d.Y1, d.Y2)
		p.Spawn(group, x, y)
	}
}

// uniformOpen draws from the open interval (lo, hi).
func (p *Population) uniformOpen(lo, hi float64) float64 {
	for {
		v := lo + p.rng.Float64()*(hi-lo)
		if v > lo && v < hi {
			return v
		}
	}
}

// spawnLattice places the group's plants at the cell centres of a regular
// lattice whose aspect follows the domain.
func (p *Population) spawnLattice(group int) {
	dist := p.groups[group].Distribution
	n := dist.NIndividuals
	if n == 0 {
		return
	}
	d := dist.Domain
	w, h := d.X2-d.X1, d.Y2-d.Y1
	cols := int(math.Ceil(math.Sqrt(float64(n) * w / h)))
	cols = max(cols, 1)
	rows := (n + cols - 1) / cols
	dx, dy := w/float64(cols), h/float64(rows)

	for i := 0; i < n; i++ {
		c, r := i%cols, i/cols
		p.Spawn(group, d.X1+dx*(float64(c)+0.5), d.Y1+dy*(float64(r)+0.5))
	}
}

// Len returns the number of living plants.
func (p *Population) Len() int {
	return p.alive
}

// Snapshot returns copies of all living plants ordered by ID.
func (p *Population) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, p.alive)
	query := p.plantFilter.Query()
	for query.Next() {
		pos, geo, plant := query.Get()
		if !plant.Alive {
			continue
		}
		out = append(out, Snapshot{Entity: query.Entity(), Pos: *pos, Geo: *geo, Plant: *plant})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plant.ID < out[j].Plant.ID })
	return out
}

// Plants returns the living plants in registration order.
func (p *Population) Plants() []resources.Plant {
	snaps := p.Snapshot()
	out := make([]resources.Plant, len(snaps))
	for i, s := range snaps {
		out[i] = s
	}
	return out
}

// Grow applies growth and mortality to plants using the resource factors
// ag[i] and bg[i], then recruits new plants. plants must come from Plants
// or Snapshot of this population.
func (p *Population) Grow(w resources.Window, plants []resources.Plant, ag, bg []float64) (births, deaths int, err error) {
	if len(ag) != len(plants) || len(bg) != len(plants) {
		return 0, 0, fmt.Errorf("population: %d plants but %d above-ground and %d below-ground factors",
			len(plants), len(ag), len(bg))
	}
	dt := w.Duration()

	var dead []ecs.Entity
	for i, pl := range plants {
		s, ok := pl.(Snapshot)
		if !ok {
			return 0, 0, fmt.Errorf("population: plant %d (%T) does not belong to this population", i, pl)
		}
		if !p.world.Alive(s.Entity) {
			return 0, 0, fmt.Errorf("population: plant %d (id %d) is no longer alive", i, s.Plant.ID)
		}

		_, geo, plant := p.plantMapper.Get(s.Entity)
		sp := &p.species[plant.Species]

		next, growth, alive := Grow(sp, *geo, ag[i], bg[i], dt)
		plant.Age += dt
		plant.ResourceAG = ag[i]
		plant.ResourceBG = bg[i]
		plant.Growth = growth
		*geo = next

		if !alive {
			plant.Alive = false
			dead = append(dead, s.Entity)
		}
	}

	for _, e := range dead {
		p.world.RemoveEntity(e)
		p.alive--
	}

	for gi, g := range p.groups {
		n := g.Distribution.NRecruitmentPerStep
		p.spawnRandom(gi, n)
		births += n
	}

	return births, len(dead), nil
}
