package population

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/mangrove/components"
)

// Snapshot is a read-only copy of one living plant, taken at the start of a step.
type Snapshot struct {
	Entity ecs.Entity
	Pos    components.Position
	Geo    components.Geometry
	Plant  components.Plant
}

// ID returns the plant's stable identifier.
func (s Snapshot) ID() uint32 {
	return s.Plant.ID
}

// Position returns the stem location.
func (s Snapshot) Position() (x, y float64) {
	return s.Pos.X, s.Pos.Y
}

// Geometry returns the plant's geometry.
func (s Snapshot) Geometry() components.Geometry {
	return s.Geo
}
