// Package components defines ECS components for plant populations.
package components

// Plant holds per-individual state that is not geometry.
type Plant struct {
	ID      uint32
	Group   uint16 // index into the population's groups
	Species uint16 // index into the species table
	Age     float64 // seconds since establishment
	Alive   bool

	// Resource factors [0,1] used by the most recent growth update.
	ResourceAG float64
	ResourceBG float64

	// Diameter growth of the most recent step (cm per step).
	Growth float64
}
