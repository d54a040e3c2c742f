package components

// Position is a plant's stem location in domain coordinates (metres).
type Position struct {
	X, Y float64
}
