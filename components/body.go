package components

import "math"

// Geometry holds the measures resource concepts read from a plant.
// Radii and height are in metres.
type Geometry struct {
	Height float64 `yaml:"height"`
	RStem  float64 `yaml:"r_stem"`
	RCrown float64 `yaml:"r_crown"`
	RRoot  float64 `yaml:"r_root"`
	RAG    float64 `yaml:"r_ag"`
	RBG    float64 `yaml:"r_bg"`
}

// DBH returns the stem diameter at breast height in centimetres.
func (g Geometry) DBH() float64 {
	return g.RStem * 2 * 100
}

// Valid reports whether all measures are finite and non-negative.
func (g Geometry) Valid() bool {
	for _, v := range [...]float64{g.Height, g.RStem, g.RCrown, g.RRoot, g.RAG, g.RBG} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
