package resources

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// occupancy is the boolean cell×plant relation of one step.
type occupancy struct {
	cells     int
	present   []bool    // plant-major: present[p*cells+c]
	counts    []int     // occupied cells per plant
	contested []int     // occupants per cell
	radius    []float64 // effective radius per plant
	floor     float64   // smallest plant-to-cell distance in the step
}

// row returns the occupancy of plant p over all cells.
func (o *occupancy) row(p int) []bool {
	return o.present[p*o.cells : (p+1)*o.cells]
}

// computeOccupancy resolves which cells lie inside each plant's effective
// radius, max(step.Radius[p], floor), where floor is the smallest distance
// between any plant and any cell centre in the step. step must hold at
// least one plant.
func computeOccupancy(g *Grid, step *Step, workers int) (*occupancy, error) {
	n := step.Len()
	cells := g.Cells()
	if n*cells < parallelThreshold {
		workers = 1
	}
	xs, ys := g.flat()

	nearest := make([]float64, n)
	parallelFor(n, workers, func(lo, hi int) {
		for p := lo; p < hi; p++ {
			px, py := step.X[p], step.Y[p]
			best := math.Inf(1)
			for c := 0; c < cells; c++ {
				dx, dy := xs[c]-px, ys[c]-py
				if d2 := dx*dx + dy*dy; d2 < best {
					best = d2
				}
			}
			nearest[p] = math.Sqrt(best)
		}
	})

	o := &occupancy{
		cells:     cells,
		present:   make([]bool, n*cells),
		counts:    make([]int, n),
		contested: make([]int, cells),
		radius:    make([]float64, n),
		floor:     floats.Min(nearest),
	}
	for p, r := range step.Radius {
		o.radius[p] = max(r, o.floor)
	}

	parallelFor(n, workers, func(lo, hi int) {
		for p := lo; p < hi; p++ {
			px, py, r := step.X[p], step.Y[p], o.radius[p]
			row := o.row(p)
			count := 0
			for c := range row {
				dx, dy := xs[c]-px, ys[c]-py
				if math.Sqrt(dx*dx+dy*dy) <= r {
					row[c] = true
					count++
				}
			}
			o.counts[p] = count
		}
	})

	for p, count := range o.counts {
		if count == 0 {
			return nil, &ZeroOccupancyError{Index: p, Window: step.Window, Radius: o.radius[p]}
		}
	}

	parallelFor(cells, workers, func(lo, hi int) {
		for c := lo; c < hi; c++ {
			k := 0
			for p := 0; p < n; p++ {
				if o.present[p*cells+c] {
					k++
				}
			}
			o.contested[c] = k
		}
	})

	return o, nil
}
