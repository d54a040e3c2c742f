package resources

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Domain is the rectangular model area and its discretisation.
type Domain struct {
	X1, X2, Y1, Y2 float64
	XResolution    int // cell count along x
	YResolution    int // cell count along y
}

// Validate checks bounds and resolutions.
func (d Domain) Validate() error {
	if d.XResolution <= 0 || d.YResolution <= 0 {
		return fmt.Errorf("%w: resolution must be positive, got %dx%d", ErrConfiguration, d.XResolution, d.YResolution)
	}
	if !(d.X1 < d.X2) {
		return fmt.Errorf("%w: x_1 (%g) must be less than x_2 (%g)", ErrConfiguration, d.X1, d.X2)
	}
	if !(d.Y1 < d.Y2) {
		return fmt.Errorf("%w: y_1 (%g) must be less than y_2 (%g)", ErrConfiguration, d.Y1, d.Y2)
	}
	return nil
}

// Contains reports whether (x, y) lies strictly inside the domain.
func (d Domain) Contains(x, y float64) bool {
	return d.X1 < x && x < d.X2 && d.Y1 < y && y < d.Y2
}

// CellSize returns the cell width along each axis.
func (d Domain) CellSize() (dx, dy float64) {
	return (d.X2 - d.X1) / float64(d.XResolution), (d.Y2 - d.Y1) / float64(d.YResolution)
}

// Grid holds cell-centre coordinates of a regular mesh over a Domain.
// X and Y have shape (XResolution, YResolution); X.At(i, j) is the x
// coordinate of cell (i, j). A Grid is never modified after MakeGrid.
type Grid struct {
	Domain   Domain
	X, Y     *mat.Dense
	MeshSize float64 // larger of the two cell widths
}

// MakeGrid builds the coordinate mesh for d.
func MakeGrid(d Domain) (*Grid, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	dx, dy := d.CellSize()
	xc := centres(d.X1, dx, d.XResolution)
	yc := centres(d.Y1, dy, d.YResolution)

	nx, ny := d.XResolution, d.YResolution
	gx := mat.NewDense(nx, ny, nil)
	gy := mat.NewDense(nx, ny, nil)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			gx.Set(i, j, xc[i])
			gy.Set(i, j, yc[j])
		}
	}

	return &Grid{
		Domain:   d,
		X:        gx,
		Y:        gy,
		MeshSize: max(dx, dy),
	}, nil
}

// centres returns n evenly spaced cell centres starting half a cell after lo.
func centres(lo, step float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo + step/2
		return out
	}
	return floats.Span(out, lo+step/2, lo+step*(float64(n)-0.5))
}

// Cells returns the number of grid cells.
func (g *Grid) Cells() int {
	return g.Domain.XResolution * g.Domain.YResolution
}

// Centre returns the coordinates of cell (i, j).
func (g *Grid) Centre(i, j int) (x, y float64) {
	return g.X.At(i, j), g.Y.At(i, j)
}

// flat returns the row-major backing arrays of X and Y; cell (i, j) is at
// index i*YResolution+j.
func (g *Grid) flat() (xs, ys []float64) {
	return g.X.RawMatrix().Data, g.Y.RawMatrix().Data
}
