package resources

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/mangrove/components"
)

type testPlant struct {
	x, y float64
	geo  components.Geometry
}

func (p testPlant) Position() (float64, float64) { return p.x, p.y }
func (p testPlant) Geometry() components.Geometry { return p.geo }

func rootPlant(x, y, r float64) testPlant {
	return testPlant{x: x, y: y, geo: components.Geometry{RRoot: r, RCrown: r, Height: 1}}
}

var tenByTen = Domain{X1: 0, X2: 10, Y1: 0, Y2: 10, XResolution: 10, YResolution: 10}

func newSymmetric(t *testing.T, d Domain, workers int) *SymmetricZOI {
	t.Helper()
	m, err := NewSymmetricZOI(d, workers)
	if err != nil {
		t.Fatalf("NewSymmetricZOI: %v", err)
	}
	return m
}

// calculate registers plants in order and returns the result.
func calculate(t *testing.T, m Model, plants ...Plant) Result {
	t.Helper()
	step := m.PrepareNextTimeStep(0, 1)
	for i, p := range plants {
		if err := m.AddPlant(step, p); err != nil {
			t.Fatalf("AddPlant(%d): %v", i, err)
		}
	}
	res, err := m.CalculateResources(step)
	if err != nil {
		t.Fatalf("CalculateResources: %v", err)
	}
	return res
}

func TestSymmetricZOISingleOccupant(t *testing.T) {
	m := newSymmetric(t, tenByTen, 1)
	res := calculate(t, m, rootPlant(5, 5, 2))

	if len(res.Values) != 1 {
		t.Fatalf("expected 1 value, got %d", len(res.Values))
	}
	if res.Values[0] != 1 {
		t.Errorf("sole occupant should receive 1.0, got %v", res.Values[0])
	}
	if res.Cells[0] == 0 {
		t.Error("expected occupied cells")
	}
}

func TestSymmetricZOIEqualSplitUnderFullOverlap(t *testing.T) {
	for _, n := range []int{2, 3, 5} {
		m := newSymmetric(t, tenByTen, 1)
		plants := make([]Plant, n)
		for i := range plants {
			plants[i] = rootPlant(5, 5, 1.5)
		}
		res := calculate(t, m, plants...)

		for i, v := range res.Values {
			if math.Abs(v-1/float64(n)) > 1e-12 {
				t.Errorf("n=%d plant %d: expected %v, got %v", n, i, 1/float64(n), v)
			}
		}
	}
}

func TestSymmetricZOITwoNeighbours(t *testing.T) {
	m := newSymmetric(t, tenByTen, 1)
	res := calculate(t, m, rootPlant(5, 5, 1), rootPlant(5.2, 5, 1))

	a, b := res.Values[0], res.Values[1]
	if math.Abs(a-b) >= 1e-9 {
		t.Errorf("expected equal shares by symmetry, got %v and %v", a, b)
	}
	// Both footprints cover the same four cells, so every cell is contested.
	if a < 0.5-1e-12 || a > 1 {
		t.Errorf("expected share in [0.5, 1], got %v", a)
	}
	if res.Cells[0] != 4 || res.Cells[1] != 4 {
		t.Errorf("expected 4 occupied cells each, got %v", res.Cells)
	}
}

func TestSymmetricZOITwoPartlyOverlappingPlants(t *testing.T) {
	m := newSymmetric(t, tenByTen, 1)
	// Each footprint covers a 3x3 block of cells; the blocks share one column.
	res := calculate(t, m, rootPlant(4.5, 5.5, 1.5), rootPlant(6.5, 5.5, 1.5))

	if res.Cells[0] != 9 || res.Cells[1] != 9 {
		t.Fatalf("expected 9 occupied cells each, got %v", res.Cells)
	}
	a, b := res.Values[0], res.Values[1]
	if math.Abs(a-b) >= 1e-12 {
		t.Errorf("expected equal shares by symmetry, got %v and %v", a, b)
	}
	if a <= 0.5 || a >= 1 {
		t.Errorf("expected share strictly in (0.5, 1), got %v", a)
	}
	// 6 exclusive cells plus 3 cells split in half.
	if want := (6 + 3*0.5) / 9; math.Abs(a-want) > 1e-12 {
		t.Errorf("share = %v, want %v", a, want)
	}
}

func TestSymmetricZOIPartialOverlapConserves(t *testing.T) {
	m := newSymmetric(t, tenByTen, 1)
	plants := []testPlant{rootPlant(3, 5, 2), rootPlant(6, 5, 2), rootPlant(5, 7.5, 1.2)}
	res := calculate(t, m, plants[0], plants[1], plants[2])

	// Count distinct occupied cells independently.
	occupied := 0
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			x, y := m.Grid().Centre(i, j)
			for _, p := range plants {
				if math.Hypot(x-p.x, y-p.y) <= p.geo.RRoot {
					occupied++
					break
				}
			}
		}
	}

	if got := res.OccupiedCells(); math.Abs(got-float64(occupied)) > 1e-9 {
		t.Errorf("conservation: sum(value*cells) = %v, want %d occupied cells", got, occupied)
	}
	for i, v := range res.Values {
		if v <= 0 || v >= 1 {
			t.Errorf("plant %d overlaps a neighbour, expected share in (0, 1), got %v", i, v)
		}
	}
}

func TestSymmetricZOIPreservesRegistrationOrder(t *testing.T) {
	alone := rootPlant(2, 2, 1)
	pairA := rootPlant(7, 7, 1)
	pairB := rootPlant(7, 7, 1)

	m := newSymmetric(t, tenByTen, 1)
	res := calculate(t, m, pairA, alone, pairB)

	want := []float64{0.5, 1, 0.5}
	for i := range want {
		if math.Abs(res.Values[i]-want[i]) > 1e-12 {
			t.Errorf("value %d = %v, want %v", i, res.Values[i], want[i])
		}
	}
}

func TestSymmetricZOIRejectsPlantsOutsideDomain(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
	}{
		{"on x_1", 0, 5},
		{"on x_2", 10, 5},
		{"on y_1", 5, 0},
		{"on y_2", 5, 10},
		{"left of domain", -1, 5},
		{"above domain", 5, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newSymmetric(t, tenByTen, 1)
			step := m.PrepareNextTimeStep(0, 1)
			if err := m.AddPlant(step, rootPlant(5, 5, 1)); err != nil {
				t.Fatalf("AddPlant: %v", err)
			}

			err := m.AddPlant(step, rootPlant(tt.x, tt.y, 1))
			var dv *DomainViolationError
			if !errors.As(err, &dv) {
				t.Fatalf("expected DomainViolationError, got %v", err)
			}
			if dv.Index != 1 {
				t.Errorf("expected index 1, got %d", dv.Index)
			}
			if step.Len() != 1 {
				t.Errorf("expected earlier plant to stay registered, got %d plants", step.Len())
			}
		})
	}
}

func TestSymmetricZOIZeroOccupancy(t *testing.T) {
	m := newSymmetric(t, tenByTen, 1)
	step := m.PrepareNextTimeStep(10, 20)

	// The first plant sits on a cell centre, so the distance floor is zero
	// and cannot rescue the second, undersized plant between centres.
	for _, p := range []Plant{rootPlant(5.5, 5.5, 1), rootPlant(2, 2, 0.1)} {
		if err := m.AddPlant(step, p); err != nil {
			t.Fatalf("AddPlant: %v", err)
		}
	}
	if step.CoarseMesh != 1 {
		t.Errorf("expected one coarse mesh warning, got %d", step.CoarseMesh)
	}

	_, err := m.CalculateResources(step)
	var zero *ZeroOccupancyError
	if !errors.As(err, &zero) {
		t.Fatalf("expected ZeroOccupancyError, got %v", err)
	}
	if zero.Index != 1 {
		t.Errorf("expected plant 1, got %d", zero.Index)
	}
	if zero.Window != (Window{TIni: 10, TEnd: 20}) {
		t.Errorf("expected window [10, 20], got %+v", zero.Window)
	}
}

func TestSymmetricZOIRadiusFloor(t *testing.T) {
	m := newSymmetric(t, tenByTen, 1)
	// Alone and undersized: the floor lifts the radius to the distance of
	// the nearest centre (2.5, 2.5), so the plant claims exactly that cell.
	res := calculate(t, m, rootPlant(2.1, 2.2, 0.1))

	if res.Cells[0] != 1 {
		t.Errorf("expected 1 cell after flooring, got %d", res.Cells[0])
	}
	if res.Values[0] != 1 {
		t.Errorf("expected 1.0, got %v", res.Values[0])
	}
}

func TestSymmetricZOIEmptyStep(t *testing.T) {
	m := newSymmetric(t, tenByTen, 1)
	res := calculate(t, m)
	if len(res.Values) != 0 {
		t.Errorf("expected no values, got %v", res.Values)
	}
}

func TestSymmetricZOIStepOwnership(t *testing.T) {
	a := newSymmetric(t, tenByTen, 1)
	b := newSymmetric(t, tenByTen, 1)

	step := a.PrepareNextTimeStep(0, 1)
	if err := b.AddPlant(step, rootPlant(5, 5, 1)); !errors.Is(err, ErrForeignStep) {
		t.Errorf("expected ErrForeignStep, got %v", err)
	}
	if _, err := a.CalculateResources(nil); !errors.Is(err, ErrForeignStep) {
		t.Errorf("expected ErrForeignStep for nil step, got %v", err)
	}

	if err := a.AddPlant(step, rootPlant(5, 5, 1)); err != nil {
		t.Fatalf("AddPlant: %v", err)
	}
	if _, err := a.CalculateResources(step); err != nil {
		t.Fatalf("CalculateResources: %v", err)
	}
	if err := a.AddPlant(step, rootPlant(5, 5, 1)); !errors.Is(err, ErrStepConsumed) {
		t.Errorf("expected ErrStepConsumed, got %v", err)
	}
	if _, err := a.CalculateResources(step); !errors.Is(err, ErrStepConsumed) {
		t.Errorf("expected ErrStepConsumed, got %v", err)
	}
}

func randomPlants(n int, seed int64) []Plant {
	rng := rand.New(rand.NewSource(seed))
	plants := make([]Plant, n)
	for i := range plants {
		plants[i] = rootPlant(0.5+rng.Float64()*9, 0.5+rng.Float64()*9, 0.5+rng.Float64()*2.5)
	}
	return plants
}

func TestSymmetricZOIParallelMatchesSequential(t *testing.T) {
	fine := Domain{X1: 0, X2: 10, Y1: 0, Y2: 10, XResolution: 100, YResolution: 100}
	plants := randomPlants(40, 7)

	seq := calculate(t, newSymmetric(t, fine, 1), plants...)
	par := calculate(t, newSymmetric(t, fine, 4), plants...)

	for i := range seq.Values {
		if seq.Values[i] != par.Values[i] || seq.Cells[i] != par.Cells[i] {
			t.Errorf("plant %d: sequential (%v, %d) != parallel (%v, %d)",
				i, seq.Values[i], seq.Cells[i], par.Values[i], par.Cells[i])
		}
	}

	occupied := 0
	g := newSymmetric(t, fine, 1).Grid()
	for i := 0; i < 100; i++ {
		for j := 0; j < 100; j++ {
			x, y := g.Centre(i, j)
			for _, p := range plants {
				px, py := p.Position()
				if math.Sqrt((x-px)*(x-px)+(y-py)*(y-py)) <= p.Geometry().RRoot {
					occupied++
					break
				}
			}
		}
	}
	if got := par.OccupiedCells(); math.Abs(got-float64(occupied)) > 1e-6 {
		t.Errorf("conservation: got %v, want %d", got, occupied)
	}
}

func BenchmarkSymmetricZOI(b *testing.B) {
	d := Domain{X1: 0, X2: 22, Y1: 0, Y2: 22, XResolution: 88, YResolution: 88}
	m, err := NewSymmetricZOI(d, 0)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	plants := make([]testPlant, 500)
	for i := range plants {
		plants[i] = rootPlant(0.1+rng.Float64()*21.8, 0.1+rng.Float64()*21.8, 0.3+rng.Float64())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		step := m.PrepareNextTimeStep(0, 1)
		for _, p := range plants {
			_ = m.AddPlant(step, p)
		}
		if _, err := m.CalculateResources(step); err != nil {
			b.Fatal(err)
		}
	}
}
