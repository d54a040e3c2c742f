package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/mangrove/components"
	"github.com/pthm-cable/mangrove/resources"
	"github.com/pthm-cable/mangrove/timeloop"
)

type testPlant struct {
	id     uint32
	x, y   float64
	height float64
	rStem  float64
}

func (p testPlant) ID() uint32                   { return p.id }
func (p testPlant) Position() (float64, float64) { return p.x, p.y }
func (p testPlant) Geometry() components.Geometry {
	return components.Geometry{Height: p.height, RStem: p.rStem, RRoot: 1, RCrown: 1}
}

type anonymousPlant struct{}

func (anonymousPlant) Position() (float64, float64)  { return 0, 0 }
func (anonymousPlant) Geometry() components.Geometry { return components.Geometry{} }

func testReport() timeloop.StepReport {
	return timeloop.StepReport{
		Index:  3,
		Window: resources.Window{TIni: 10, TEnd: 20},
		Plants: []resources.Plant{
			testPlant{id: 4, x: 1, y: 2, height: 2, rStem: 0.01},
			testPlant{id: 9, x: 3, y: 4, height: 4, rStem: 0.02},
		},
		AG: []float64{1, 1},
		BG: []float64{0.5, 1},
		BGResult: &resources.Result{
			Values: []float64{0.5, 1},
			Cells:  []int{4, 2},
		},
		Births: 1,
		Deaths: 1,
		Alive:  2,
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector()
	s := c.Flush(testReport())

	if s.Step != 3 || s.TIni != 10 || s.TEnd != 20 {
		t.Errorf("unexpected step identity %+v", s)
	}
	if s.Plants != 2 || s.Alive != 2 || s.Births != 1 || s.Deaths != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.AGUpdated || !s.BGUpdated {
		t.Errorf("ag_updated = %v, bg_updated = %v", s.AGUpdated, s.BGUpdated)
	}
	if s.BGMean != 0.75 || s.AGMean != 1 {
		t.Errorf("ag_mean = %v, bg_mean = %v", s.AGMean, s.BGMean)
	}
	// 0.5*4 + 1*2
	if s.BGOccupied != 4 || s.AGOccupied != 0 {
		t.Errorf("bg_occupied = %v, ag_occupied = %v", s.BGOccupied, s.AGOccupied)
	}
	if s.MeanHeight != 3 || s.MaxHeight != 4 {
		t.Errorf("mean_height = %v, max_height = %v", s.MeanHeight, s.MaxHeight)
	}
	if math.Abs(s.MeanDBH-3) > 1e-9 {
		t.Errorf("mean_dbh = %v, want 3", s.MeanDBH)
	}

	s = c.Flush(testReport())
	if s.TotalBirths != 2 || s.TotalDeaths != 2 {
		t.Errorf("totals = %d, %d, want 2, 2", s.TotalBirths, s.TotalDeaths)
	}
}

func TestCollectorFlushEmpty(t *testing.T) {
	s := NewCollector().Flush(timeloop.StepReport{Index: 1, Window: resources.Window{TEnd: 1}})
	if s.Plants != 0 || s.MeanHeight != 0 || s.BGMean != 0 {
		t.Errorf("unexpected stats for empty population %+v", s)
	}
}

func TestCollectorPlants(t *testing.T) {
	r := testReport()
	r.Plants = append(r.Plants, anonymousPlant{})
	r.AG = append(r.AG, 1)
	r.BG = append(r.BG, 0.2)

	rows := NewCollector().Plants(r)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].ID != 9 || rows[1].X != 3 || rows[1].BG != 1 || rows[1].Time != 20 {
		t.Errorf("unexpected row %+v", rows[1])
	}
	if rows[2].ID != -1 || rows[2].BG != 0.2 {
		t.Errorf("unexpected row for plant without ID %+v", rows[2])
	}
}
