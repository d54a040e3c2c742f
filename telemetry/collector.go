package telemetry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/mangrove/timeloop"
)

// identified is implemented by plants with a stable ID.
type identified interface {
	ID() uint32
}

// PlantRecord is one row of plants.csv: a plant as registered at the start
// of a step together with the factors it received.
type PlantRecord struct {
	Step   int     `csv:"step"`
	Time   float64 `csv:"time"`
	ID     int64   `csv:"plant"` // -1 when the plant has no ID
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	Height float64 `csv:"height"`
	RStem  float64 `csv:"r_stem"`
	RCrown float64 `csv:"r_crown"`
	RRoot  float64 `csv:"r_root"`
	AG     float64 `csv:"ag_resources"`
	BG     float64 `csv:"bg_resources"`
}

// Collector turns step reports into StepStats and keeps run totals.
type Collector struct {
	totalBirths int
	totalDeaths int
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Flush produces the StepStats of one completed step.
func (c *Collector) Flush(r timeloop.StepReport) StepStats {
	c.totalBirths += r.Births
	c.totalDeaths += r.Deaths

	s := StepStats{
		Step:        r.Index,
		TIni:        r.Window.TIni,
		TEnd:        r.Window.TEnd,
		Plants:      len(r.Plants),
		Alive:       r.Alive,
		Births:      r.Births,
		Deaths:      r.Deaths,
		TotalBirths: c.totalBirths,
		TotalDeaths: c.totalDeaths,
		AGUpdated:   r.AGResult != nil,
		BGUpdated:   r.BGResult != nil,
	}
	s.AGMean, s.AGStd, s.AGP10, s.AGP50, s.AGP90 = ComputeResourceStats(r.AG)
	s.BGMean, s.BGStd, s.BGP10, s.BGP50, s.BGP90 = ComputeResourceStats(r.BG)

	if r.AGResult != nil {
		s.AGOccupied = r.AGResult.OccupiedCells()
	}
	if r.BGResult != nil {
		s.BGOccupied = r.BGResult.OccupiedCells()
	}

	if n := len(r.Plants); n > 0 {
		heights := make([]float64, n)
		dbh := make([]float64, n)
		for i, p := range r.Plants {
			g := p.Geometry()
			heights[i] = g.Height
			dbh[i] = g.DBH()
		}
		s.MeanHeight = stat.Mean(heights, nil)
		s.MaxHeight = floats.Max(heights)
		s.MeanDBH = stat.Mean(dbh, nil)
	}

	return s
}

// Plants returns one record per registered plant of r.
func (c *Collector) Plants(r timeloop.StepReport) []PlantRecord {
	out := make([]PlantRecord, len(r.Plants))
	for i, p := range r.Plants {
		x, y := p.Position()
		g := p.Geometry()
		id := int64(-1)
		if ip, ok := p.(identified); ok {
			id = int64(ip.ID())
		}
		out[i] = PlantRecord{
			Step:   r.Index,
			Time:   r.Window.TEnd,
			ID:     id,
			X:      x,
			Y:      y,
			Height: g.Height,
			RStem:  g.RStem,
			RCrown: g.RCrown,
			RRoot:  g.RRoot,
			AG:     r.AG[i],
			BG:     r.BG[i],
		}
	}
	return out
}

// Totals returns the births and deaths recorded so far.
func (c *Collector) Totals() (births, deaths int) {
	return c.totalBirths, c.totalDeaths
}
