package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StepStats holds aggregated statistics for one simulation step.
type StepStats struct {
	Step int     `csv:"step"`
	TIni float64 `csv:"t_ini"`
	TEnd float64 `csv:"t_end"`

	// Population counts
	Plants int `csv:"plants"` // registered at step start
	Alive  int `csv:"alive"`  // after growth and recruitment
	Births int `csv:"births"`
	Deaths int `csv:"deaths"`

	// Cumulative events since the start of the run
	TotalBirths int `csv:"total_births"`
	TotalDeaths int `csv:"total_deaths"`

	// Whether the models were recomputed this step
	AGUpdated bool `csv:"ag_updated"`
	BGUpdated bool `csv:"bg_updated"`

	// Above-ground resource distribution
	AGMean float64 `csv:"ag_mean"`
	AGStd  float64 `csv:"ag_std"`
	AGP10  float64 `csv:"ag_p10"`
	AGP50  float64 `csv:"ag_p50"`
	AGP90  float64 `csv:"ag_p90"`

	// Below-ground resource distribution
	BGMean float64 `csv:"bg_mean"`
	BGStd  float64 `csv:"bg_std"`
	BGP10  float64 `csv:"bg_p10"`
	BGP50  float64 `csv:"bg_p50"`
	BGP90  float64 `csv:"bg_p90"`

	// Geometry at step start
	MeanHeight float64 `csv:"mean_height"` // m
	MaxHeight  float64 `csv:"max_height"`  // m
	MeanDBH    float64 `csv:"mean_dbh"`    // cm

	// Occupied cells weighted by factor (0 when the model was not recomputed)
	AGOccupied float64 `csv:"ag_occupied"`
	BGOccupied float64 `csv:"bg_occupied"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeResourceStats calculates mean, population standard deviation and
// percentiles of resource factors.
func ComputeResourceStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, variance := stat.PopMeanVariance(values, nil)
	std = math.Sqrt(variance)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Float64("t_ini", s.TIni),
		slog.Float64("t_end", s.TEnd),
		slog.Int("plants", s.Plants),
		slog.Int("alive", s.Alive),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Bool("ag_updated", s.AGUpdated),
		slog.Bool("bg_updated", s.BGUpdated),
		slog.Float64("ag_mean", s.AGMean),
		slog.Float64("bg_mean", s.BGMean),
		slog.Float64("bg_p10", s.BGP10),
		slog.Float64("bg_p50", s.BGP50),
		slog.Float64("bg_p90", s.BGP90),
		slog.Float64("mean_height", s.MeanHeight),
		slog.Float64("mean_dbh", s.MeanDBH),
	)
}

// LogStats logs the step stats using slog.
func (s StepStats) LogStats() {
	slog.Info("stats", "step", s)
}
