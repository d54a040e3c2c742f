package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/mangrove/timeloop"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few steps
	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(timeloop.PhaseBGRegister)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(timeloop.PhaseBGCalculate)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()

	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}

	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[timeloop.PhaseBGRegister]; !ok {
		t.Error("expected register phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[timeloop.PhaseBGCalculate]; !ok {
		t.Error("expected calculate phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(timeloop.PhaseGrow)
		time.Sleep(10 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()

	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}

	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(2 * time.Millisecond)
		pc.EndStep()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgStepDuration != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgStepDuration: 1500 * time.Microsecond,
		PhasePct: map[string]float64{
			timeloop.PhaseAGCalculate: 10,
			timeloop.PhaseBGCalculate: 70,
			timeloop.PhaseGrow:        5,
		},
	}

	row := s.ToCSV(7)
	if row.Step != 7 || row.AvgStepUS != 1500 {
		t.Errorf("unexpected row %+v", row)
	}
	// Each model keeps its own columns.
	if row.AGCalculatePct != 10 || row.BGCalculatePct != 70 {
		t.Errorf("calculate percentages not split per model: %+v", row)
	}
	if row.GrowPct != 5 || row.AGPreparePct != 0 || row.BGPreparePct != 0 {
		t.Errorf("unexpected phase percentages %+v", row)
	}
}
