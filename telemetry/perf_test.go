package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseComposite)
		time.Sleep(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}
	if _, ok := stats.PhaseAvg[PhaseIntegrate]; !ok {
		t.Error("expected integrate phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseComposite]; !ok {
		t.Error("expected composite phase to be tracked")
	}
	if stats.Quantiles.P50 > stats.Quantiles.P99 {
		t.Errorf("p50 %v > p99 %v", stats.Quantiles.P50, stats.Quantiles.P99)
	}
	if stats.Quantiles.P99 > stats.MaxFrameDuration {
		t.Errorf("p99 %v > max %v", stats.Quantiles.P99, stats.MaxFrameDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseTimers)
		time.Sleep(10 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration after window filled")
	}
	if stats.FramesPerSecond <= 0 {
		t.Error("expected positive frames per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhasePointer)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseComposite)
		time.Sleep(2 * time.Millisecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	fast := stats.PhasePct[PhasePointer]
	slow := stats.PhasePct[PhaseComposite]
	if slow <= fast {
		t.Errorf("expected composite (%v%%) > pointer (%v%%)", slow, fast)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgFrameDuration != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameInterval(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameInterval < 15*time.Millisecond {
		t.Errorf("expected frame interval >= 15ms, got %v", stats.FrameInterval)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("FPS = %v, want in (0, 70]", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgFrameDuration: 2 * time.Millisecond,
		Quantiles:        FrameQuantiles{P99: 5 * time.Millisecond},
		PhasePct:         map[string]float64{PhaseIntegrate: 40, PhaseComposite: 55},
	}
	row := s.ToCSV("run", 120)
	if row.RunID != "run" || row.Frame != 120 {
		t.Errorf("row id = %q/%d, want run/120", row.RunID, row.Frame)
	}
	if row.AvgFrameUS != 2000 {
		t.Errorf("AvgFrameUS = %d, want 2000", row.AvgFrameUS)
	}
	if row.P99FrameUS != 5000 {
		t.Errorf("P99FrameUS = %d, want 5000", row.P99FrameUS)
	}
	if row.IntegratePct != 40 || row.CompositePct != 55 {
		t.Errorf("phase pct = %v/%v, want 40/55", row.IntegratePct, row.CompositePct)
	}
}

func TestPerfCollector_OnlyEnteredPhasesReported(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.StartFrame()
	pc.StartPhase(PhaseZones)
	pc.StartPhase("unknown")
	time.Sleep(time.Millisecond)
	pc.EndFrame()

	stats := pc.Stats()
	if _, ok := stats.PhaseAvg[PhaseZones]; !ok {
		t.Error("expected zones phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseComposite]; ok {
		t.Error("composite phase was never entered")
	}
	if _, ok := stats.PhaseAvg["unknown"]; ok {
		t.Error("unknown phase should not be reported")
	}
	if stats.AvgFrameDuration < time.Millisecond {
		t.Errorf("frame = %v, want the unknown phase counted in the total", stats.AvgFrameDuration)
	}
}

func TestPerfCollector_FrameDoesNotAllocate(t *testing.T) {
	pc := NewPerfCollector(8)
	allocs := testing.AllocsPerRun(100, func() {
		pc.StartFrame()
		for _, phase := range Phases {
			pc.StartPhase(phase)
		}
		pc.EndFrame()
		pc.RecordFrame()
	})
	if allocs != 0 {
		t.Errorf("allocs per frame = %v, want 0", allocs)
	}
}
