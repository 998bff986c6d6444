package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase names for one engine frame, in execution order.
const (
	PhaseTimers    = "timers"
	PhasePointer   = "pointer"
	PhaseZones     = "zones"
	PhaseIntegrate = "integrate"
	PhaseComposite = "composite"
)

// Phases lists every frame phase in execution order.
var Phases = [...]string{PhaseTimers, PhasePointer, PhaseZones, PhaseIntegrate, PhaseComposite}

const numPhases = len(Phases)

// phaseSlot returns the index of phase in Phases, or -1.
func phaseSlot(phase string) int {
	for i, name := range Phases {
		if name == phase {
			return i
		}
	}
	return -1
}

// frameCost is the measured cost of one frame. Unknown phase names are
// folded into the total only.
type frameCost struct {
	total  time.Duration
	phases [numPhases]time.Duration
	seen   [numPhases]bool
}

// PerfCollector keeps a ring of recent frame costs. Phases live in fixed
// slots, so timing a frame allocates nothing.
type PerfCollector struct {
	ring   []frameCost
	next   int
	filled int

	cur   frameCost
	start time.Time
	mark  time.Time
	slot  int // running phase, -1 when none

	// Display cadence, measured between RecordFrame calls.
	presented time.Time
	interval  time.Duration
}

// NewPerfCollector creates a collector over the last windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]frameCost, windowSize), slot: -1}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.start = time.Now()
	p.mark = p.start
	p.cur = frameCost{}
	p.slot = -1
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase string) {
	p.closePhase(time.Now())
	p.slot = phaseSlot(phase)
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.slot >= 0 {
		p.cur.phases[p.slot] += now.Sub(p.mark)
		p.cur.seen[p.slot] = true
	}
	p.mark = now
}

// EndFrame closes the frame and stores it in the ring.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.start)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
	p.slot = -1
}

// RecordFrame records the interval between displayed frames.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.presented.IsZero() {
		p.interval = now.Sub(p.presented)
	}
	p.presented = now
}

// PerfStats summarizes frame cost over the window.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Tail latency of frame cost over the window.
	Quantiles FrameQuantiles

	// Average duration and share of frame cost per phase, keyed by phase
	// name. Phases never entered in the window are absent.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Frames the engine could compute per second at the average cost.
	FramesPerSecond float64

	// Display cadence
	FrameInterval time.Duration
	FPS           float64
}

// Stats summarizes the frames currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, numPhases),
		PhasePct:      make(map[string]float64, numPhases),
		FrameInterval: p.interval,
	}
	if p.interval > 0 {
		s.FPS = float64(time.Second) / float64(p.interval)
	}
	if p.filled == 0 {
		return s
	}

	window := p.ring[:p.filled]
	totals := make([]float64, len(window))
	var sum [numPhases]time.Duration
	var seen [numPhases]bool
	for i, f := range window {
		totals[i] = float64(f.total)
		for j := range Phases {
			sum[j] += f.phases[j]
			seen[j] = seen[j] || f.seen[j]
		}
	}

	avg := stat.Mean(totals, nil)
	s.AvgFrameDuration = time.Duration(avg)
	s.MinFrameDuration = time.Duration(floats.Min(totals))
	s.MaxFrameDuration = time.Duration(floats.Max(totals))
	s.Quantiles = ComputeFrameQuantiles(totals)
	if avg > 0 {
		s.FramesPerSecond = float64(time.Second) / avg
	}

	n := time.Duration(len(window))
	for j, name := range Phases {
		if !seen[j] {
			continue
		}
		s.PhaseAvg[name] = sum[j] / n
		if avg > 0 {
			s.PhasePct[name] = float64(sum[j]/n) / avg * 100
		}
	}
	return s
}

// LogStats logs performance statistics at info level.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"p99_frame_us", s.Quantiles.P99.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}
	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Any("quantiles", s.Quantiles),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	RunID        string  `csv:"run_id"`
	Frame        int     `csv:"frame"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	P50FrameUS   int64   `csv:"p50_frame_us"`
	P90FrameUS   int64   `csv:"p90_frame_us"`
	P99FrameUS   int64   `csv:"p99_frame_us"`
	FramesPerSec float64 `csv:"frames_per_sec"`
	FPS          float64 `csv:"fps"`
	TimersPct    float64 `csv:"timers_pct"`
	PointerPct   float64 `csv:"pointer_pct"`
	ZonesPct     float64 `csv:"zones_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	CompositePct float64 `csv:"composite_pct"`
}

// ToCSV flattens PerfStats for the window ending at frame.
func (s PerfStats) ToCSV(runID string, frame int) PerfStatsCSV {
	return PerfStatsCSV{
		RunID:        runID,
		Frame:        frame,
		AvgFrameUS:   s.AvgFrameDuration.Microseconds(),
		MinFrameUS:   s.MinFrameDuration.Microseconds(),
		MaxFrameUS:   s.MaxFrameDuration.Microseconds(),
		P50FrameUS:   s.Quantiles.P50.Microseconds(),
		P90FrameUS:   s.Quantiles.P90.Microseconds(),
		P99FrameUS:   s.Quantiles.P99.Microseconds(),
		FramesPerSec: s.FramesPerSecond,
		FPS:          s.FPS,
		TimersPct:    s.PhasePct[PhaseTimers],
		PointerPct:   s.PhasePct[PhasePointer],
		ZonesPct:     s.PhasePct[PhaseZones],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		CompositePct: s.PhasePct[PhaseComposite],
	}
}
