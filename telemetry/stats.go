package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FrameQuantiles is the tail of the frame cost distribution.
type FrameQuantiles struct {
	P50 time.Duration
	P90 time.Duration
	P99 time.Duration
}

// ComputeFrameQuantiles returns empirical quantiles of durations given in
// nanoseconds. The input is not modified.
func ComputeFrameQuantiles(durations []float64) FrameQuantiles {
	if len(durations) == 0 {
		return FrameQuantiles{}
	}
	sorted := make([]float64, len(durations))
	copy(sorted, durations)
	sort.Float64s(sorted)

	q := func(p float64) time.Duration {
		return time.Duration(stat.Quantile(p, stat.Empirical, sorted, nil))
	}
	return FrameQuantiles{P50: q(0.50), P90: q(0.90), P99: q(0.99)}
}

// LogValue implements slog.LogValuer for structured logging.
func (q FrameQuantiles) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("p50_us", q.P50.Microseconds()),
		slog.Int64("p90_us", q.P90.Microseconds()),
		slog.Int64("p99_us", q.P99.Microseconds()),
	)
}

// WindowStats summarizes zone activity over one telemetry window.
type WindowStats struct {
	RunID          string  `csv:"run_id"`
	WindowStart    int     `csv:"window_start"`
	WindowEnd      int     `csv:"window_end"`
	SimTimeSec     float64 `csv:"sim_time_sec"`
	Particles      int     `csv:"particles"`
	BoundParticles int     `csv:"bound_particles"`
	Activations    int     `csv:"activations"`
	Deactivations  int     `csv:"deactivations"`
	Saves          int     `csv:"saves"`
	MeanSpeed      float64 `csv:"mean_speed"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("bound", s.BoundParticles),
		slog.Int("activations", s.Activations),
		slog.Int("deactivations", s.Deactivations),
		slog.Int("saves", s.Saves),
		slog.Float64("mean_speed", s.MeanSpeed),
	)
}
