package telemetry

import (
	"math"

	"github.com/pthm-cable/glyphfield/components"
)

// Collector accumulates zone events within fixed frame windows and produces
// WindowStats.
type Collector struct {
	windowFrames int
	windowStart  int

	activations   int
	deactivations int
	saves         int
}

// NewCollector creates a collector that flushes every windowFrames frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{windowFrames: windowFrames}
}

// RecordActivation counts a zone showing a glyph.
func (c *Collector) RecordActivation() { c.activations++ }

// RecordDeactivation counts a zone overlay being withdrawn.
func (c *Collector) RecordDeactivation() { c.deactivations++ }

// RecordSave counts a save confirmation.
func (c *Collector) RecordSave() { c.saves++ }

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(frame int) bool {
	return frame-c.windowStart >= c.windowFrames
}

// Flush produces the stats for the window ending at frame and starts a new
// one. particles is sampled for binding and speed.
func (c *Collector) Flush(frame int, simTimeSec float64, particles []components.Particle) WindowStats {
	var bound int
	var speedSum float64
	for i := range particles {
		p := &particles[i]
		if p.Bound() {
			bound++
		}
		speedSum += math.Hypot(float64(p.VX), float64(p.VY))
	}
	var meanSpeed float64
	if len(particles) > 0 {
		meanSpeed = speedSum / float64(len(particles))
	}

	s := WindowStats{
		WindowStart:    c.windowStart,
		WindowEnd:      frame,
		SimTimeSec:     simTimeSec,
		Particles:      len(particles),
		BoundParticles: bound,
		Activations:    c.activations,
		Deactivations:  c.deactivations,
		Saves:          c.saves,
		MeanSpeed:      meanSpeed,
	}

	c.windowStart = frame
	c.activations = 0
	c.deactivations = 0
	c.saves = 0
	return s
}
