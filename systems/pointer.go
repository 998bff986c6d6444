package systems

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/glyphfield/config"
)

// PointerTracker turns raw pointer events into a position and a smoothed
// cursor speed for repulsion.
type PointerTracker struct {
	pos    r2.Vec
	last   float64 // ms of the previous move
	active bool

	// Raw speed decays toward zero between moves; the spring smooths the
	// value handed to the integrator.
	raw      float64
	speed    float64
	speedVel float64

	frameMS   float64
	maxSpeed  float64
	frequency float64
	damping   float64
	decay     float64
}

// NewPointerTracker creates an inactive tracker.
func NewPointerTracker(cfg config.PointerConfig, frameMS float64) *PointerTracker {
	return &PointerTracker{
		frameMS:   frameMS,
		maxSpeed:  cfg.MaxSpeed,
		frequency: cfg.SpeedFrequency,
		damping:   cfg.SpeedDamping,
		decay:     cfg.SpeedDecay,
	}
}

// Move records a pointer position at time now (ms).
func (t *PointerTracker) Move(x, y float32, now float64) {
	next := r2.Vec{X: float64(x), Y: float64(y)}
	if t.active {
		elapsed := math.Max(now-t.last, 1)
		pxPerFrame := r2.Norm(r2.Sub(next, t.pos)) / elapsed * t.frameMS
		t.raw = math.Min(math.Max(t.raw, pxPerFrame), t.maxSpeed)
	}
	t.pos = next
	t.last = now
	t.active = true
}

// Leave marks the pointer as off the surface.
func (t *PointerTracker) Leave() {
	t.active = false
	t.raw = 0
}

// Advance smooths the speed by dt reference frames.
func (t *PointerTracker) Advance(dt float32) {
	if dt <= 0 {
		return
	}
	spring := harmonica.NewSpring(float64(dt)*t.frameMS/1000, t.frequency, t.damping)
	t.speed, t.speedVel = spring.Update(t.speed, t.speedVel, t.raw)
	if t.speed < 0 {
		t.speed, t.speedVel = 0, 0
	}
	t.raw *= math.Pow(t.decay, float64(dt))
}

// Active reports whether the pointer is on the surface.
func (t *PointerTracker) Active() bool { return t.active }

// Position returns the last known pointer position.
func (t *PointerTracker) Position() (float32, float32) {
	return float32(t.pos.X), float32(t.pos.Y)
}

// Speed returns the smoothed cursor speed in px per reference frame.
func (t *PointerTracker) Speed() float32 { return float32(t.speed) }

// Sample returns the integrator input for the current frame.
func (t *PointerTracker) Sample() PointerSample {
	x, y := t.Position()
	return PointerSample{X: x, Y: y, Active: t.active, Speed: t.Speed()}
}
