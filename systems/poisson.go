package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/glyphfield/components"
)

// DefaultAttempts is Bridson's k: candidates tried around an active point
// before it is retired.
const DefaultAttempts = 30

// PoissonDisc fills width×height with points at least r apart using
// Bridson's algorithm. The result covers the area evenly without grid
// artifacts. Degenerate inputs return an empty slice.
func PoissonDisc(width, height, r float32, k int, rng *rand.Rand) []components.Point {
	if width <= 0 || height <= 0 || r <= 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultAttempts
	}

	grid := NewSampleGrid(width, height, r)
	// Rough capacity: one point per r² of area
	points := make([]components.Point, 0, int(width*height/(r*r))+1)
	active := make([]int32, 0, 64)

	add := func(x, y float32) {
		idx := int32(len(points))
		points = append(points, components.Point{X: x, Y: y})
		grid.Insert(idx, x, y)
		active = append(active, idx)
	}

	add(rng.Float32()*width, rng.Float32()*height)

	for len(active) > 0 {
		slot := rng.Intn(len(active))
		src := points[active[slot]]

		found := false
		for attempt := 0; attempt < k; attempt++ {
			angle := rng.Float64() * 2 * math.Pi
			dist := float64(r) * (1 + rng.Float64()) // annulus [r, 2r)
			x := src.X + float32(math.Cos(angle)*dist)
			y := src.Y + float32(math.Sin(angle)*dist)

			if x < 0 || x >= width || y < 0 || y >= height {
				continue
			}
			if !grid.Clear(points, x, y, r) {
				continue
			}

			add(x, y)
			found = true
			break
		}

		if !found {
			// Retire the source: swap-remove from the active list
			last := len(active) - 1
			active[slot] = active[last]
			active = active[:last]
		}
	}

	return points
}

// NewField turns a point set into ambient particles with random drift phases.
func NewField(points []components.Point, rng *rand.Rand) []components.Particle {
	particles := make([]components.Particle, len(points))
	for i, pt := range points {
		particles[i] = components.NewParticle(
			pt.X, pt.Y,
			rng.Float32()*2*math.Pi,
			rng.Float32()*2*math.Pi,
		)
	}
	return particles
}
