package systems

import (
	"math/rand"
	"sort"

	"github.com/pthm-cable/glyphfield/components"
)

// PassTiming is the stagger window of one assignment pass, in ms relative to
// zone activation.
type PassTiming struct {
	StartMS  float32
	WindowMS float32
	JitterMS float32
}

// offset spreads rank across the window and adds jitter.
func (p PassTiming) offset(rank, n int, rng *rand.Rand) float32 {
	t := float32(0)
	if n > 1 {
		t = float32(rank) / float32(n-1)
	}
	return p.StartMS + p.WindowMS*t + rng.Float32()*p.JitterMS
}

// AssignParams configures AssignShape.
type AssignParams struct {
	Outline PassTiming
	Fill    PassTiming
	Slow    PassTiming

	// Slow-pass candidates are particles whose origin lies strictly between
	// ContentLeft and ContentRight, i.e. outside both margin columns.
	ContentLeft  float32
	ContentRight float32
}

// Placement positions a glyph's local samples on screen.
type Placement struct {
	Zone    components.ZoneID
	CenterX float32
	CenterY float32
	Scale   float32
}

func (pl Placement) target(s components.Sample) (float32, float32) {
	return pl.CenterX + s.X*pl.Scale, pl.CenterY + s.Y*pl.Scale
}

// AssignShape binds unassigned particles to the glyph's three sample sets and
// returns the bound indices in assignment order. Particles already bound to
// any zone are never touched, so zone memberships stay disjoint.
func AssignShape(particles []components.Particle, shape *components.GlyphShape, pl Placement, ap AssignParams, rng *rand.Rand) []int32 {
	if shape.Empty() || pl.Zone == components.ZoneNone {
		return nil
	}
	members := make([]int32, 0, len(shape.Outline)+len(shape.Fill)+len(shape.Slow))

	members = assignNearest(particles, members, sortByOrigin(shape.Outline), pl, ap.Outline, rng)
	members = assignNearest(particles, members, sortByOrigin(shape.Fill), pl, ap.Fill, rng)
	members = assignWave(particles, members, sortByOrigin(shape.Slow), pl, ap, rng)

	return members
}

// ReleaseZone returns every member of zone to ambient drift.
func ReleaseZone(particles []components.Particle, members []int32, zone components.ZoneID) {
	for _, idx := range members {
		if idx < 0 || int(idx) >= len(particles) {
			continue
		}
		p := &particles[idx]
		if p.Zone == zone {
			p.Release()
		}
	}
}

// sortByOrigin returns a copy of samples ordered by distance from the glyph
// origin, nearest first. The cached shape is never reordered.
func sortByOrigin(samples []components.Sample) []components.Sample {
	sorted := make([]components.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X*sorted[i].X+sorted[i].Y*sorted[i].Y <
			sorted[j].X*sorted[j].X+sorted[j].Y*sorted[j].Y
	})
	return sorted
}

// assignNearest gives each sample, in order, the unassigned particle whose
// origin is closest to the sample's screen target.
func assignNearest(particles []components.Particle, members []int32, samples []components.Sample, pl Placement, timing PassTiming, rng *rand.Rand) []int32 {
	n := len(samples)
	for rank, s := range samples {
		tx, ty := pl.target(s)

		best := int32(-1)
		var bestDist float32
		for i := range particles {
			p := &particles[i]
			if p.Bound() {
				continue
			}
			d := distanceSq(p.OX, p.OY, tx, ty)
			if best < 0 || d < bestDist {
				best = int32(i)
				bestDist = d
			}
		}
		if best < 0 {
			// Field exhausted
			break
		}

		particles[best].Bind(pl.Zone, s, tx, ty, timing.offset(rank, n, rng))
		members = append(members, best)
	}
	return members
}

// assignWave binds content-column particles, nearest to the zone center
// first, to the slow samples so the far field converges as a trailing wave.
func assignWave(particles []components.Particle, members []int32, samples []components.Sample, pl Placement, ap AssignParams, rng *rand.Rand) []int32 {
	if len(samples) == 0 {
		return members
	}

	candidates := make([]int32, 0, len(particles)/2)
	for i := range particles {
		p := &particles[i]
		if p.Bound() || p.OX <= ap.ContentLeft || p.OX >= ap.ContentRight {
			continue
		}
		candidates = append(candidates, int32(i))
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		pa, pb := &particles[candidates[a]], &particles[candidates[b]]
		return distanceSq(pa.OX, pa.OY, pl.CenterX, pl.CenterY) <
			distanceSq(pb.OX, pb.OY, pl.CenterX, pl.CenterY)
	})

	m := len(samples)
	if len(candidates) < m {
		m = len(candidates)
	}
	for k := 0; k < m; k++ {
		idx := candidates[k]
		tx, ty := pl.target(samples[k])
		particles[idx].Bind(pl.Zone, samples[k], tx, ty, ap.Slow.offset(k, m, rng))
		members = append(members, idx)
	}
	return members
}
