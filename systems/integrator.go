package systems

import (
	"math"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
)

// FrameParams is the per-frame input shared by every particle update.
type FrameParams struct {
	Now float64 // ms, engine clock
	DT  float32 // 1.0 = one reference frame, already capped

	// Damping factors pre-raised to DT.
	DampRest  float32
	DampShape float32

	// Activation time and liveness per zone, indexed by ZoneID.Index().
	ZoneStart  [components.NumZones]float64
	ZoneActive [components.NumZones]bool

	Pointer PointerSample
}

// PointerSample is the repulsion input for one frame.
type PointerSample struct {
	X, Y   float32
	Active bool
	Speed  float32 // smoothed px per reference frame
}

// Integrator advances particles with a frame-rate-independent spring-damper.
type Integrator struct {
	stiffRest  float32
	stiffShape float32
	dampRest   float64
	dampShape  float64
	rampMS     float32
	maxDT      float32

	slowAmp, fastAmp, jitterAmp    float32
	slowFreq, fastFreq, jitterFreq float64

	repelRadius float32
	repelForce  float32
	speedGain   float32
}

// NewIntegrator creates an integrator from physics and pointer settings.
func NewIntegrator(phys config.PhysicsConfig, ptr config.PointerConfig) *Integrator {
	return &Integrator{
		stiffRest:   float32(phys.StiffnessRest),
		stiffShape:  float32(phys.StiffnessShape),
		dampRest:    phys.DampingRest,
		dampShape:   phys.DampingShape,
		rampMS:      float32(phys.RampMS),
		maxDT:       float32(phys.MaxDT),
		slowAmp:     float32(phys.DriftSlowAmp),
		fastAmp:     float32(phys.DriftFastAmp),
		jitterAmp:   float32(phys.JitterAmp),
		slowFreq:    phys.DriftSlowFreq,
		fastFreq:    phys.DriftFastFreq,
		jitterFreq:  phys.JitterFreq,
		repelRadius: float32(ptr.RepelRadius),
		repelForce:  float32(ptr.RepelForce),
		speedGain:   float32(ptr.SpeedGain),
	}
}

// Params builds FrameParams for a frame that took elapsedMS against a
// reference interval of frameMS. The normalized dt is capped so a long pause
// does not blow up the integration.
func (in *Integrator) Params(now, elapsedMS, frameMS float64) FrameParams {
	dt := float32(elapsedMS / frameMS)
	if dt < 0 {
		dt = 0
	}
	if in.maxDT > 0 && dt > in.maxDT {
		dt = in.maxDT
	}
	return FrameParams{
		Now:       now,
		DT:        dt,
		DampRest:  float32(math.Pow(in.dampRest, float64(dt))),
		DampShape: float32(math.Pow(in.dampShape, float64(dt))),
	}
}

// Ramp returns the eased spring ramp of p in [0, 1], or -1 when the particle
// is ambient (unbound, zone inactive, or start offset not yet elapsed).
func (in *Integrator) Ramp(p *components.Particle, fp *FrameParams) float32 {
	zi := p.Zone.Index()
	if zi < 0 || !fp.ZoneActive[zi] {
		return -1
	}
	elapsed := float32(fp.Now-fp.ZoneStart[zi]) - p.StartOffset
	if elapsed < 0 {
		return -1
	}
	if in.rampMS <= 0 {
		return 1
	}
	return easeInQuad(clamp01(elapsed / in.rampMS))
}

// Step advances every particle by one frame.
func (in *Integrator) Step(particles []components.Particle, fp *FrameParams) {
	dt := fp.DT
	if dt <= 0 {
		return
	}
	for i := range particles {
		p := &particles[i]

		var tx, ty, stiffness, damp float32
		ramp := in.Ramp(p, fp)
		if ramp >= 0 {
			tx, ty = p.TX, p.TY
			stiffness = lerp(in.stiffRest, in.stiffShape, ramp)
			damp = lerp(fp.DampRest, fp.DampShape, ramp)
			if ramp >= 1 {
				if in.jitterAmp > 0 {
					t := fp.Now * in.jitterFreq
					tx += sin32(t+float64(p.PhaseA)) * in.jitterAmp
					ty += cos32(t+float64(p.PhaseB)) * in.jitterAmp
				}
				rx, ry := in.repel(p, &fp.Pointer)
				tx += rx
				ty += ry
			}
		} else {
			tx, ty = in.drift(p, fp.Now)
			rx, ry := in.repel(p, &fp.Pointer)
			tx += rx
			ty += ry
			stiffness = in.stiffRest
			damp = fp.DampRest
		}

		p.VX += (tx - p.X) * stiffness * dt
		p.VY += (ty - p.Y) * stiffness * dt
		p.VX *= damp
		p.VY *= damp
		p.X += p.VX * dt
		p.Y += p.VY * dt
	}
}

// drift returns the ambient target: origin plus a slow wide sinusoid and a
// faster narrow one, each phased per particle.
func (in *Integrator) drift(p *components.Particle, now float64) (float32, float32) {
	slow := now * in.slowFreq
	fast := now * in.fastFreq
	x := p.OX +
		sin32(slow+float64(p.PhaseA))*in.slowAmp +
		sin32(fast+float64(p.PhaseB))*in.fastAmp
	y := p.OY +
		cos32(slow+float64(p.PhaseB))*in.slowAmp +
		cos32(fast+float64(p.PhaseA))*in.fastAmp
	return x, y
}

// repel returns the target displacement away from the pointer. Strength falls
// off cubically to zero at the radius and grows with cursor speed.
func (in *Integrator) repel(p *components.Particle, ptr *PointerSample) (float32, float32) {
	if !ptr.Active || in.repelRadius <= 0 {
		return 0, 0
	}
	dx := p.X - ptr.X
	dy := p.Y - ptr.Y
	dSq := dx*dx + dy*dy
	if dSq >= in.repelRadius*in.repelRadius || dSq < 1e-6 {
		return 0, 0
	}
	d := float32(math.Sqrt(float64(dSq)))
	falloff := 1 - d/in.repelRadius
	f := falloff * falloff * falloff * in.repelForce * (1 + ptr.Speed*in.speedGain)
	return dx / d * f, dy / d * f
}
