package components

// Particle is one simulated point. Particles live in a single []Particle arena
// and are addressed by int32 index; zone membership is a field, not a pointer.
type Particle struct {
	X, Y   float32 // current position
	VX, VY float32 // velocity (px per reference frame)
	OX, OY float32 // ambient origin

	PhaseA, PhaseB float32 // drift phase seeds (radians)

	// Shape binding. Zone == ZoneNone means every field below is zero.
	Zone        ZoneID
	TX, TY      float32 // target position
	TR, TG, TB  uint8   // target color
	StartOffset float32 // ms after zone activation before the particle moves
}

// NewParticle creates an ambient particle resting at its origin.
func NewParticle(x, y, phaseA, phaseB float32) Particle {
	return Particle{
		X: x, Y: y,
		OX: x, OY: y,
		PhaseA: phaseA,
		PhaseB: phaseB,
	}
}

// Bound reports whether the particle belongs to a zone.
func (p *Particle) Bound() bool {
	return p.Zone != ZoneNone
}

// Bind attaches the particle to a zone target.
func (p *Particle) Bind(zone ZoneID, s Sample, tx, ty, startOffset float32) {
	p.Zone = zone
	p.TX, p.TY = tx, ty
	p.TR, p.TG, p.TB = s.R, s.G, s.B
	p.StartOffset = startOffset
}

// Release returns the particle to ambient drift. Velocity is kept so the
// particle eases back instead of snapping.
func (p *Particle) Release() {
	p.Zone = ZoneNone
	p.TX, p.TY = 0, 0
	p.TR, p.TG, p.TB = 0, 0, 0
	p.StartOffset = 0
}
