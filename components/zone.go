package components

// Sample is one rasterized glyph point, relative to the glyph center.
type Sample struct {
	X, Y    float32
	R, G, B uint8
}

// Bounds is an axis-aligned extent in local or screen space.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float32
}

// Width returns the horizontal extent.
func (b Bounds) Width() float32 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float32 { return b.MaxY - b.MinY }

// GlyphShape is the three-density point cloud of one rendered glyph.
type GlyphShape struct {
	Glyph   string
	Outline []Sample // fine step, defines the shape
	Fill    []Sample // coarse step, densifies it
	Slow    []Sample // medium step, far-field trailing wave
	Bounds  Bounds   // extents of Outline
}

// Empty reports whether the glyph produced no outline points.
func (s *GlyphShape) Empty() bool {
	return s == nil || len(s.Outline) == 0
}

// ZoneState is the lifecycle state of a zone.
type ZoneState uint8

const (
	ZoneInactive ZoneState = iota
	ZoneActivating
	ZoneFormed
	ZoneSaved
)

func (s ZoneState) String() string {
	switch s {
	case ZoneActivating:
		return "activating"
	case ZoneFormed:
		return "formed"
	case ZoneSaved:
		return "saved"
	default:
		return "inactive"
	}
}

// Zone is the live record of an activated margin zone.
type Zone struct {
	ID          ZoneID
	State       ZoneState
	Glyph       string
	Shape       *GlyphShape
	ActivatedAt float64 // ms, engine clock
	FormedAt    float64 // ms at which every member has finished its ramp
	CenterX     float32
	CenterY     float32
	Scale       float32 // applied to local sample offsets
	Members     []int32 // particle indices bound to this zone
}

// ScreenBounds returns the outline extents placed at the zone center.
func (z *Zone) ScreenBounds() Bounds {
	if z.Shape == nil {
		return Bounds{MinX: z.CenterX, MinY: z.CenterY, MaxX: z.CenterX, MaxY: z.CenterY}
	}
	b := z.Shape.Bounds
	return Bounds{
		MinX: z.CenterX + b.MinX*z.Scale,
		MinY: z.CenterY + b.MinY*z.Scale,
		MaxX: z.CenterX + b.MaxX*z.Scale,
		MaxY: z.CenterY + b.MaxY*z.Scale,
	}
}

// ActivateEvent is delivered to overlay observers when a zone shows a glyph.
type ActivateEvent struct {
	Zone         ZoneID
	CenterX      float32
	CenterY      float32
	BoundsTop    float32
	BoundsBottom float32
	BoundsLeft   float32
	BoundsRight  float32
	Glyph        string
	Saved        bool
}

// NewActivateEvent builds the overlay payload for a zone.
func NewActivateEvent(z *Zone) ActivateEvent {
	b := z.ScreenBounds()
	return ActivateEvent{
		Zone:         z.ID,
		CenterX:      z.CenterX,
		CenterY:      z.CenterY,
		BoundsTop:    b.MinY,
		BoundsBottom: b.MaxY,
		BoundsLeft:   b.MinX,
		BoundsRight:  b.MaxX,
		Glyph:        z.Glyph,
		Saved:        z.State == ZoneSaved,
	}
}
