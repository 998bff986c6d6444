package renderer

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
)

// ErrInvalidSurface is returned when a drawing surface cannot be created.
var ErrInvalidSurface = errors.New("invalid drawing surface")

// Scene is everything the compositor needs for one frame.
type Scene struct {
	Particles []components.Particle
	// Ramp reports the shape ramp of a particle in [0, 1], or a negative
	// value when the particle is ambient.
	Ramp func(p *components.Particle) float32
	// Columns are the full-height margin columns in viewport px. Nothing
	// is drawn outside them except fades.
	Columns []r2.Box
	// Formed dims the ambient pass while a glyph is on screen.
	Formed bool
}

// Compositor draws the particle field onto an offscreen gg surface sized to
// viewport × device pixel ratio.
type Compositor struct {
	dc     *gg.Context
	width  float64 // viewport px
	height float64
	dpr    float64

	cfg   config.RenderConfig
	theme ThemeSource
	light Palette
	dark  Palette

	// primed is false until the first full clear after a resize, so trails
	// never smear the previous surface size.
	primed bool

	fades fadeMask
	dots  []shapeDot
}

// NewCompositor creates a surface for a width×height viewport.
func NewCompositor(width, height int, dpr float64, cfg config.RenderConfig, theme ThemeSource) (*Compositor, error) {
	light, dark, err := Palettes(cfg)
	if err != nil {
		return nil, err
	}
	if theme == nil {
		theme = StaticTheme(false)
	}
	c := &Compositor{cfg: cfg, theme: theme, light: light, dark: dark}
	if err := c.Resize(width, height, dpr); err != nil {
		return nil, err
	}
	return c, nil
}

// deviceSize converts viewport size to device pixels.
func deviceSize(width, height int, dpr float64) (int, int, error) {
	if width <= 0 || height <= 0 || dpr <= 0 || math.IsNaN(dpr) || math.IsInf(dpr, 0) {
		return 0, 0, fmt.Errorf("%dx%d at %.2fx: %w", width, height, dpr, ErrInvalidSurface)
	}
	return int(math.Ceil(float64(width) * dpr)), int(math.Ceil(float64(height) * dpr)), nil
}

// Resize reallocates the surface and resets its transform.
func (c *Compositor) Resize(width, height int, dpr float64) error {
	dw, dh, err := deviceSize(width, height, dpr)
	if err != nil {
		return err
	}
	if c.dc == nil {
		c.dc = gg.NewContext(dw, dh)
	} else if err := c.dc.Resize(dw, dh); err != nil {
		return fmt.Errorf("resizing surface: %w", err)
	}
	c.width, c.height, c.dpr = float64(width), float64(height), dpr
	c.dc.Identity()
	c.dc.Scale(dpr, dpr)
	c.primed = false
	return nil
}

// Close releases the surface. Safe to call more than once.
func (c *Compositor) Close() error {
	if c.dc == nil {
		return nil
	}
	err := c.dc.Close()
	c.dc = nil
	return err
}

// Image returns a copy of the surface in device pixels.
func (c *Compositor) Image() *image.RGBA {
	if c.dc == nil {
		return nil
	}
	return toRGBA(c.dc.Image())
}

// Palette returns the palette for the current theme.
func (c *Compositor) Palette() Palette {
	if c.theme.Dark() {
		return c.dark
	}
	return c.light
}

// Draw renders one frame.
func (c *Compositor) Draw(s *Scene) error {
	if c.dc == nil {
		return ErrInvalidSurface
	}
	pal := c.Palette()
	dc := c.dc

	dc.Identity()
	dc.Scale(c.dpr, c.dpr)

	if trail := c.cfg.TrailAlpha; trail > 0 && trail < 1 && c.primed {
		dc.SetFillBrush(gg.Solid(pal.bgAlpha(1 - trail)))
		dc.DrawRectangle(0, 0, c.width, c.height)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("trail fill: %w", err)
		}
	} else {
		dc.ClearWithColor(pal.bg())
		c.primed = true
	}

	for _, col := range s.Columns {
		if err := c.drawColumn(s, col, pal); err != nil {
			return err
		}
	}
	return c.applyFades(s.Columns, pal)
}

// drawColumn runs the ambient and shape passes clipped to one column.
func (c *Compositor) drawColumn(s *Scene, col r2.Box, pal Palette) error {
	dc := c.dc
	w, h := col.Max.X-col.Min.X, col.Max.Y-col.Min.Y
	if w <= 0 || h <= 0 {
		return nil
	}

	dc.Push()
	defer dc.Pop()
	dc.ClipRect(col.Min.X, col.Min.Y, w, h)

	ambientR := c.cfg.AmbientRadius
	shapeR := c.cfg.ShapeRadius
	pad := math.Max(ambientR, shapeR)
	inside := func(p *components.Particle) bool {
		x, y := float64(p.X), float64(p.Y)
		return x >= col.Min.X-pad && x <= col.Max.X+pad && y >= col.Min.Y-pad && y <= col.Max.Y+pad
	}

	// Ambient pass: one batched path, one fill.
	ambientA := pal.AmbientA
	if s.Formed && c.cfg.FormedAmbientDim > 0 {
		ambientA *= c.cfg.FormedAmbientDim
	}
	n := 0
	for i := range s.Particles {
		p := &s.Particles[i]
		if !inside(p) || s.ramp(p) >= 0 {
			continue
		}
		dc.DrawCircle(float64(p.X), float64(p.Y), ambientR)
		n++
	}
	if n > 0 {
		dc.SetFillBrush(gg.Solid(gg.RGBA2(pal.Ambient.R, pal.Ambient.G, pal.Ambient.B, ambientA)))
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("ambient pass: %w", err)
		}
	}

	// Shape pass: radius and color follow each particle's ramp. Dots are
	// grouped by quantized ramp and color so each group is one fill.
	c.dots = c.dots[:0]
	for i := range s.Particles {
		p := &s.Particles[i]
		if !inside(p) {
			continue
		}
		t := s.ramp(p)
		if t < 0 {
			continue
		}
		c.dots = append(c.dots, shapeDot{key: dotKey(t, p), idx: int32(i)})
	}
	slices.SortFunc(c.dots, func(a, b shapeDot) int {
		if a.key != b.key {
			return cmp.Compare(a.key, b.key)
		}
		return cmp.Compare(a.idx, b.idx)
	})

	for start := 0; start < len(c.dots); {
		key := c.dots[start].key
		end := start
		t := float64(key>>24) / rampLevels
		r := ambientR + (shapeR-ambientR)*t
		for ; end < len(c.dots) && c.dots[end].key == key; end++ {
			p := &s.Particles[c.dots[end].idx]
			dc.DrawCircle(float64(p.X), float64(p.Y), r)
		}
		tint := pal.Ambient.BlendRgb(keyColor(key), t)
		a := ambientA + (1-ambientA)*t
		dc.SetFillBrush(gg.Solid(gg.RGBA2(tint.R, tint.G, tint.B, a)))
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("shape pass: %w", err)
		}
		start = end
	}
	return nil
}

// rampLevels is the number of ramp steps shape dots are grouped into.
const rampLevels = 32

// shapeDot is a bound particle queued for the shape pass.
type shapeDot struct {
	key uint32 // ramp step, then target color quantized to 6 bits
	idx int32
}

func dotKey(t float32, p *components.Particle) uint32 {
	step := uint32(math.Round(float64(t) * rampLevels))
	return step<<24 | uint32(p.TR>>2)<<16 | uint32(p.TG>>2)<<8 | uint32(p.TB>>2)
}

// keyColor recovers the quantized target color of a dot group, centered in
// its quantization bucket.
func keyColor(key uint32) colorful.Color {
	ch := func(shift uint) float64 {
		v := (key >> shift) & 0x3f
		return (float64(v<<2) + 1.5) / 255
	}
	return colorful.Color{R: ch(16), G: ch(8), B: ch(0)}
}

// applyFades blends background into the surface so particles fade out at
// every column edge instead of clipping hard. Coverage is cached and only
// rebuilt when the surface or column layout changes.
func (c *Compositor) applyFades(cols []r2.Box, pal Palette) error {
	if err := c.dc.FlushGPU(); err != nil {
		return fmt.Errorf("edge fade: %w", err)
	}
	pm := c.dc.ResizeTarget()
	if !c.fades.matches(pm.Width(), pm.Height(), c.dpr, cols) {
		c.fades.build(pm.Width(), pm.Height(), c.width, c.height, c.dpr, cols, c.cfg)
	}
	c.fades.apply(pm.Data(), pal.Background)
	return nil
}

func (s *Scene) ramp(p *components.Particle) float32 {
	if s.Ramp == nil {
		return -1
	}
	return s.Ramp(p)
}

