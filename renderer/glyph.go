// Package renderer rasterizes glyphs into point clouds and composites the
// particle field onto an offscreen surface.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
)

// ErrEmptyGlyph is returned when a glyph rasterizes to no points, usually
// because the font has no coverage for it.
var ErrEmptyGlyph = errors.New("glyph rasterized to zero points")

// Tint is the vertical color gradient applied to a glyph's samples.
type Tint struct {
	Top    colorful.Color
	Bottom colorful.Color
}

// NewTint parses a top and bottom hex color.
func NewTint(top, bottom string) (Tint, error) {
	t, _, err := ParseColor(top)
	if err != nil {
		return Tint{}, err
	}
	b, _, err := ParseColor(bottom)
	if err != nil {
		return Tint{}, err
	}
	return Tint{Top: t, Bottom: b}, nil
}

type shapeKey struct {
	glyph string
	tint  Tint
}

// GlyphRasterizer renders glyphs into a fixed offscreen raster and samples
// the opaque pixels on a grid. Rasters and shapes are cached per glyph.
type GlyphRasterizer struct {
	source    *text.FontSource
	face      text.Face
	size      int
	threshold uint8
	steps     [3]int // outline, fill, slow

	rasters map[string]*image.RGBA
	shapes  map[shapeKey]*components.GlyphShape
}

// NewGlyphRasterizer loads the configured font.
func NewGlyphRasterizer(cfg config.GlyphConfig) (*GlyphRasterizer, error) {
	if cfg.RasterSize <= 0 || cfg.FontSize <= 0 {
		return nil, fmt.Errorf("glyph raster %d at %.0fpt: %w", cfg.RasterSize, cfg.FontSize, ErrInvalidSurface)
	}
	src, err := loadFont(cfg.Font)
	if err != nil {
		return nil, err
	}
	threshold := cfg.AlphaThreshold
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 254 {
		threshold = 254
	}
	return &GlyphRasterizer{
		source:    src,
		face:      src.Face(cfg.FontSize),
		size:      cfg.RasterSize,
		threshold: uint8(threshold),
		steps:     [3]int{cfg.OutlineStep, cfg.FillStep, cfg.SlowStep},
		rasters:   make(map[string]*image.RGBA),
		shapes:    make(map[shapeKey]*components.GlyphShape),
	}, nil
}

// Close releases the font.
func (g *GlyphRasterizer) Close() error {
	if g.source == nil {
		return nil
	}
	err := g.source.Close()
	g.source = nil
	return err
}

// Shape returns the cached three-density point cloud of glyph, building it on
// first use.
func (g *GlyphRasterizer) Shape(glyph string, tint Tint) (*components.GlyphShape, error) {
	key := shapeKey{glyph: glyph, tint: tint}
	if s, ok := g.shapes[key]; ok {
		return s, nil
	}

	outline, err := g.Sample(glyph, g.steps[0], tint)
	if err != nil {
		return nil, err
	}
	fill, err := g.Sample(glyph, g.steps[1], tint)
	if err != nil {
		return nil, err
	}
	slow, err := g.Sample(glyph, g.steps[2], tint)
	if err != nil {
		return nil, err
	}

	s := &components.GlyphShape{
		Glyph:   glyph,
		Outline: outline,
		Fill:    fill,
		Slow:    slow,
		Bounds:  sampleBounds(outline),
	}
	g.shapes[key] = s
	return s, nil
}

// Sample scans the glyph raster every step pixels and returns a point for
// each pixel whose alpha exceeds the threshold. Coordinates are relative to
// the raster center.
func (g *GlyphRasterizer) Sample(glyph string, step int, tint Tint) ([]components.Sample, error) {
	if step <= 0 {
		return nil, fmt.Errorf("sample step %d must be positive", step)
	}
	img, err := g.raster(glyph)
	if err != nil {
		return nil, err
	}

	half := float32(g.size) / 2
	gradient := gg.NewLinearGradientBrush(0, 0, 0, float64(g.size)).
		AddColorStop(0, gg.RGB(tint.Top.R, tint.Top.G, tint.Top.B)).
		AddColorStop(1, gg.RGB(tint.Bottom.R, tint.Bottom.G, tint.Bottom.B))

	var samples []components.Sample
	for y := 0; y < g.size; y += step {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < g.size; x += step {
			if row[x*4+3] <= g.threshold {
				continue
			}
			c := gradient.ColorAt(float64(x), float64(y))
			samples = append(samples, components.Sample{
				X: float32(x) - half,
				Y: float32(y) - half,
				R: to8(c.R),
				G: to8(c.G),
				B: to8(c.B),
			})
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("glyph %q step %d: %w", glyph, step, ErrEmptyGlyph)
	}
	return samples, nil
}

// raster renders glyph centered in a size×size transparent canvas.
func (g *GlyphRasterizer) raster(glyph string) (*image.RGBA, error) {
	if img, ok := g.rasters[glyph]; ok {
		return img, nil
	}
	if g.face == nil {
		return nil, fmt.Errorf("glyph %q: rasterizer closed", glyph)
	}
	if glyph == "" {
		return nil, fmt.Errorf("empty glyph string: %w", ErrEmptyGlyph)
	}
	// Fonts substitute a .notdef box for missing runes, which would
	// rasterize as a solid rectangle.
	for _, r := range glyph {
		if !g.face.HasGlyph(r) {
			return nil, fmt.Errorf("glyph %q: no coverage for %U: %w", glyph, r, ErrEmptyGlyph)
		}
	}

	dc := gg.NewContext(g.size, g.size)
	defer dc.Close()
	dc.SetFont(g.face)
	dc.SetRGBA(1, 1, 1, 1)
	c := float64(g.size) / 2
	dc.DrawStringAnchored(glyph, c, c, 0.5, 0.5)

	img := toRGBA(dc.Image())
	g.rasters[glyph] = img
	return img, nil
}

// toRGBA returns img as *image.RGBA, copying only when needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func sampleBounds(samples []components.Sample) components.Bounds {
	if len(samples) == 0 {
		return components.Bounds{}
	}
	b := components.Bounds{
		MinX: samples[0].X, MaxX: samples[0].X,
		MinY: samples[0].Y, MaxY: samples[0].Y,
	}
	for _, s := range samples[1:] {
		b.MinX = min(b.MinX, s.X)
		b.MaxX = max(b.MaxX, s.X)
		b.MinY = min(b.MinY, s.Y)
		b.MaxY = max(b.MaxY, s.Y)
	}
	return b
}

func to8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
