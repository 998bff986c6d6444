package renderer

import (
	"errors"
	"testing"

	"github.com/pthm-cable/glyphfield/config"
)

func testRasterizer(t *testing.T) *GlyphRasterizer {
	t.Helper()
	g, err := NewGlyphRasterizer(config.Default().Glyph)
	if err != nil {
		t.Fatalf("NewGlyphRasterizer: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func testTint(t *testing.T) Tint {
	t.Helper()
	tint, err := NewTint("#4169FF", "#22D3EE")
	if err != nil {
		t.Fatal(err)
	}
	return tint
}

func TestSampleDeterministic(t *testing.T) {
	tint := testTint(t)
	for _, glyph := range []string{"λ", "{}", "Ω"} {
		t.Run(glyph, func(t *testing.T) {
			a, err := testRasterizer(t).Sample(glyph, 5, tint)
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			b, err := testRasterizer(t).Sample(glyph, 5, tint)
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			if len(a) != len(b) {
				t.Fatalf("len = %d and %d, want equal", len(a), len(b))
			}
			for i := range a {
				if a[i] != b[i] {
					t.Fatalf("sample %d differs: %+v vs %+v", i, a[i], b[i])
				}
			}
		})
	}
}

func TestSampleStepDensity(t *testing.T) {
	g := testRasterizer(t)
	tint := testTint(t)

	fine, err := g.Sample("#", 4, tint)
	if err != nil {
		t.Fatal(err)
	}
	coarse, err := g.Sample("#", 12, tint)
	if err != nil {
		t.Fatal(err)
	}
	if len(fine) <= len(coarse) {
		t.Errorf("step 4 gave %d points, step 12 gave %d; want finer step to give more", len(fine), len(coarse))
	}

	half := float32(config.Default().Glyph.RasterSize) / 2
	for _, s := range fine {
		if s.X < -half || s.X >= half || s.Y < -half || s.Y >= half {
			t.Fatalf("sample (%v, %v) outside raster", s.X, s.Y)
		}
	}
}

func TestSampleEmptyGlyph(t *testing.T) {
	g := testRasterizer(t)
	tint := testTint(t)

	tests := []struct {
		name  string
		glyph string
	}{
		{"space", " "},
		{"empty string", ""},
		{"missing coverage", "漢"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Sample(tc.glyph, 5, tint)
			if !errors.Is(err, ErrEmptyGlyph) {
				t.Errorf("err = %v, want ErrEmptyGlyph", err)
			}
			if _, err := g.Shape(tc.glyph, tint); !errors.Is(err, ErrEmptyGlyph) {
				t.Errorf("Shape err = %v, want ErrEmptyGlyph", err)
			}
		})
	}
}

func TestShapeCachedWithBounds(t *testing.T) {
	g := testRasterizer(t)
	tint := testTint(t)

	s1, err := g.Shape("∞", tint)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	s2, err := g.Shape("∞", tint)
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Error("second Shape call should return the cached shape")
	}
	if len(s1.Outline) == 0 || len(s1.Fill) == 0 || len(s1.Slow) == 0 {
		t.Fatalf("sets = %d/%d/%d, want all non-empty", len(s1.Outline), len(s1.Fill), len(s1.Slow))
	}
	if !(len(s1.Outline) > len(s1.Slow) && len(s1.Slow) > len(s1.Fill)) {
		t.Errorf("densities outline=%d slow=%d fill=%d, want outline > slow > fill",
			len(s1.Outline), len(s1.Slow), len(s1.Fill))
	}

	b := s1.Bounds
	for _, p := range s1.Outline {
		if p.X < b.MinX || p.X > b.MaxX || p.Y < b.MinY || p.Y > b.MaxY {
			t.Fatalf("outline point (%v, %v) outside bounds %+v", p.X, p.Y, b)
		}
	}
	if b.Width() <= 0 || b.Height() <= 0 {
		t.Errorf("bounds %+v have no area", b)
	}
}

func TestSampleTintGradient(t *testing.T) {
	g := testRasterizer(t)
	tint, err := NewTint("#FF0000", "#0000FF")
	if err != nil {
		t.Fatal(err)
	}
	samples, err := g.Sample("|", 3, tint)
	if err != nil {
		t.Fatal(err)
	}

	top, bottom := samples[0], samples[len(samples)-1]
	if top.Y >= bottom.Y {
		t.Fatalf("samples not in scan order: top y %v, bottom y %v", top.Y, bottom.Y)
	}
	if top.R <= bottom.R || top.B >= bottom.B {
		t.Errorf("top %+v should be redder and bottom %+v bluer", top, bottom)
	}
}

func TestNewGlyphRasterizerErrors(t *testing.T) {
	cfg := config.Default().Glyph
	cfg.Font = "comic"
	if _, err := NewGlyphRasterizer(cfg); err == nil {
		t.Error("expected error for unknown font")
	}

	cfg = config.Default().Glyph
	cfg.RasterSize = 0
	if _, err := NewGlyphRasterizer(cfg); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("err = %v, want ErrInvalidSurface", err)
	}
}
