package renderer

import (
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/glyphfield/config"
)

// faintFadePeak is the opacity at the inner edge of the wide fade band.
const faintFadePeak = 0.65

// Fixed-point scale for fade coverage: 256 keeps a pixel untouched.
const (
	fadeShift = 8
	fadeOne   = 1 << fadeShift
)

// fadeMask is the combined coverage of every fade band in device pixels.
// Inner bands run the full column height and edge bands the full surface,
// so coverage separates into a per-column and a per-row profile. Values
// are the fraction of the underlying pixel kept, in 1/256ths.
type fadeMask struct {
	keepX []uint32
	keepY []uint32
	bandX []int32 // columns with keepX < fadeOne

	dw, dh int
	dpr    float64
	cols   []r2.Box
}

func (m *fadeMask) matches(dw, dh int, dpr float64, cols []r2.Box) bool {
	return m.keepX != nil && m.dw == dw && m.dh == dh && m.dpr == dpr && slices.Equal(m.cols, cols)
}

// build recomputes both profiles. width and height are in viewport px.
func (m *fadeMask) build(dw, dh int, width, height, dpr float64, cols []r2.Box, cfg config.RenderConfig) {
	m.dw, m.dh, m.dpr = dw, dh, dpr
	m.cols = slices.Clone(cols)

	inner := cfg.InnerFadeWidth
	strong := cfg.InnerFadeStrongWidth
	edge := cfg.EdgeFadeWidth

	var xs []band
	for _, col := range cols {
		// Inner edge is the side facing the viewport center.
		if col.Max.X <= width/2 {
			xs = append(xs,
				band{edge: col.Max.X, dir: -1, width: inner, peak: faintFadePeak},
				band{edge: col.Max.X, dir: -1, width: strong, peak: 1},
			)
		} else {
			xs = append(xs,
				band{edge: col.Min.X, dir: 1, width: inner, peak: faintFadePeak},
				band{edge: col.Min.X, dir: 1, width: strong, peak: 1},
			)
		}
	}
	xs = append(xs,
		band{edge: 0, dir: 1, width: edge, peak: 1},
		band{edge: width, dir: -1, width: edge, peak: 1},
	)
	ys := []band{
		{edge: 0, dir: 1, width: edge, peak: 1},
		{edge: height, dir: -1, width: edge, peak: 1},
	}

	m.keepX = profile(m.keepX, dw, dpr, xs)
	m.keepY = profile(m.keepY, dh, dpr, ys)
	m.bandX = m.bandX[:0]
	for x, k := range m.keepX {
		if k < fadeOne {
			m.bandX = append(m.bandX, int32(x))
		}
	}
}

// band is a linear fade from peak opacity at edge to zero width px away,
// extending in direction dir.
type band struct {
	edge, dir, width, peak float64
}

// alpha returns the band's opacity at viewport position p.
func (b band) alpha(p float64) float64 {
	if b.width <= 0 {
		return 0
	}
	t := (p - b.edge) * b.dir / b.width
	if t < 0 || t > 1 {
		return 0
	}
	return b.peak * (1 - t)
}

// profile samples bands at device pixel centers along one axis.
func profile(dst []uint32, n int, dpr float64, bands []band) []uint32 {
	dst = slices.Grow(dst[:0], n)[:n]
	for i := range dst {
		p := (float64(i) + 0.5) / dpr
		keep := 1.0
		for _, b := range bands {
			keep *= 1 - b.alpha(p)
		}
		dst[i] = uint32(keep*fadeOne + 0.5)
	}
	return dst
}

// apply blends bg over RGBA pixels by the mask. Rows outside the edge bands
// only touch the columns inside a band.
func (m *fadeMask) apply(pix []uint8, bg colorful.Color) {
	if len(pix) < m.dw*m.dh*4 {
		return
	}
	r, g, b := bg.RGB255()
	c := [3]int32{int32(r), int32(g), int32(b)}
	stride := m.dw * 4
	for y, ky := range m.keepY {
		row := pix[y*stride : (y+1)*stride]
		if ky == fadeOne {
			for _, x := range m.bandX {
				blendPixel(row[x*4:x*4+3], c, m.keepX[x])
			}
			continue
		}
		for x, kx := range m.keepX {
			blendPixel(row[x*4:x*4+3], c, (kx*ky)>>fadeShift)
		}
	}
}

func blendPixel(px []uint8, bg [3]int32, keep uint32) {
	if keep >= fadeOne {
		return
	}
	k := int32(keep)
	for i := range px {
		px[i] = uint8(bg[i] + ((int32(px[i])-bg[i])*k)>>fadeShift)
	}
}
