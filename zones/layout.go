package zones

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
)

// Layout is the viewport split into a central content column and two margin
// columns. Zones exist only when the viewport is wider than the mobile
// breakpoint and both margins have positive width.
type Layout struct {
	Width, Height float64

	// LeftEdge and RightEdge are the pointer thresholds: x < LeftEdge is the
	// dev margin, x > RightEdge is the org margin.
	LeftEdge  float64
	RightEdge float64

	enabled   bool
	anchorTop float64
	padding   float64
}

// NewLayout computes margin thresholds for a width×height viewport.
func NewLayout(width, height float64, cfg config.LayoutConfig) Layout {
	l := Layout{
		Width:     width,
		Height:    height,
		LeftEdge:  (width-cfg.ContentWidth)/2 - cfg.Gutter,
		RightEdge: (width+cfg.ContentWidth)/2 + cfg.Gutter,
		anchorTop: cfg.AnchorTop,
		padding:   cfg.ColumnPadding,
	}
	l.enabled = width > cfg.MobileBreakpoint && l.LeftEdge > 0 && l.RightEdge < width && height > 0
	return l
}

// Enabled reports whether margin zones exist at this size.
func (l Layout) Enabled() bool { return l.enabled }

// ZoneAt returns the zone whose margin contains (x, y), or ZoneNone.
func (l Layout) ZoneAt(x, y float32) components.ZoneID {
	if !l.enabled {
		return components.ZoneNone
	}
	fx, fy := float64(x), float64(y)
	if fy < 0 || fy > l.Height {
		return components.ZoneNone
	}
	switch {
	case fx >= 0 && fx < l.LeftEdge:
		return components.ZoneDev
	case fx > l.RightEdge && fx <= l.Width:
		return components.ZoneOrg
	}
	return components.ZoneNone
}

// Column returns the full-height box of a zone's margin.
func (l Layout) Column(id components.ZoneID) r2.Box {
	switch id {
	case components.ZoneDev:
		return r2.Box{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: l.LeftEdge, Y: l.Height}}
	case components.ZoneOrg:
		return r2.Box{Min: r2.Vec{X: l.RightEdge, Y: 0}, Max: r2.Vec{X: l.Width, Y: l.Height}}
	}
	return r2.Box{}
}

// Columns returns both margin columns, or nil when zones are disabled.
func (l Layout) Columns() []r2.Box {
	if !l.enabled {
		return nil
	}
	return []r2.Box{l.Column(components.ZoneDev), l.Column(components.ZoneOrg)}
}

// Place positions a glyph in its zone column: centered horizontally, top
// edge at the anchor line, scaled down when wider than the padded column.
func (l Layout) Place(id components.ZoneID, b components.Bounds) (cx, cy, scale float32) {
	col := l.Column(id)
	colW := col.Max.X - col.Min.X - 2*l.padding

	scale = 1
	if w := float64(b.Width()); w > 0 && colW > 0 && w > colW {
		scale = float32(colW / w)
	}

	midX := float32((col.Min.X + col.Max.X) / 2)
	cx = midX - (b.MinX+b.MaxX)/2*scale
	cy = float32(l.anchorTop) - b.MinY*scale
	return cx, cy, scale
}
