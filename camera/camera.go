// Package camera maps the engine surface onto the host window.
package camera

// Camera controls which part of the surface fills the window. At zoom 1 the
// whole surface is stretched over the window, which covers the interval
// between a window resize and the engine's debounced regeneration.
type Camera struct {
	// Position is the view center in surface coordinates
	X, Y float32

	// Zoom level (1.0 = whole surface, 2.0 = 2x magnification)
	Zoom float32

	// Viewport dimensions (window size)
	ViewportW, ViewportH float32

	// World dimensions (surface size in viewport px, not device px)
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole surface.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// scale returns window px per surface px on each axis.
func (c *Camera) scale() (sx, sy float32) {
	if c.WorldW <= 0 || c.WorldH <= 0 {
		return c.Zoom, c.Zoom
	}
	return c.ViewportW / c.WorldW * c.Zoom, c.ViewportH / c.WorldH * c.Zoom
}

// WorldToScreen converts surface coordinates to window coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	kx, ky := c.scale()
	sx = c.ViewportW/2 + (wx-c.X)*kx
	sy = c.ViewportH/2 + (wy-c.Y)*ky
	return sx, sy
}

// ScreenToWorld converts window coordinates to surface coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	kx, ky := c.scale()
	wx = c.X + (sx-c.ViewportW/2)/kx
	wy = c.Y + (sy-c.ViewportH/2)/ky
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// overlaps the visible area.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return wx+radius >= minX && wx-radius <= maxX && wy+radius >= minY && wy-radius <= maxY
}

// Resize updates the window dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// SetWorld updates the surface dimensions after the engine regenerates.
// The view is reset since old surface coordinates no longer apply.
func (c *Camera) SetWorld(worldW, worldH float32) {
	if worldW == c.WorldW && worldH == c.WorldH {
		return
	}
	c.WorldW = worldW
	c.WorldH = worldH
	c.Reset()
}

// Pan moves the view by the given delta in window pixels.
func (c *Camera) Pan(dx, dy float32) {
	kx, ky := c.scale()
	c.X += dx / kx
	c.Y += dy / ky
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the surface point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	kx, ky := c.scale()
	c.X = wx - (sx-c.ViewportW/2)/kx
	c.Y = wy - (sy-c.ViewportH/2)/ky
	c.clampCenter()
}

// Reset returns the camera to the whole-surface view.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the surface-coordinate bounds of the visible
// area as (minX, minY, maxX, maxY).
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.WorldW / (2 * c.Zoom)
	halfH := c.WorldH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// clampCenter keeps the visible area inside the surface.
func (c *Camera) clampCenter() {
	halfW := c.WorldW / (2 * c.Zoom)
	halfH := c.WorldH / (2 * c.Zoom)
	c.X = clamp(c.X, halfW, c.WorldW-halfW)
	c.Y = clamp(c.Y, halfH, c.WorldH-halfH)
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
