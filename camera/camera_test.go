package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestNew(t *testing.T) {
	cam := New(1280, 800, 1280, 800)

	// Should be centered on the surface
	if cam.X != 640 || cam.Y != 400 {
		t.Errorf("expected camera at (640, 400), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestIdentityWhenSizesMatch(t *testing.T) {
	cam := New(1280, 800, 1280, 800)

	for _, p := range []struct{ x, y float32 }{{0, 0}, {40, 760}, {1279, 1}} {
		sx, sy := cam.WorldToScreen(p.x, p.y)
		if !near(sx, p.x) || !near(sy, p.y) {
			t.Errorf("WorldToScreen(%v, %v) = (%v, %v), want identity", p.x, p.y, sx, sy)
		}
	}
}

func TestStretchDuringResize(t *testing.T) {
	// Window grew before the engine regenerated.
	cam := New(1600, 900, 1280, 800)

	wx, wy := cam.ScreenToWorld(1600, 900)
	if !near(wx, 1280) || !near(wy, 800) {
		t.Errorf("window corner maps to (%f, %f), want (1280, 800)", wx, wy)
	}
	wx, _ = cam.ScreenToWorld(800, 450)
	if !near(wx, 640) {
		t.Errorf("window center maps to x=%f, want 640", wx)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 1024, 600)
	cam.SetZoom(2.5)
	cam.Pan(100, -40)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 1280, 720)

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom clamped to 1.0, got %f", cam.Zoom)
	}

	cam.SetZoom(20.0) // Above max
	if cam.Zoom != 8.0 {
		t.Errorf("expected zoom clamped to 8.0, got %f", cam.Zoom)
	}
}

func TestPanStaysInsideSurface(t *testing.T) {
	cam := New(1280, 720, 1280, 720)
	cam.SetZoom(2)

	cam.Pan(-5000, -5000)
	minX, minY, _, _ := cam.VisibleWorldBounds()
	if !near(minX, 0) || !near(minY, 0) {
		t.Errorf("visible min = (%f, %f), want (0, 0)", minX, minY)
	}

	cam.Pan(10000, 10000)
	_, _, maxX, maxY := cam.VisibleWorldBounds()
	if !near(maxX, 1280) || !near(maxY, 720) {
		t.Errorf("visible max = (%f, %f), want (1280, 720)", maxX, maxY)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(1280, 800, 1280, 800)

	cam.ZoomAt(200, 600, 2)
	wx, wy := cam.ScreenToWorld(200, 600)
	if !near(wx, 200) || !near(wy, 600) {
		t.Errorf("point under cursor moved to (%f, %f)", wx, wy)
	}
	if cam.Zoom != 2 {
		t.Errorf("zoom = %f, want 2", cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 1280, 720)
	cam.SetZoom(2)
	// Visible range (320, 180) to (960, 540)

	if !cam.IsVisible(640, 360, 10) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(1200, 700, 10) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(300, 360, 30) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestSetWorldResets(t *testing.T) {
	cam := New(1280, 800, 1280, 800)
	cam.SetZoom(3)
	cam.Pan(200, 0)

	cam.SetWorld(1600, 900)

	if cam.X != 800 || cam.Y != 450 {
		t.Errorf("expected position (800, 450), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
