package ui

import (
	"image"
	"image/color"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphfield/camera"
	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/engine"
	"github.com/pthm-cable/glyphfield/telemetry"
)

// Host runs the engine inside a raylib window. InitWindow must have been
// called.
type Host struct {
	eng     *engine.Engine
	theme   *ToggleTheme
	perf    *telemetry.PerfCollector
	overlay *Overlay
	hud     *HUD
	cam     *camera.Camera

	texture    rl.Texture2D
	texW, texH int
	pixels     []color.RGBA

	width, height int
	onScreen      bool
	lastMouse     rl.Vector2
	showHUD       bool

	logInterval int
	unsubscribe func()
}

// NewHost wires an overlay to eng. perf may be nil; logInterval is the
// number of frames between perf log lines (0 disables).
func NewHost(eng *engine.Engine, theme *ToggleTheme, perf *telemetry.PerfCollector, logInterval int) *Host {
	h := &Host{
		eng:         eng,
		theme:       theme,
		perf:        perf,
		hud:         NewHUD(10, 10, 220),
		width:       rl.GetScreenWidth(),
		height:      rl.GetScreenHeight(),
		logInterval: logInterval,
	}
	ew, eh, _ := eng.Size()
	h.cam = camera.New(float32(h.width), float32(h.height), float32(ew), float32(eh))
	h.overlay = NewOverlay(eng)
	h.unsubscribe = eng.Subscribe(h.overlay)
	return h
}

// Run loops until the window is closed.
func (h *Host) Run() {
	for !rl.WindowShouldClose() {
		h.Update()
		h.Draw()
	}
}

// Update forwards input to the engine and advances one frame.
func (h *Host) Update() {
	h.handleResize()
	h.handleCamera()
	h.handlePointer()

	if rl.IsKeyPressed(rl.KeyT) {
		dark := h.theme.Toggle()
		slog.Info("theme_toggled", "dark", dark)
	}
	if rl.IsKeyPressed(rl.KeyH) {
		h.showHUD = !h.showHUD
	}
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if err := h.eng.Frame(); err != nil {
		slog.Warn("frame_failed", "error", err)
	}
	ew, eh, _ := h.eng.Size()
	h.cam.SetWorld(float32(ew), float32(eh))
	h.upload()

	if h.perf != nil && h.logInterval > 0 && h.eng.Frames()%h.logInterval == 0 {
		h.perf.Stats().LogStats(slog.Default())
	}
}

// handleResize passes window size changes to the engine, which debounces
// them.
func (h *Host) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, ht := rl.GetScreenWidth(), rl.GetScreenHeight()
	if w == h.width && ht == h.height {
		return
	}
	h.width, h.height = w, ht
	h.cam.Resize(float32(w), float32(ht))
	h.eng.Resize(w, ht, PixelRatio())
}

// handleCamera applies wheel zoom, right-drag pan and reset.
func (h *Host) handleCamera() {
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		pos := rl.GetMousePosition()
		factor := float32(1.1)
		if wheel < 0 {
			factor = 1 / factor
		}
		h.cam.ZoomAt(pos.X, pos.Y, factor)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		h.cam.Pan(-d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyZero) {
		h.cam.Reset()
	}
}

func (h *Host) handlePointer() {
	if !rl.IsCursorOnScreen() {
		if h.onScreen {
			h.eng.PointerLeave()
			h.onScreen = false
		}
		return
	}
	pos := rl.GetMousePosition()
	if !h.onScreen || pos != h.lastMouse {
		h.eng.PointerMove(h.cam.ScreenToWorld(pos.X, pos.Y))
	}
	h.onScreen = true
	h.lastMouse = pos
}

// upload copies the engine surface into the window texture, reallocating it
// when the surface size changes.
func (h *Host) upload() {
	img := h.eng.Image()
	if img == nil {
		return
	}
	b := img.Bounds()
	if b.Dx() != h.texW || b.Dy() != h.texH {
		if h.texW > 0 {
			rl.UnloadTexture(h.texture)
		}
		blank := rl.GenImageColor(b.Dx(), b.Dy(), rl.Blank)
		h.texture = rl.LoadTextureFromImage(blank)
		rl.UnloadImage(blank)
		h.texW, h.texH = b.Dx(), b.Dy()
		h.pixels = make([]color.RGBA, b.Dx()*b.Dy())
	}
	copyPixels(h.pixels, img)
	rl.UpdateTexture(h.texture, h.pixels)
}

func copyPixels(dst []color.RGBA, img *image.RGBA) {
	b := img.Bounds()
	i := 0
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			o := x * 4
			dst[i] = color.RGBA{R: row[o], G: row[o+1], B: row[o+2], A: row[o+3]}
			i++
		}
	}
}

// Draw presents the last frame with the overlay on top.
func (h *Host) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	dark := h.theme.Dark()
	bg := rl.RayWhite
	if dark {
		bg = rl.Black
	}
	rl.ClearBackground(bg)

	if h.texW > 0 && h.cam.WorldW > 0 && h.cam.WorldH > 0 {
		// Texture is in device px; the camera works in surface px.
		kx, ky := float32(h.texW)/h.cam.WorldW, float32(h.texH)/h.cam.WorldH
		minX, minY, maxX, maxY := h.cam.VisibleWorldBounds()
		rl.DrawTexturePro(
			h.texture,
			rl.Rectangle{X: minX * kx, Y: minY * ky, Width: (maxX - minX) * kx, Height: (maxY - minY) * ky},
			rl.Rectangle{X: 0, Y: 0, Width: float32(h.width), Height: float32(h.height)},
			rl.Vector2{},
			0,
			rl.White,
		)
	}

	h.overlay.Draw(dark, h.cam)

	if h.showHUD {
		data := HUDData{
			Particles: len(h.eng.Particles()),
			Frames:    h.eng.Frames(),
			Dark:      dark,
			Zones: []components.Zone{
				h.eng.Zone(components.ZoneDev),
				h.eng.Zone(components.ZoneOrg),
			},
		}
		if h.perf != nil {
			data.Perf = h.perf.Stats()
		}
		h.hud.Draw(data)
	}
	h.hud.DrawControls(int32(h.height), dark)
}

// Close releases the texture and detaches the overlay.
func (h *Host) Close() {
	h.unsubscribe()
	if h.texW > 0 {
		rl.UnloadTexture(h.texture)
		h.texW, h.texH = 0, 0
	}
}

// PixelRatio returns the window's device pixel ratio.
func PixelRatio() float64 {
	scale := rl.GetWindowScaleDPI()
	if scale.X <= 0 {
		return 1
	}
	return float64(scale.X)
}
