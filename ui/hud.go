package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/telemetry"
)

// HUDData holds everything the debug HUD shows.
type HUDData struct {
	Particles int
	Frames    int
	Dark      bool
	Zones     []components.Zone
	Perf      telemetry.PerfStats
}

// HUD renders the debug heads-up display.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a HUD anchored at (x, y).
func NewHUD(x, y, width int32) *HUD {
	return &HUD{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	padding := r.Theme.Padding
	lines := int32(6 + len(data.Zones) + len(telemetry.Phases))
	r.DrawPanel(h.x, h.y, h.width, lines*r.Theme.LineHeight+padding*2)

	x, y := h.x+padding, h.y+padding
	theme := "light"
	if data.Dark {
		theme = "dark"
	}
	y = r.DrawLabelValue(x, y, "Particles", fmt.Sprintf("%d", data.Particles))
	y = r.DrawLabelValue(x, y, "Frames", fmt.Sprintf("%d", data.Frames))
	y = r.DrawLabelValue(x, y, "Theme", theme)
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%.0f", data.Perf.FPS))

	for _, z := range data.Zones {
		value := z.State.String()
		if z.Glyph != "" {
			value += " " + z.Glyph
		}
		y = r.DrawLabelValue(x, y, z.ID.String(), value)
	}

	y = r.DrawSectionHeader(x, y+4, "Frame cost")
	y = r.DrawLabelValue(x, y, "avg / p99", fmt.Sprintf("%dus / %dus",
		data.Perf.AvgFrameDuration.Microseconds(), data.Perf.Quantiles.P99.Microseconds()))
	for _, phase := range telemetry.Phases {
		pct := data.Perf.PhasePct[phase]
		color := r.Theme.ValueColor
		if pct > 50 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %5.1f%%", phase, pct), x, y, r.Theme.FontSize, color)
		y += r.Theme.LineHeight
	}
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, dark bool) {
	color := rl.Gray
	if dark {
		color = rl.LightGray
	}
	rl.DrawText("[T] theme  [H] HUD  [F11] fullscreen  [wheel/RMB] zoom/pan  [0] reset view", 10, screenHeight-22, 12, color)
}
