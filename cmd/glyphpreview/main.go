// Glyph sampling preview - shows the outline, fill and slow sample sets of
// each candidate glyph with sliders for the grid steps.
//
// Usage: go run ./cmd/glyphpreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
	"github.com/pthm-cable/glyphfield/renderer"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 640
	panelWidth   = windowWidth - previewSize - 30
)

// pass is one sample set with its display color.
type pass struct {
	name    string
	step    int
	color   rl.Color
	visible bool
	samples []components.Sample
	err     error
}

func main() {
	configPath := flag.String("config", "", "Path to config file (empty = use defaults)")
	flag.Parse()

	config.MustInit(*configPath)
	cfg := config.Cfg()

	raster, err := renderer.NewGlyphRasterizer(cfg.Glyph)
	if err != nil {
		slog.Error("failed to create rasterizer", "error", err)
		os.Exit(1)
	}
	defer raster.Close()

	devTint, err := renderer.NewTint(cfg.Glyphs.Dev.TintTop, cfg.Glyphs.Dev.TintBottom)
	if err != nil {
		slog.Error("invalid tint", "error", err)
		os.Exit(1)
	}
	orgTint, err := renderer.NewTint(cfg.Glyphs.Org.TintTop, cfg.Glyphs.Org.TintBottom)
	if err != nil {
		slog.Error("invalid tint", "error", err)
		os.Exit(1)
	}

	type candidate struct {
		glyph string
		zone  components.ZoneID
		tint  renderer.Tint
	}
	var candidates []candidate
	for _, g := range cfg.Glyphs.Dev.Candidates {
		candidates = append(candidates, candidate{g, components.ZoneDev, devTint})
	}
	for _, g := range cfg.Glyphs.Org.Candidates {
		candidates = append(candidates, candidate{g, components.ZoneOrg, orgTint})
	}
	if len(candidates) == 0 {
		slog.Error("no candidate glyphs configured")
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Glyph Sampling Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	passes := []*pass{
		{name: "outline", step: cfg.Glyph.OutlineStep, color: rl.Color{R: 65, G: 105, B: 255, A: 255}, visible: true},
		{name: "fill", step: cfg.Glyph.FillStep, color: rl.Color{R: 34, G: 211, B: 238, A: 255}, visible: true},
		{name: "slow", step: cfg.Glyph.SlowStep, color: rl.Color{R: 244, G: 114, B: 182, A: 255}, visible: true},
	}
	index := 0
	useTint := false
	needsResample := true

	resample := func() {
		c := candidates[index]
		for _, p := range passes {
			p.samples, p.err = raster.Sample(c.glyph, p.step, c.tint)
		}
	}

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyRight) {
			index = (index + 1) % len(candidates)
			needsResample = true
		}
		if rl.IsKeyPressed(rl.KeyLeft) {
			index = (index + len(candidates) - 1) % len(candidates)
			needsResample = true
		}
		if needsResample {
			resample()
			needsResample = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Preview: raster space scaled into the preview square
		scale := float32(previewSize) / float32(cfg.Glyph.RasterSize)
		origin := float32(10 + previewSize/2)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)
		for _, p := range passes {
			if !p.visible {
				continue
			}
			for _, s := range p.samples {
				col := p.color
				if useTint {
					col = rl.Color{R: s.R, G: s.G, B: s.B, A: 255}
				}
				rl.DrawCircleV(rl.Vector2{X: origin + s.X*scale, Y: origin + s.Y*scale}, 1.6, col)
			}
		}

		c := candidates[index]
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("%s  (%s, %d/%d)", c.glyph, c.zone, index+1, len(candidates)), 15, statsY, 20, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Sampling", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		for _, p := range passes {
			label := fmt.Sprintf("%s step (px)", p.name)
			if p.err != nil {
				label = fmt.Sprintf("%s: %v", p.name, p.err)
			}
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			newStep := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"1", "24",
				float32(p.step), 1, 24,
			)
			rl.DrawText(fmt.Sprintf("%d pts", len(p.samples)), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 14, rl.DarkGray)
			if int(newStep) != p.step {
				p.step = int(newStep)
				needsResample = true
			}
			panelY += 26
			p.visible = gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 16, Height: 16}, "show", p.visible)
			panelY += 30
		}

		useTint = gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 16, Height: 16}, "zone tint", useTint)
		panelY += 35

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Previous") {
			index = (index + len(candidates) - 1) % len(candidates)
			needsResample = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Next") {
			index = (index + 1) % len(candidates)
			needsResample = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yamlLines := []string{
			"glyph:",
			fmt.Sprintf("  outline_step: %d", passes[0].step),
			fmt.Sprintf("  fill_step: %d", passes[1].step),
			fmt.Sprintf("  slow_step: %d", passes[2].step),
		}
		for _, line := range yamlLines {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Left/Right to cycle glyphs, C to copy YAML", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(fmt.Sprintf("glyph:\n  outline_step: %d\n  fill_step: %d\n  slow_step: %d",
				passes[0].step, passes[1].step, passes[2].step))
		}

		rl.EndDrawing()
	}
}
