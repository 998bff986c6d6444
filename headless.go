package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
	"github.com/pthm-cable/glyphfield/engine"
	"github.com/pthm-cable/glyphfield/persist"
	"github.com/pthm-cable/glyphfield/renderer"
	"github.com/pthm-cable/glyphfield/telemetry"
)

// headlessOptions configures a scripted run.
type headlessOptions struct {
	Seed        int64
	Frames      int    // hard frame cap, 0 = run the script to completion
	SnapshotDir string // PNG output, empty disables
	Dark        bool
}

// scriptStep is one scripted interaction. Wait is measured from the
// previous step.
type scriptStep struct {
	Name     string
	Wait     time.Duration
	Act      func(e *engine.Engine)
	Snapshot bool
}

// demoScript walks both zones through activate, save, leave, re-enter,
// clear and resize.
func demoScript(cfg *config.Config) []scriptStep {
	form := time.Duration(cfg.Derived.FormDurationMS+500) * time.Millisecond
	settle := 500 * time.Millisecond
	debounce := time.Duration(cfg.Timing.ResizeDebounceMS)*time.Millisecond + 100*time.Millisecond

	enter := func(id components.ZoneID) func(*engine.Engine) {
		return func(e *engine.Engine) {
			col := e.Layout().Column(id)
			// Near the bottom of the column, well clear of the glyph.
			e.PointerMove(float32((col.Min.X+col.Max.X)/2), float32(col.Max.Y-40))
		}
	}
	leave := func(e *engine.Engine) {
		w, h, _ := e.Size()
		e.PointerMove(float32(w)/2, float32(h)/2)
	}

	return []scriptStep{
		{Name: "ambient", Wait: time.Second, Snapshot: true},
		{Name: "enter_dev", Wait: 0, Act: enter(components.ZoneDev)},
		{Name: "dev_formed", Wait: form, Snapshot: true},
		{Name: "save_dev", Wait: 0, Act: func(e *engine.Engine) { e.Save(components.ZoneDev) }},
		{Name: "leave_dev", Wait: settle, Act: leave},
		{Name: "dev_saved", Wait: time.Second, Snapshot: true},
		{Name: "reenter_dev", Wait: 0, Act: enter(components.ZoneDev)},
		{Name: "clear_dev", Wait: settle, Act: func(e *engine.Engine) { e.Clear(components.ZoneDev) }},
		{Name: "dev_reformed", Wait: form, Snapshot: true},
		{Name: "leave_field", Wait: 0, Act: func(e *engine.Engine) { e.PointerLeave() }},
		{Name: "hover_org", Wait: settle, Act: func(e *engine.Engine) { e.Hover(components.ZoneOrg) }},
		{Name: "org_formed", Wait: form, Snapshot: true},
		{Name: "save_org", Wait: 0, Act: func(e *engine.Engine) { e.Save(components.ZoneOrg) }},
		{Name: "unhover_org", Wait: settle, Act: func(e *engine.Engine) { e.Unhover() }},
		{Name: "resize", Wait: settle, Act: func(e *engine.Engine) {
			w, h, dpr := e.Size()
			e.Resize(w*5/4, h, dpr)
		}},
		{Name: "resized", Wait: debounce + form, Snapshot: true},
	}
}

// runHeadless drives the engine from a manual clock so runs are
// reproducible for a given seed.
func runHeadless(cfg *config.Config, opts headlessOptions, perf *telemetry.PerfCollector, out *telemetry.OutputManager) error {
	if opts.SnapshotDir != "" {
		if err := os.MkdirAll(opts.SnapshotDir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot dir: %w", err)
		}
	}

	clock := engine.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	kv := persist.NewMemoryKV()
	pr := cfg.Screen.PixelRatio
	if pr <= 0 {
		pr = 1
	}
	eng := engine.New(cfg, cfg.Screen.Width, cfg.Screen.Height, pr,
		engine.WithClock(clock),
		engine.WithKV(kv),
		engine.WithSeed(opts.Seed),
		engine.WithTheme(renderer.StaticTheme(opts.Dark)),
		engine.WithPerf(perf),
	)
	defer eng.Close()
	if !eng.Enabled() {
		return fmt.Errorf("engine disabled at %dx%d", cfg.Screen.Width, cfg.Screen.Height)
	}

	collector := telemetry.NewCollector(cfg.Telemetry.PerfWindow)
	logger := slog.Default()
	defer eng.Subscribe(telemetry.NewEventRecorder(eng.Now, out, collector, logger))()

	frameInterval := time.Duration(cfg.Timing.FrameMS * float64(time.Millisecond))
	if frameInterval <= 0 {
		frameInterval = time.Second / 60
	}
	start := eng.Now()

	step := func() error {
		clock.Advance(frameInterval)
		if err := eng.Frame(); err != nil {
			return err
		}
		frame := eng.Frames()

		if collector.ShouldFlush(frame) {
			stats := collector.Flush(frame, (eng.Now()-start)/1000, eng.Particles())
			logger.Info("window", "stats", stats)
			if err := out.WriteWindow(stats); err != nil {
				logger.Warn("window_write_failed", "error", err)
			}
		}
		if window := cfg.Telemetry.PerfWindow; window > 0 && frame%window == 0 {
			stats := perf.Stats()
			if interval := cfg.Telemetry.LogInterval; interval > 0 && frame%interval == 0 {
				stats.LogStats(logger)
			}
			if err := out.WritePerf(stats, frame); err != nil {
				logger.Warn("perf_write_failed", "error", err)
			}
		}
		return nil
	}
	capped := func() bool { return opts.Frames > 0 && eng.Frames() >= opts.Frames }

	for _, s := range demoScript(cfg) {
		for elapsed := time.Duration(0); elapsed < s.Wait; elapsed += frameInterval {
			if capped() {
				logger.Info("max frames reached", "frame", eng.Frames(), "step", s.Name)
				return nil
			}
			if err := step(); err != nil {
				return fmt.Errorf("frame %d: %w", eng.Frames(), err)
			}
		}
		if s.Act != nil {
			s.Act(eng)
		}
		logger.Info("script_step", "step", s.Name, "frame", eng.Frames(), "t_ms", eng.Now()-start)
		if s.Snapshot && opts.SnapshotDir != "" {
			path := filepath.Join(opts.SnapshotDir, fmt.Sprintf("%05d_%s.png", eng.Frames(), s.Name))
			if err := writePNG(eng, path); err != nil {
				return err
			}
			logger.Info("snapshot saved", "path", path)
		}
	}

	// Keep running ambient frames until the cap when one was given.
	for !capped() && opts.Frames > 0 {
		if err := step(); err != nil {
			return fmt.Errorf("frame %d: %w", eng.Frames(), err)
		}
	}
	logger.Info("headless run complete", "frames", eng.Frames(), "sim_ms", eng.Now()-start)
	return nil
}

// writePNG encodes the current surface.
func writePNG(eng *engine.Engine, path string) error {
	img := eng.Image()
	if img == nil {
		return fmt.Errorf("snapshot %s: no surface", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return f.Close()
}
