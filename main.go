package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphfield/config"
	"github.com/pthm-cable/glyphfield/engine"
	"github.com/pthm-cable/glyphfield/renderer"
	"github.com/pthm-cable/glyphfield/telemetry"
	"github.com/pthm-cable/glyphfield/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file, .yaml or .toml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run the scripted driver without a window")
	frames := flag.Int("frames", 0, "Stop after N frames (0 = end of script / unlimited)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for PNG snapshots (headless)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	dark := flag.Bool("dark", false, "Start in dark mode")
	debug := flag.Bool("debug", false, "Log zone transitions")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	var logger *slog.Logger
	if *headless {
		// JSON to stdout for structured logging
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	} else {
		logger = slog.New(newLogger(os.Stderr, log.Level(level)))
	}
	slog.SetDefault(logger)
	engine.SetLogger(logger)

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Warn("config_snapshot_failed", "error", err)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	if *headless {
		opts := headlessOptions{
			Seed:        rngSeed,
			Frames:      *frames,
			SnapshotDir: *snapshotDir,
			Dark:        *dark,
		}
		slog.Info("starting headless run",
			"seed", rngSeed,
			"frames", *frames,
			"width", cfg.Screen.Width,
			"height", cfg.Screen.Height,
			"run_id", out.RunID(),
		)
		if err := runHeadless(cfg, opts, perf, out); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Glyph Field")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	theme := ui.NewToggleTheme(*dark || renderer.EnvTheme{}.Dark())
	eng := engine.New(cfg, rl.GetScreenWidth(), rl.GetScreenHeight(), ui.PixelRatio(),
		engine.WithSeed(rngSeed),
		engine.WithTheme(theme),
		engine.WithPerf(perf),
	)
	defer eng.Close()

	if out != nil {
		defer eng.Subscribe(telemetry.NewEventRecorder(eng.Now, out, nil, logger))()
	}

	host := ui.NewHost(eng, theme, perf, cfg.Telemetry.LogInterval)
	defer host.Close()

	if *frames == 0 {
		host.Run()
		return
	}
	for !rl.WindowShouldClose() && eng.Frames() < *frames {
		host.Update()
		host.Draw()
	}
}

// newLogger builds the console handler used by the windowed host.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
