// Package config provides configuration loading and access for the engine.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Layout    LayoutConfig    `yaml:"layout"`
	Field     FieldConfig     `yaml:"field"`
	Glyph     GlyphConfig     `yaml:"glyph"`
	Glyphs    GlyphsConfig    `yaml:"glyphs"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Passes    PassesConfig    `yaml:"passes"`
	Pointer   PointerConfig   `yaml:"pointer"`
	Render    RenderConfig    `yaml:"render"`
	Timing    TimingConfig    `yaml:"timing"`
	Persist   PersistConfig   `yaml:"persist"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds initial surface settings.
type ScreenConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	PixelRatio float64 `yaml:"pixel_ratio"`
	TargetFPS  int     `yaml:"target_fps"`
}

// LayoutConfig describes the central content column and margin zones.
type LayoutConfig struct {
	ContentWidth     float64 `yaml:"content_width"`
	Gutter           float64 `yaml:"gutter"`
	MobileBreakpoint float64 `yaml:"mobile_breakpoint"`
	AnchorTop        float64 `yaml:"anchor_top"`
	ColumnPadding    float64 `yaml:"column_padding"`
}

// FieldConfig holds Poisson-disc parameters.
type FieldConfig struct {
	MinSeparation float64 `yaml:"min_separation"`
	Attempts      int     `yaml:"attempts"`
}

// GlyphConfig holds offscreen rasterization parameters.
type GlyphConfig struct {
	RasterSize     int     `yaml:"raster_size"`
	FontSize       float64 `yaml:"font_size"`
	Font           string  `yaml:"font"`
	AlphaThreshold int     `yaml:"alpha_threshold"`
	OutlineStep    int     `yaml:"outline_step"`
	FillStep       int     `yaml:"fill_step"`
	SlowStep       int     `yaml:"slow_step"`
}

// GlyphsConfig holds the candidate glyph set of each zone.
type GlyphsConfig struct {
	Dev ZoneGlyphConfig `yaml:"dev"`
	Org ZoneGlyphConfig `yaml:"org"`
}

// ZoneGlyphConfig is the fixed candidate rotation and tint of one zone.
type ZoneGlyphConfig struct {
	Candidates []string `yaml:"candidates"`
	TintTop    string   `yaml:"tint_top"`
	TintBottom string   `yaml:"tint_bottom"`
}

// PhysicsConfig holds spring-damper and drift parameters.
type PhysicsConfig struct {
	StiffnessRest  float64 `yaml:"stiffness_rest"`
	StiffnessShape float64 `yaml:"stiffness_shape"`
	DampingRest    float64 `yaml:"damping_rest"`
	DampingShape   float64 `yaml:"damping_shape"`
	RampMS         float64 `yaml:"ramp_ms"`
	MaxDT          float64 `yaml:"max_dt"`
	DriftSlowAmp   float64 `yaml:"drift_slow_amp"`
	DriftSlowFreq  float64 `yaml:"drift_slow_freq"`
	DriftFastAmp   float64 `yaml:"drift_fast_amp"`
	DriftFastFreq  float64 `yaml:"drift_fast_freq"`
	JitterAmp      float64 `yaml:"jitter_amp"`
	JitterFreq     float64 `yaml:"jitter_freq"`
}

// PassConfig is the stagger window of one assignment pass.
type PassConfig struct {
	StartMS  float64 `yaml:"start_ms"`
	WindowMS float64 `yaml:"window_ms"`
	JitterMS float64 `yaml:"jitter_ms"`
}

// PassesConfig holds the three assignment passes.
type PassesConfig struct {
	Outline PassConfig `yaml:"outline"`
	Fill    PassConfig `yaml:"fill"`
	Slow    PassConfig `yaml:"slow"`
}

// PointerConfig holds repulsion and cursor speed parameters.
type PointerConfig struct {
	RepelRadius    float64 `yaml:"repel_radius"`
	RepelForce     float64 `yaml:"repel_force"`
	SpeedGain      float64 `yaml:"speed_gain"`
	MaxSpeed       float64 `yaml:"max_speed"`
	SpeedFrequency float64 `yaml:"speed_frequency"`
	SpeedDamping   float64 `yaml:"speed_damping"`
	SpeedDecay     float64 `yaml:"speed_decay"`
}

// RenderConfig holds compositor parameters.
type RenderConfig struct {
	AmbientRadius        float64 `yaml:"ambient_radius"`
	ShapeRadius          float64 `yaml:"shape_radius"`
	LightBackground      string  `yaml:"light_background"`
	LightAmbient         string  `yaml:"light_ambient"`
	DarkBackground       string  `yaml:"dark_background"`
	DarkAmbient          string  `yaml:"dark_ambient"`
	TrailAlpha           float64 `yaml:"trail_alpha"`
	FormedAmbientDim     float64 `yaml:"formed_ambient_dim"`
	InnerFadeWidth       float64 `yaml:"inner_fade_width"`
	InnerFadeStrongWidth float64 `yaml:"inner_fade_strong_width"`
	EdgeFadeWidth        float64 `yaml:"edge_fade_width"`
}

// TimingConfig holds frame and timer durations.
type TimingConfig struct {
	FrameMS          float64 `yaml:"frame_ms"`
	ResizeDebounceMS float64 `yaml:"resize_debounce_ms"`
	OverlayDelayMS   float64 `yaml:"overlay_delay_ms"`
	ConfirmMS        float64 `yaml:"confirm_ms"`
}

// PersistConfig selects and configures the saved-zone backend.
type PersistConfig struct {
	Backend   string `yaml:"backend"`
	Key       string `yaml:"key"`
	Dir       string `yaml:"dir"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// TelemetryConfig holds perf collection parameters.
type TelemetryConfig struct {
	PerfWindow  int `yaml:"perf_window"`
	LogInterval int `yaml:"log_interval"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MinSeparation32 float32 // Field.MinSeparation as float32
	RampMS32        float32 // Physics.RampMS as float32
	// MaxStartOffsetMS is the latest start offset any pass can assign.
	MaxStartOffsetMS float64
	// FormDurationMS is the time from activation until every member is formed.
	FormDurationMS float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they fail to parse,
// which only happens when defaults.yaml itself is broken.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if data, err = tomlToYAML(data); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// tomlToYAML re-encodes a TOML document as YAML so the yaml tags stay the
// single source of key names.
func tomlToYAML(data []byte) ([]byte, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// Validate checks the invariants the engine relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Field.MinSeparation <= 0 {
		errs = append(errs, errors.New("field.min_separation must be positive"))
	}
	if c.Field.Attempts <= 0 {
		errs = append(errs, errors.New("field.attempts must be positive"))
	}
	if c.Glyph.OutlineStep <= 0 || c.Glyph.FillStep <= 0 || c.Glyph.SlowStep <= 0 {
		errs = append(errs, errors.New("glyph steps must be positive"))
	}
	if c.Glyph.RasterSize <= 0 || c.Glyph.FontSize <= 0 {
		errs = append(errs, errors.New("glyph.raster_size and glyph.font_size must be positive"))
	}
	p := c.Passes
	if !(p.Outline.StartMS < p.Fill.StartMS && p.Fill.StartMS < p.Slow.StartMS) {
		errs = append(errs, errors.New("passes must start in order outline < fill < slow"))
	}
	spread := p.Slow.StartMS + p.Slow.WindowMS - p.Outline.StartMS
	if c.Physics.RampMS <= 0 || c.Physics.RampMS >= spread {
		errs = append(errs, fmt.Errorf("physics.ramp_ms must be in (0, %.0f)", spread))
	}
	if c.Timing.FrameMS <= 0 {
		errs = append(errs, errors.New("timing.frame_ms must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.MinSeparation32 = float32(c.Field.MinSeparation)
	c.Derived.RampMS32 = float32(c.Physics.RampMS)

	maxOffset := 0.0
	for _, pass := range []PassConfig{c.Passes.Outline, c.Passes.Fill, c.Passes.Slow} {
		end := pass.StartMS + pass.WindowMS + pass.JitterMS
		if end > maxOffset {
			maxOffset = end
		}
	}
	c.Derived.MaxStartOffsetMS = maxOffset
	c.Derived.FormDurationMS = maxOffset + c.Physics.RampMS

	if c.Screen.PixelRatio <= 0 {
		c.Screen.PixelRatio = 1
	}
	if c.Persist.Key == "" {
		c.Persist.Key = "glyphfield:zones"
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
