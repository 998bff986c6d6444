package renderer

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/glyphfield/config"
)

// ThemeSource reports the active light/dark mode. The compositor reads it
// once per frame.
type ThemeSource interface {
	Dark() bool
}

// StaticTheme is a fixed theme.
type StaticTheme bool

func (s StaticTheme) Dark() bool { return bool(s) }

// EnvTheme reads the mode from an environment variable. Values "dark" and
// "1" select dark mode; anything else is light.
type EnvTheme struct {
	Var string
}

// DefaultThemeVar is the variable EnvTheme reads when Var is empty.
const DefaultThemeVar = "GLYPHFIELD_THEME"

func (e EnvTheme) Dark() bool {
	name := e.Var
	if name == "" {
		name = DefaultThemeVar
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "dark", "1":
		return true
	}
	return false
}

// Palette is the theme-dependent part of a frame: background and ambient dot
// colors. Glyph colors come from the zone tints and do not change with the
// theme.
type Palette struct {
	Background colorful.Color
	Ambient    colorful.Color
	AmbientA   float64
}

// bg returns the opaque background as a gg color.
func (p Palette) bg() gg.RGBA {
	return gg.RGB(p.Background.R, p.Background.G, p.Background.B)
}

// bgAlpha returns the background at alpha a.
func (p Palette) bgAlpha(a float64) gg.RGBA {
	return gg.RGBA2(p.Background.R, p.Background.G, p.Background.B, a)
}

// Palettes returns the light and dark palettes from render config.
func Palettes(cfg config.RenderConfig) (light, dark Palette, err error) {
	if light, err = newPalette(cfg.LightBackground, cfg.LightAmbient); err != nil {
		return light, dark, fmt.Errorf("light palette: %w", err)
	}
	if dark, err = newPalette(cfg.DarkBackground, cfg.DarkAmbient); err != nil {
		return light, dark, fmt.Errorf("dark palette: %w", err)
	}
	return light, dark, nil
}

func newPalette(background, ambient string) (Palette, error) {
	bg, _, err := ParseColor(background)
	if err != nil {
		return Palette{}, err
	}
	amb, a, err := ParseColor(ambient)
	if err != nil {
		return Palette{}, err
	}
	return Palette{Background: bg, Ambient: amb, AmbientA: a}, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". Alpha defaults to 1.
func ParseColor(s string) (colorful.Color, float64, error) {
	alpha := 1.0
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return colorful.Color{}, 0, fmt.Errorf("color %q: %w", s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, 0, fmt.Errorf("color %q: %w", s, err)
	}
	return c, alpha, nil
}
