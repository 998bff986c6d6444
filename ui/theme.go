// Package ui is the raylib host: it owns the window, feeds pointer and
// resize events to the engine, uploads the engine surface to a texture and
// draws the zone overlay and HUD on top.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// ToggleTheme is a light/dark flag flipped from the keyboard. The engine
// reads it through renderer.ThemeSource every frame.
type ToggleTheme struct {
	dark bool
}

// NewToggleTheme creates a theme starting in the given mode.
func NewToggleTheme(dark bool) *ToggleTheme {
	return &ToggleTheme{dark: dark}
}

// Dark reports whether dark mode is active.
func (t *ToggleTheme) Dark() bool { return t.dark }

// Toggle flips the mode and returns the new value.
func (t *ToggleTheme) Toggle() bool {
	t.dark = !t.dark
	return t.dark
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	ButtonWidth    float32
	ButtonHeight   float32
	ButtonGap      float32
	ConfirmColor   rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		ButtonWidth:    96,
		ButtonHeight:   28,
		ButtonGap:      16,
		ConfirmColor:   rl.Color{R: 34, G: 197, B: 94, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     90,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
