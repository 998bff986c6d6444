package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphfield/camera"
	"github.com/pthm-cable/glyphfield/components"
)

// ZoneActions is the part of the engine the overlay buttons drive.
type ZoneActions interface {
	Save(id components.ZoneID) bool
	Clear(id components.ZoneID) bool
	Zone(id components.ZoneID) components.Zone
}

// Overlay shows a Save or Clear button under each active glyph and a
// transient "Saved" label after a save. It is an engine observer; the
// buttons are drawn with raygui.
type Overlay struct {
	actions ZoneActions
	theme   Theme

	active  [components.NumZones]*components.ActivateEvent
	confirm [components.NumZones]bool
}

// NewOverlay creates an overlay driving actions.
func NewOverlay(actions ZoneActions) *Overlay {
	return &Overlay{actions: actions, theme: DefaultTheme()}
}

// OnZoneActivate shows the controls for a zone.
func (o *Overlay) OnZoneActivate(ev components.ActivateEvent) {
	if i := ev.Zone.Index(); i >= 0 {
		o.active[i] = &ev
	}
}

// OnZoneDeactivate hides the controls for a zone.
func (o *Overlay) OnZoneDeactivate(id components.ZoneID) {
	if i := id.Index(); i >= 0 {
		o.active[i] = nil
		o.confirm[i] = false
	}
}

// OnSaveConfirmation shows or hides the "Saved" label.
func (o *Overlay) OnSaveConfirmation(id components.ZoneID, visible bool) {
	if i := id.Index(); i >= 0 {
		o.confirm[i] = visible
	}
}

// Draw renders the controls of every active zone, placed through cam.
// Clicks are handled immediately.
func (o *Overlay) Draw(dark bool, cam *camera.Camera) {
	for i, ev := range o.active {
		if ev == nil {
			continue
		}
		id := components.AllZones[i]
		cx, bottom := cam.WorldToScreen(ev.CenterX, ev.BoundsBottom)
		if !cam.IsVisible(ev.CenterX, ev.BoundsBottom, 0) {
			continue
		}
		rect := rl.Rectangle{
			X:      cx - o.theme.ButtonWidth/2,
			Y:      bottom + o.theme.ButtonGap,
			Width:  o.theme.ButtonWidth,
			Height: o.theme.ButtonHeight,
		}

		if o.actions.Zone(id).State == components.ZoneSaved {
			if gui.Button(rect, "Clear") {
				o.actions.Clear(id)
			}
		} else if gui.Button(rect, "Save") {
			o.actions.Save(id)
		}

		if o.confirm[i] {
			color := o.theme.ConfirmColor
			if !dark {
				color = rl.DarkGreen
			}
			w := rl.MeasureText("Saved", o.theme.HeaderFontSize)
			rl.DrawText("Saved",
				int32(cx)-w/2,
				int32(rect.Y+rect.Height)+6,
				o.theme.HeaderFontSize, color)
		}
	}
}
