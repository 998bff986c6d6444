package engine

import "github.com/pthm-cable/glyphfield/components"

// Observer receives overlay notifications. OnZoneActivate fires when a zone
// shows a glyph (after timing.overlay_delay_ms); OnZoneDeactivate fires when
// the pointer leaves it, it is cleared, or the layout is rebuilt.
type Observer interface {
	OnZoneActivate(ev components.ActivateEvent)
	OnZoneDeactivate(id components.ZoneID)
}

// ConfirmationObserver is optionally implemented by observers that show a
// transient "saved" confirmation.
type ConfirmationObserver interface {
	OnSaveConfirmation(id components.ZoneID, visible bool)
}

// ObserverFuncs adapts plain functions to Observer and
// ConfirmationObserver. Nil fields are skipped.
type ObserverFuncs struct {
	Activate     func(ev components.ActivateEvent)
	Deactivate   func(id components.ZoneID)
	Confirmation func(id components.ZoneID, visible bool)
}

func (f ObserverFuncs) OnZoneActivate(ev components.ActivateEvent) {
	if f.Activate != nil {
		f.Activate(ev)
	}
}

func (f ObserverFuncs) OnZoneDeactivate(id components.ZoneID) {
	if f.Deactivate != nil {
		f.Deactivate(id)
	}
}

func (f ObserverFuncs) OnSaveConfirmation(id components.ZoneID, visible bool) {
	if f.Confirmation != nil {
		f.Confirmation(id, visible)
	}
}

var (
	_ Observer             = ObserverFuncs{}
	_ ConfirmationObserver = ObserverFuncs{}
)
