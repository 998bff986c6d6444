// Package telemetry records frame cost and zone activity for headless runs
// and the windowed host.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/glyphfield/components"
)

// Zone event kinds.
const (
	EventActivate   = "activate"
	EventDeactivate = "deactivate"
	EventSaveShown  = "save_shown"
	EventSaveHidden = "save_hidden"
)

// ZoneEvent is one overlay notification as written to zone_events.csv.
type ZoneEvent struct {
	RunID   string  `csv:"run_id"`
	TimeMS  float64 `csv:"time_ms"`
	Kind    string  `csv:"kind"`
	Zone    string  `csv:"zone"`
	Glyph   string  `csv:"glyph"`
	CenterX float32 `csv:"center_x"`
	CenterY float32 `csv:"center_y"`
	Saved   bool    `csv:"saved"`
}

// EventRecorder is an engine observer that counts zone events in a
// Collector and writes each one to the output directory.
type EventRecorder struct {
	now       func() float64
	out       *OutputManager
	collector *Collector
	logger    *slog.Logger
}

// NewEventRecorder creates a recorder. now reports engine time in ms; out
// and collector may be nil.
func NewEventRecorder(now func() float64, out *OutputManager, collector *Collector, logger *slog.Logger) *EventRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRecorder{now: now, out: out, collector: collector, logger: logger}
}

// OnZoneActivate records an activation.
func (r *EventRecorder) OnZoneActivate(ev components.ActivateEvent) {
	if r.collector != nil {
		r.collector.RecordActivation()
	}
	r.write(ZoneEvent{
		Kind:    EventActivate,
		Zone:    ev.Zone.String(),
		Glyph:   ev.Glyph,
		CenterX: ev.CenterX,
		CenterY: ev.CenterY,
		Saved:   ev.Saved,
	})
}

// OnZoneDeactivate records a deactivation.
func (r *EventRecorder) OnZoneDeactivate(id components.ZoneID) {
	if r.collector != nil {
		r.collector.RecordDeactivation()
	}
	r.write(ZoneEvent{Kind: EventDeactivate, Zone: id.String()})
}

// OnSaveConfirmation records the save confirmation appearing or hiding.
func (r *EventRecorder) OnSaveConfirmation(id components.ZoneID, visible bool) {
	kind := EventSaveHidden
	if visible {
		kind = EventSaveShown
		if r.collector != nil {
			r.collector.RecordSave()
		}
	}
	r.write(ZoneEvent{Kind: kind, Zone: id.String(), Saved: visible})
}

func (r *EventRecorder) write(ev ZoneEvent) {
	if r.now != nil {
		ev.TimeMS = r.now()
	}
	if err := r.out.WriteEvent(ev); err != nil {
		r.logger.Warn("zone_event_write_failed", "kind", ev.Kind, "error", err)
	}
}
