// Package zones runs the per-zone activation state machine: glyph choice,
// particle assignment, save/clear and teardown on resize.
package zones

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
	"github.com/pthm-cable/glyphfield/systems"
)

// ShapeSource rasterizes a candidate glyph for a zone. An error or an empty
// shape rejects the candidate.
type ShapeSource interface {
	Shape(zone components.ZoneID, glyph string) (*components.GlyphShape, error)
}

// Store is the durable zone→glyph mapping.
type Store interface {
	Saved() map[components.ZoneID]string
	Save(ctx context.Context, zone components.ZoneID, glyph string)
	Clear(ctx context.Context, zone components.ZoneID)
}

// Listener receives zone transitions. Calls happen synchronously inside
// Manager methods.
type Listener interface {
	ZoneActivated(z *components.Zone)
	ZoneDeactivated(id components.ZoneID)
	ZoneSaved(z *components.Zone)
	ZoneCleared(id components.ZoneID)
}

// Manager owns both zones. It never touches particles bound to another zone.
type Manager struct {
	zones      [components.NumZones]components.Zone
	candidates [components.NumZones][]string

	layout   Layout
	hover    components.ZoneID
	shapes   ShapeSource
	store    Store
	listener Listener
	rng      *rand.Rand
	logger   *slog.Logger

	passes systems.AssignParams
	rampMS float64
}

// NewManager creates a manager with both zones inactive.
func NewManager(cfg *config.Config, shapes ShapeSource, store Store, listener Listener, rng *rand.Rand, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		shapes:   shapes,
		store:    store,
		listener: listener,
		rng:      rng,
		logger:   logger,
		rampMS:   cfg.Physics.RampMS,
		passes: systems.AssignParams{
			Outline: passTiming(cfg.Passes.Outline),
			Fill:    passTiming(cfg.Passes.Fill),
			Slow:    passTiming(cfg.Passes.Slow),
		},
	}
	m.candidates[components.ZoneDev.Index()] = cfg.Glyphs.Dev.Candidates
	m.candidates[components.ZoneOrg.Index()] = cfg.Glyphs.Org.Candidates
	for _, id := range components.AllZones {
		m.zones[id.Index()].ID = id
	}
	return m
}

func passTiming(p config.PassConfig) systems.PassTiming {
	return systems.PassTiming{
		StartMS:  float32(p.StartMS),
		WindowMS: float32(p.WindowMS),
		JitterMS: float32(p.JitterMS),
	}
}

// Layout returns the current column geometry.
func (m *Manager) Layout() Layout { return m.layout }

// Hovered returns the zone currently under the pointer.
func (m *Manager) Hovered() components.ZoneID { return m.hover }

// Zone returns a snapshot of a zone.
func (m *Manager) Zone(id components.ZoneID) components.Zone {
	if id.Index() < 0 {
		return components.Zone{}
	}
	return m.zones[id.Index()]
}

// ActivationTimes reports, per zone index, when the zone activated and
// whether its bindings are live.
func (m *Manager) ActivationTimes() (start [components.NumZones]float64, active [components.NumZones]bool) {
	for i := range m.zones {
		z := &m.zones[i]
		if z.State != components.ZoneInactive {
			start[i] = z.ActivatedAt
			active[i] = true
		}
	}
	return start, active
}

// AnyFormed reports whether any zone has finished forming.
func (m *Manager) AnyFormed(now float64) bool {
	for i := range m.zones {
		z := &m.zones[i]
		if z.State == components.ZoneFormed || (z.State == components.ZoneSaved && now >= z.FormedAt) {
			return true
		}
	}
	return false
}

// SetHover moves the pointer into zone id (ZoneNone for the content column
// or off-surface), leaving the previous zone first.
func (m *Manager) SetHover(particles []components.Particle, id components.ZoneID, now float64) {
	if id == m.hover {
		return
	}
	if prev := m.hover; prev != components.ZoneNone {
		m.hover = components.ZoneNone
		m.leave(particles, prev)
	}
	m.hover = id
	if id != components.ZoneNone {
		m.enter(particles, id, now)
	}
}

// enter handles the pointer arriving in a zone margin.
func (m *Manager) enter(particles []components.Particle, id components.ZoneID, now float64) {
	z := &m.zones[id.Index()]
	switch z.State {
	case components.ZoneSaved:
		// Bindings are intact; only the overlay needs restating.
		m.listener.ZoneActivated(z)
	case components.ZoneInactive:
		if m.activate(particles, id, now, "") {
			m.listener.ZoneActivated(z)
		}
	}
}

// leave handles the pointer leaving a zone margin.
func (m *Manager) leave(particles []components.Particle, id components.ZoneID) {
	z := &m.zones[id.Index()]
	switch z.State {
	case components.ZoneActivating, components.ZoneFormed:
		m.release(particles, z)
		m.listener.ZoneDeactivated(id)
	case components.ZoneSaved:
		m.listener.ZoneDeactivated(id)
	}
}

// Update advances Activating zones whose stagger and ramp have elapsed.
func (m *Manager) Update(now float64) {
	for i := range m.zones {
		z := &m.zones[i]
		if z.State == components.ZoneActivating && now >= z.FormedAt {
			z.State = components.ZoneFormed
			m.logger.Debug("zone_formed", "zone", z.ID.String(), "glyph", z.Glyph)
		}
	}
}

// Save persists the glyph of an active, unsaved zone.
func (m *Manager) Save(ctx context.Context, id components.ZoneID) bool {
	if id.Index() < 0 {
		return false
	}
	z := &m.zones[id.Index()]
	if z.State != components.ZoneActivating && z.State != components.ZoneFormed {
		return false
	}
	m.store.Save(ctx, id, z.Glyph)
	z.State = components.ZoneSaved
	m.logger.Info("zone_saved", "zone", id.String(), "glyph", z.Glyph)
	m.listener.ZoneSaved(z)
	return true
}

// Clear forgets a saved zone. When the pointer is still in its margin a
// fresh glyph starts forming immediately.
func (m *Manager) Clear(ctx context.Context, particles []components.Particle, id components.ZoneID, now float64) bool {
	if id.Index() < 0 {
		return false
	}
	z := &m.zones[id.Index()]
	if z.State != components.ZoneSaved {
		return false
	}
	m.release(particles, z)
	m.store.Clear(ctx, id)
	m.logger.Info("zone_cleared", "zone", id.String())
	m.listener.ZoneCleared(id)
	m.listener.ZoneDeactivated(id)

	if m.hover == id && m.activate(particles, id, now, "") {
		m.listener.ZoneActivated(z)
	}
	return true
}

// Reset tears down every zone against a regenerated particle field and new
// layout, then re-forms saved zones from the store. The hover is cleared;
// callers re-apply it with SetHover.
func (m *Manager) Reset(particles []components.Particle, layout Layout, now float64) {
	if prev := m.hover; prev != components.ZoneNone {
		m.hover = components.ZoneNone
		m.listener.ZoneDeactivated(prev)
	}
	for i := range m.zones {
		m.zones[i] = components.Zone{ID: m.zones[i].ID}
	}

	m.layout = layout
	m.passes.ContentLeft = float32(layout.LeftEdge)
	m.passes.ContentRight = float32(layout.RightEdge)
	if !layout.Enabled() {
		return
	}

	saved := m.store.Saved()
	for _, id := range components.AllZones {
		glyph, ok := saved[id]
		if !ok {
			continue
		}
		if m.activate(particles, id, now, glyph) {
			m.zones[id.Index()].State = components.ZoneSaved
		} else {
			m.logger.Warn("saved_glyph_unavailable", "zone", id.String(), "glyph", glyph)
		}
	}
}

// activate chooses a glyph, assigns particles and moves the zone to
// Activating. With a preferred glyph only that glyph is tried. Reports
// whether the zone is now active.
func (m *Manager) activate(particles []components.Particle, id components.ZoneID, now float64, preferred string) bool {
	if !m.layout.Enabled() {
		return false
	}
	z := &m.zones[id.Index()]

	var shape *components.GlyphShape
	if preferred != "" {
		shape = m.tryShape(id, preferred)
	} else {
		shape = m.pickShape(id)
	}
	if shape == nil {
		return false
	}

	cx, cy, scale := m.layout.Place(id, shape.Bounds)
	members := systems.AssignShape(particles, shape,
		systems.Placement{Zone: id, CenterX: cx, CenterY: cy, Scale: scale},
		m.passes, m.rng)
	if len(members) == 0 {
		m.logger.Debug("zone_no_particles", "zone", id.String(), "glyph", shape.Glyph)
		return false
	}

	var maxOffset float32
	for _, idx := range members {
		maxOffset = max(maxOffset, particles[idx].StartOffset)
	}

	*z = components.Zone{
		ID:          id,
		State:       components.ZoneActivating,
		Glyph:       shape.Glyph,
		Shape:       shape,
		ActivatedAt: now,
		FormedAt:    now + float64(maxOffset) + m.rampMS,
		CenterX:     cx,
		CenterY:     cy,
		Scale:       scale,
		Members:     members,
	}
	m.logger.Debug("zone_activated",
		"zone", id.String(),
		"glyph", shape.Glyph,
		"members", len(members),
		"scale", scale,
	)
	return true
}

// pickShape walks the candidate list from a random start, skipping the glyph
// shown by the other zone and any glyph that rasterizes empty.
func (m *Manager) pickShape(id components.ZoneID) *components.GlyphShape {
	cands := m.candidates[id.Index()]
	if len(cands) == 0 {
		return nil
	}
	taken := m.otherGlyph(id)
	start := m.rng.Intn(len(cands))
	for i := range cands {
		glyph := cands[(start+i)%len(cands)]
		if glyph == taken {
			continue
		}
		if shape := m.tryShape(id, glyph); shape != nil {
			return shape
		}
	}
	m.logger.Warn("zone_no_glyph", "zone", id.String(), "candidates", len(cands))
	return nil
}

func (m *Manager) tryShape(id components.ZoneID, glyph string) *components.GlyphShape {
	shape, err := m.shapes.Shape(id, glyph)
	if err != nil || shape.Empty() {
		m.logger.Debug("glyph_rejected", "zone", id.String(), "glyph", glyph, "error", err)
		return nil
	}
	return shape
}

// otherGlyph returns the glyph the other zone is showing, if any.
func (m *Manager) otherGlyph(id components.ZoneID) string {
	for i := range m.zones {
		z := &m.zones[i]
		if z.ID != id && z.State != components.ZoneInactive {
			return z.Glyph
		}
	}
	return ""
}

// release unbinds a zone's particles and resets it to Inactive.
func (m *Manager) release(particles []components.Particle, z *components.Zone) {
	systems.ReleaseZone(particles, z.Members, z.ID)
	*z = components.Zone{ID: z.ID}
}
