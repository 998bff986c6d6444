package zones

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
	"github.com/pthm-cable/glyphfield/systems"
)

// fakeShapes returns a small square shape per glyph; glyphs in empty fail.
type fakeShapes struct {
	empty map[string]bool
	calls int
}

func (f *fakeShapes) Shape(_ components.ZoneID, glyph string) (*components.GlyphShape, error) {
	f.calls++
	if f.empty[glyph] {
		return nil, errors.New("empty glyph")
	}
	s := &components.GlyphShape{Glyph: glyph}
	for y := -30; y <= 30; y += 10 {
		for x := -30; x <= 30; x += 10 {
			s.Outline = append(s.Outline, components.Sample{X: float32(x), Y: float32(y)})
		}
	}
	for y := -30; y <= 30; y += 30 {
		s.Fill = append(s.Fill, components.Sample{X: 0, Y: float32(y)})
		s.Slow = append(s.Slow, components.Sample{X: 15, Y: float32(y)})
	}
	s.Bounds = components.Bounds{MinX: -30, MinY: -30, MaxX: 30, MaxY: 30}
	return s, nil
}

type fakeStore struct {
	saved map[components.ZoneID]string
}

func newFakeStore() *fakeStore { return &fakeStore{saved: map[components.ZoneID]string{}} }

func (s *fakeStore) Saved() map[components.ZoneID]string {
	out := make(map[components.ZoneID]string, len(s.saved))
	for k, v := range s.saved {
		out[k] = v
	}
	return out
}
func (s *fakeStore) Save(_ context.Context, id components.ZoneID, glyph string) { s.saved[id] = glyph }
func (s *fakeStore) Clear(_ context.Context, id components.ZoneID)              { delete(s.saved, id) }

type recordingListener struct {
	activated   []components.ActivateEvent
	deactivated []components.ZoneID
	saved       []components.ZoneID
	cleared     []components.ZoneID
}

func (r *recordingListener) ZoneActivated(z *components.Zone) {
	r.activated = append(r.activated, components.NewActivateEvent(z))
}
func (r *recordingListener) ZoneDeactivated(id components.ZoneID) {
	r.deactivated = append(r.deactivated, id)
}
func (r *recordingListener) ZoneSaved(z *components.Zone)      { r.saved = append(r.saved, z.ID) }
func (r *recordingListener) ZoneCleared(id components.ZoneID) { r.cleared = append(r.cleared, id) }

type harness struct {
	m         *Manager
	shapes    *fakeShapes
	store     *fakeStore
	events    *recordingListener
	particles []components.Particle
	cfg       *config.Config
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Glyphs.Dev.Candidates = []string{"A", "B", "C"}
	cfg.Glyphs.Org.Candidates = []string{"X", "Y"}
	if mutate != nil {
		mutate(cfg)
	}
	h := &harness{
		shapes: &fakeShapes{empty: map[string]bool{}},
		store:  newFakeStore(),
		events: &recordingListener{},
		cfg:    cfg,
	}
	rng := rand.New(rand.NewSource(1))
	h.m = NewManager(cfg, h.shapes, h.store, h.events, rng, nil)
	h.reset(1440, 900, 0)
	return h
}

func (h *harness) reset(w, ht float64, now float64) {
	rng := rand.New(rand.NewSource(2))
	h.particles = systems.NewField(systems.PoissonDisc(float32(w), float32(ht), 14, systems.DefaultAttempts, rng), rng)
	h.m.Reset(h.particles, NewLayout(w, ht, h.cfg.Layout), now)
}

func (h *harness) bound(id components.ZoneID) int {
	n := 0
	for i := range h.particles {
		if h.particles[i].Zone == id {
			n++
		}
	}
	return n
}

func TestEnterActivates(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetHover(h.particles, components.ZoneDev, 100)

	z := h.m.Zone(components.ZoneDev)
	if z.State != components.ZoneActivating {
		t.Fatalf("state = %v, want activating", z.State)
	}
	if len(h.events.activated) != 1 {
		t.Fatalf("activate events = %d, want 1", len(h.events.activated))
	}
	ev := h.events.activated[0]
	if ev.Zone != components.ZoneDev || ev.Glyph == "" || ev.Saved {
		t.Errorf("event = %+v, want unsaved dev with glyph", ev)
	}
	if !(ev.BoundsTop < ev.BoundsBottom && ev.BoundsLeft < ev.BoundsRight) {
		t.Errorf("event bounds = %+v, want non-empty", ev)
	}
	if got := h.bound(components.ZoneDev); got != len(z.Members) || got == 0 {
		t.Errorf("bound = %d, members = %d", got, len(z.Members))
	}

	h.m.Update(z.FormedAt - 1)
	if h.m.Zone(components.ZoneDev).State != components.ZoneActivating {
		t.Error("zone formed before its formation time")
	}
	h.m.Update(z.FormedAt)
	if h.m.Zone(components.ZoneDev).State != components.ZoneFormed {
		t.Error("zone should be formed after its formation time")
	}
	if !h.m.AnyFormed(z.FormedAt) {
		t.Error("AnyFormed = false, want true")
	}
}

func TestLeaveReleases(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetHover(h.particles, components.ZoneDev, 0)
	h.m.SetHover(h.particles, components.ZoneNone, 50)

	if s := h.m.Zone(components.ZoneDev).State; s != components.ZoneInactive {
		t.Errorf("state = %v, want inactive", s)
	}
	if got := h.bound(components.ZoneDev); got != 0 {
		t.Errorf("%d particles still bound", got)
	}
	if len(h.events.deactivated) != 1 || h.events.deactivated[0] != components.ZoneDev {
		t.Errorf("deactivated = %v, want [dev]", h.events.deactivated)
	}
}

func TestSaveLeaveReenterKeepsGlyph(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetHover(h.particles, components.ZoneDev, 0)
	before := h.m.Zone(components.ZoneDev)

	if !h.m.Save(context.Background(), components.ZoneDev) {
		t.Fatal("Save returned false")
	}
	if h.store.saved[components.ZoneDev] != before.Glyph {
		t.Errorf("stored = %q, want %q", h.store.saved[components.ZoneDev], before.Glyph)
	}
	if h.m.Save(context.Background(), components.ZoneDev) {
		t.Error("second Save should be a no-op")
	}

	h.m.SetHover(h.particles, components.ZoneNone, 100)
	if got := h.bound(components.ZoneDev); got != len(before.Members) {
		t.Errorf("saved zone released particles on leave: %d bound, want %d", got, len(before.Members))
	}

	calls := h.shapes.calls
	h.m.SetHover(h.particles, components.ZoneDev, 200)
	after := h.m.Zone(components.ZoneDev)
	if after.Glyph != before.Glyph || after.State != components.ZoneSaved {
		t.Errorf("re-enter = %q/%v, want %q/saved", after.Glyph, after.State, before.Glyph)
	}
	if h.shapes.calls != calls {
		t.Error("re-entering a saved zone should not rasterize")
	}
	last := h.events.activated[len(h.events.activated)-1]
	if !last.Saved || last.Glyph != before.Glyph {
		t.Errorf("restated event = %+v, want saved %q", last, before.Glyph)
	}
}

func TestClearWhileHoveringReforms(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetHover(h.particles, components.ZoneDev, 0)
	h.m.Save(context.Background(), components.ZoneDev)
	activations := len(h.events.activated)

	if !h.m.Clear(context.Background(), h.particles, components.ZoneDev, 500) {
		t.Fatal("Clear returned false")
	}
	if _, ok := h.store.saved[components.ZoneDev]; ok {
		t.Error("store still holds dev after clear")
	}
	z := h.m.Zone(components.ZoneDev)
	if z.State != components.ZoneActivating || z.ActivatedAt != 500 {
		t.Errorf("zone = %v at %v, want activating at 500", z.State, z.ActivatedAt)
	}
	if len(h.events.activated) != activations+1 {
		t.Errorf("activations = %d, want %d", len(h.events.activated), activations+1)
	}
	if len(h.events.cleared) != 1 {
		t.Errorf("cleared events = %d, want 1", len(h.events.cleared))
	}
	if got := h.bound(components.ZoneDev); got != len(z.Members) {
		t.Errorf("bound = %d, want %d", got, len(z.Members))
	}
}

func TestClearAwayFromZone(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetHover(h.particles, components.ZoneOrg, 0)
	h.m.Save(context.Background(), components.ZoneOrg)
	h.m.SetHover(h.particles, components.ZoneNone, 10)

	h.m.Clear(context.Background(), h.particles, components.ZoneOrg, 20)
	if s := h.m.Zone(components.ZoneOrg).State; s != components.ZoneInactive {
		t.Errorf("state = %v, want inactive", s)
	}
	if h.bound(components.ZoneOrg) != 0 {
		t.Error("cleared zone kept particles")
	}
	if h.m.Clear(context.Background(), h.particles, components.ZoneOrg, 30) {
		t.Error("clearing an inactive zone should be a no-op")
	}
}

func TestResetRestoresSavedGlyph(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetHover(h.particles, components.ZoneDev, 0)
	h.m.Save(context.Background(), components.ZoneDev)
	glyph := h.m.Zone(components.ZoneDev).Glyph

	h.reset(1280, 800, 1000)
	z := h.m.Zone(components.ZoneDev)
	if z.State != components.ZoneSaved || z.Glyph != glyph {
		t.Fatalf("after reset zone = %v/%q, want saved/%q", z.State, z.Glyph, glyph)
	}
	wantX, wantY, _ := h.m.Layout().Place(components.ZoneDev, z.Shape.Bounds)
	if z.CenterX != wantX || z.CenterY != wantY {
		t.Errorf("center = (%v, %v), want (%v, %v)", z.CenterX, z.CenterY, wantX, wantY)
	}
	if z.ActivatedAt != 1000 {
		t.Errorf("activated at %v, want 1000", z.ActivatedAt)
	}
	if h.m.Hovered() != components.ZoneNone {
		t.Error("reset should clear hover")
	}
	if s := h.m.Zone(components.ZoneOrg).State; s != components.ZoneInactive {
		t.Errorf("org state = %v, want inactive", s)
	}
}

func TestResetMobileDropsZones(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetHover(h.particles, components.ZoneDev, 0)
	h.m.Save(context.Background(), components.ZoneDev)

	h.reset(600, 900, 100)
	if s := h.m.Zone(components.ZoneDev).State; s != components.ZoneInactive {
		t.Errorf("state = %v, want inactive on a narrow viewport", s)
	}
	h.m.SetHover(h.particles, components.ZoneDev, 200)
	if s := h.m.Zone(components.ZoneDev).State; s != components.ZoneInactive {
		t.Errorf("state = %v after hover, want inactive", s)
	}
	if h.store.saved[components.ZoneDev] == "" {
		t.Error("narrow viewport should not forget saved glyphs")
	}
}

func TestEmptyGlyphFallsBack(t *testing.T) {
	h := newHarness(t, nil)
	h.shapes.empty["A"] = true
	h.shapes.empty["B"] = true

	h.m.SetHover(h.particles, components.ZoneDev, 0)
	if g := h.m.Zone(components.ZoneDev).Glyph; g != "C" {
		t.Errorf("glyph = %q, want C (only renderable candidate)", g)
	}

	h.m.SetHover(h.particles, components.ZoneNone, 10)
	h.shapes.empty["C"] = true
	h.m.SetHover(h.particles, components.ZoneDev, 20)
	if s := h.m.Zone(components.ZoneDev).State; s != components.ZoneInactive {
		t.Errorf("state = %v, want inactive when every candidate is empty", s)
	}
}

func TestZonesAvoidSameGlyph(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Glyphs.Dev.Candidates = []string{"A", "B"}
		c.Glyphs.Org.Candidates = []string{"A", "B"}
	})
	h.m.SetHover(h.particles, components.ZoneDev, 0)
	h.m.Save(context.Background(), components.ZoneDev)
	h.m.SetHover(h.particles, components.ZoneOrg, 10)

	dev := h.m.Zone(components.ZoneDev)
	org := h.m.Zone(components.ZoneOrg)
	if dev.Glyph == org.Glyph {
		t.Errorf("both zones show %q", dev.Glyph)
	}

	seen := make(map[int32]bool)
	for _, idx := range dev.Members {
		seen[idx] = true
	}
	for _, idx := range org.Members {
		if seen[idx] {
			t.Fatalf("particle %d in both zones", idx)
		}
	}
}
