// Package engine drives the particle field: one Frame call per display frame
// fires timers, tracks the pointer, steps the zone state machine, integrates
// particles and composites the surface.
package engine

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
	"github.com/pthm-cable/glyphfield/persist"
	"github.com/pthm-cable/glyphfield/renderer"
	"github.com/pthm-cable/glyphfield/systems"
	"github.com/pthm-cable/glyphfield/telemetry"
	"github.com/pthm-cable/glyphfield/zones"
)

// Timer keys.
const (
	keyResize        = "resize"
	keyOverlayPrefix = "overlay:"
	keyConfirmPrefix = "confirm:"
)

// openStoreTimeout bounds backend connection and the initial load.
const openStoreTimeout = 2 * time.Second

// Option configures an Engine.
type Option func(*options)

type options struct {
	clock  Clock
	kv     persist.KV
	theme  renderer.ThemeSource
	seed   int64
	seeded bool
	perf   *telemetry.PerfCollector
	logger *slog.Logger
}

// WithClock replaces the wall clock, typically with a ManualClock.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// WithKV stores saved zones in kv instead of the backend named in config.
// The engine does not close it.
func WithKV(kv persist.KV) Option { return func(o *options) { o.kv = kv } }

// WithTheme sets the light/dark source. Defaults to renderer.EnvTheme.
func WithTheme(t renderer.ThemeSource) Option { return func(o *options) { o.theme = t } }

// WithSeed makes the point field and glyph rotation reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed, o.seeded = seed, true }
}

// WithPerf records per-phase frame cost into p.
func WithPerf(p *telemetry.PerfCollector) Option { return func(o *options) { o.perf = p } }

// WithLogger overrides the package logger for this engine.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

type subscription struct {
	id int
	o  Observer
}

// Engine owns the particle arena and every per-frame collaborator. It is not
// safe for concurrent use: call every method from the frame goroutine.
type Engine struct {
	cfg    *config.Config
	clock  Clock
	epoch  time.Time
	logger *slog.Logger
	rng    *rand.Rand

	width, height int
	dpr           float64

	particles  []components.Particle
	integrator *systems.Integrator
	pointer    *systems.PointerTracker
	zones      *zones.Manager
	raster     *renderer.GlyphRasterizer
	compositor *renderer.Compositor
	store      *persist.Store
	kv         persist.KV
	ownsKV     bool
	timers     *Timers
	perf       *telemetry.PerfCollector

	observers []subscription
	nextSubID int

	// Programmatic hover wins over the pointer while set.
	hoverForced   bool
	hoverOverride components.ZoneID

	lastFrame float64
	framed    bool
	frames    int

	enabled bool
	closed  bool
}

// New creates an engine for a width×height viewport at the given device
// pixel ratio. If the drawing surface or the glyph rasterizer cannot be
// created the engine is returned disabled: Frame does nothing and no error
// reaches the host.
func New(cfg *config.Config, width, height int, dpr float64, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	o := options{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if !o.seeded {
		o.seed = time.Now().UnixNano()
	}
	if o.theme == nil {
		o.theme = renderer.EnvTheme{Var: renderer.DefaultThemeVar}
	}

	e := &Engine{
		cfg:    cfg,
		clock:  o.clock,
		epoch:  o.clock.Now(),
		logger: o.logger,
		rng:    rand.New(rand.NewSource(o.seed)),
		width:  width,
		height: height,
		dpr:    dpr,
		timers: NewTimers(),
		perf:   o.perf,
	}

	raster, err := renderer.NewGlyphRasterizer(cfg.Glyph)
	if err != nil {
		e.logger.Warn("engine_disabled", "reason", "rasterizer", "error", err)
		return e
	}
	shapes, err := newShapeSource(raster, cfg.Glyphs)
	if err != nil {
		raster.Close()
		e.logger.Warn("engine_disabled", "reason", "tint", "error", err)
		return e
	}
	comp, err := renderer.NewCompositor(width, height, dpr, cfg.Render, o.theme)
	if err != nil {
		raster.Close()
		e.logger.Warn("engine_disabled", "reason", "surface", "error", err)
		return e
	}
	e.raster = raster
	e.compositor = comp

	e.kv = o.kv
	if e.kv == nil {
		e.kv = e.openKV()
		e.ownsKV = true
	}
	e.store = persist.NewStore(e.kv, cfg.Persist.Key, e.logger)
	ctx, cancel := context.WithTimeout(context.Background(), openStoreTimeout)
	e.store.Load(ctx)
	cancel()

	e.integrator = systems.NewIntegrator(cfg.Physics, cfg.Pointer)
	e.pointer = systems.NewPointerTracker(cfg.Pointer, cfg.Timing.FrameMS)
	e.zones = zones.NewManager(cfg, shapes, e.store, zoneEvents{e}, e.rng, e.logger)
	e.enabled = true

	e.regenerate(e.Now())
	return e
}

// openKV opens the configured backend, falling back to memory.
func (e *Engine) openKV() persist.KV {
	ctx, cancel := context.WithTimeout(context.Background(), openStoreTimeout)
	defer cancel()
	kv, err := persist.Open(ctx, e.cfg.Persist)
	if err != nil {
		e.logger.Warn("persist_unavailable", "backend", e.cfg.Persist.Backend, "error", err)
		return persist.NewMemoryKV()
	}
	return kv
}

// Now returns engine time in ms since construction.
func (e *Engine) Now() float64 {
	return float64(e.clock.Now().Sub(e.epoch)) / float64(time.Millisecond)
}

// Enabled reports whether the engine has a surface to draw on.
func (e *Engine) Enabled() bool { return e.enabled && !e.closed }

// Frame advances the simulation to the current clock time and redraws.
func (e *Engine) Frame() error {
	if !e.Enabled() {
		return nil
	}
	now := e.Now()
	elapsed := e.cfg.Timing.FrameMS
	if e.framed {
		elapsed = now - e.lastFrame
	}
	e.lastFrame, e.framed = now, true

	e.startFrame()

	e.phase(telemetry.PhaseTimers)
	e.timers.Fire(now)
	if e.closed {
		return nil
	}

	e.phase(telemetry.PhasePointer)
	fp := e.integrator.Params(now, elapsed, e.cfg.Timing.FrameMS)
	e.pointer.Advance(fp.DT)
	hover := e.hoverTarget()

	e.phase(telemetry.PhaseZones)
	e.zones.SetHover(e.particles, hover, now)
	e.zones.Update(now)
	fp.ZoneStart, fp.ZoneActive = e.zones.ActivationTimes()
	fp.Pointer = e.pointer.Sample()

	e.phase(telemetry.PhaseIntegrate)
	e.integrator.Step(e.particles, &fp)

	e.phase(telemetry.PhaseComposite)
	scene := renderer.Scene{
		Particles: e.particles,
		Ramp:      func(p *components.Particle) float32 { return e.integrator.Ramp(p, &fp) },
		Columns:   e.zones.Layout().Columns(),
		Formed:    e.zones.AnyFormed(now),
	}
	err := e.compositor.Draw(&scene)

	e.endFrame()
	e.frames++
	return err
}

func (e *Engine) startFrame() {
	if e.perf != nil {
		e.perf.StartFrame()
	}
}

func (e *Engine) phase(name string) {
	if e.perf != nil {
		e.perf.StartPhase(name)
	}
}

func (e *Engine) endFrame() {
	if e.perf != nil {
		e.perf.EndFrame()
		e.perf.RecordFrame()
	}
}

// hoverTarget is the zone the manager should consider hovered this frame.
func (e *Engine) hoverTarget() components.ZoneID {
	if e.hoverForced {
		return e.hoverOverride
	}
	if !e.pointer.Active() {
		return components.ZoneNone
	}
	x, y := e.pointer.Position()
	return e.zones.Layout().ZoneAt(x, y)
}

// Frames returns the number of frames drawn.
func (e *Engine) Frames() int { return e.frames }

// PointerMove records the pointer at viewport coordinates (x, y). Zone
// membership is evaluated on the next Frame.
func (e *Engine) PointerMove(x, y float32) {
	if !e.Enabled() {
		return
	}
	e.pointer.Move(x, y, e.Now())
}

// PointerLeave records the pointer leaving the surface.
func (e *Engine) PointerLeave() {
	if !e.Enabled() {
		return
	}
	e.pointer.Leave()
}

// Hover forces zone id as hovered regardless of the pointer, as if the
// pointer had entered that margin. ZoneNone forces no zone.
func (e *Engine) Hover(id components.ZoneID) {
	e.hoverForced = true
	e.hoverOverride = id
}

// Unhover returns hover control to the pointer.
func (e *Engine) Unhover() {
	e.hoverForced = false
	e.hoverOverride = components.ZoneNone
}

// Resize schedules regeneration for a new viewport size. Calls within the
// debounce interval replace each other; only the last one applies.
func (e *Engine) Resize(width, height int, dpr float64) {
	if !e.Enabled() {
		return
	}
	apply := func() { e.applyResize(width, height, dpr) }
	delay := e.cfg.Timing.ResizeDebounceMS
	if delay <= 0 {
		e.timers.Cancel(keyResize)
		apply()
		return
	}
	e.timers.Schedule(keyResize, e.Now()+delay, apply)
}

func (e *Engine) applyResize(width, height int, dpr float64) {
	if err := e.compositor.Resize(width, height, dpr); err != nil {
		e.logger.Warn("resize_failed", "width", width, "height", height, "dpr", dpr, "error", err)
		return
	}
	e.width, e.height, e.dpr = width, height, dpr
	e.regenerate(e.Now())
}

// regenerate rebuilds the point field and layout, then lets the zone
// manager re-form saved zones.
func (e *Engine) regenerate(now float64) {
	points := systems.PoissonDisc(float32(e.width), float32(e.height),
		e.cfg.Derived.MinSeparation32, e.cfg.Field.Attempts, e.rng)
	e.particles = systems.NewField(points, e.rng)

	layout := zones.NewLayout(float64(e.width), float64(e.height), e.cfg.Layout)
	e.zones.Reset(e.particles, layout, now)

	// Confirmations of zones that were not hovered are still pending.
	for _, id := range components.AllZones {
		e.timers.Cancel(keyOverlayPrefix + id.String())
		if e.timers.Cancel(keyConfirmPrefix + id.String()) {
			e.notifyConfirmation(id, false)
		}
	}

	e.logger.Info("field_regenerated",
		"particles", len(e.particles),
		"width", e.width,
		"height", e.height,
		"dpr", e.dpr,
		"zones", layout.Enabled(),
	)
}

// Save persists the glyph shown in zone id. Reports whether anything was
// saved.
func (e *Engine) Save(id components.ZoneID) bool {
	if !e.Enabled() {
		return false
	}
	return e.zones.Save(context.Background(), id)
}

// Clear forgets the saved glyph of zone id. Reports whether the zone was
// saved.
func (e *Engine) Clear(id components.ZoneID) bool {
	if !e.Enabled() {
		return false
	}
	return e.zones.Clear(context.Background(), e.particles, id, e.Now())
}

// Subscribe registers an overlay observer and returns a function that
// removes it. Observers implementing ConfirmationObserver also receive save
// confirmations.
func (e *Engine) Subscribe(o Observer) func() {
	if e.closed || o == nil {
		return func() {}
	}
	id := e.nextSubID
	e.nextSubID++
	e.observers = append(e.observers, subscription{id: id, o: o})
	return func() {
		e.observers = slices.DeleteFunc(e.observers, func(s subscription) bool { return s.id == id })
	}
}

func (e *Engine) notifyActivate(ev components.ActivateEvent) {
	for _, s := range slices.Clone(e.observers) {
		s.o.OnZoneActivate(ev)
	}
}

func (e *Engine) notifyDeactivate(id components.ZoneID) {
	for _, s := range slices.Clone(e.observers) {
		s.o.OnZoneDeactivate(id)
	}
}

func (e *Engine) notifyConfirmation(id components.ZoneID, visible bool) {
	for _, s := range slices.Clone(e.observers) {
		if c, ok := s.o.(ConfirmationObserver); ok {
			c.OnSaveConfirmation(id, visible)
		}
	}
}

// Image returns a copy of the last drawn frame in device pixels, or nil
// when the engine is disabled.
func (e *Engine) Image() *image.RGBA {
	if !e.Enabled() {
		return nil
	}
	return e.compositor.Image()
}

// Particles returns the particle arena. Callers must not modify it.
func (e *Engine) Particles() []components.Particle { return e.particles }

// Zone returns a snapshot of zone id.
func (e *Engine) Zone(id components.ZoneID) components.Zone {
	if e.zones == nil {
		return components.Zone{ID: id}
	}
	return e.zones.Zone(id)
}

// Layout returns the current column geometry.
func (e *Engine) Layout() zones.Layout {
	if e.zones == nil {
		return zones.Layout{}
	}
	return e.zones.Layout()
}

// Size returns the viewport size and device pixel ratio.
func (e *Engine) Size() (width, height int, dpr float64) {
	return e.width, e.height, e.dpr
}

// Close cancels timers, drops observers and releases the surface. Frame is
// a no-op afterwards. Safe to call more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.timers.Clear()
	e.observers = nil

	var errs []error
	if e.compositor != nil {
		errs = append(errs, e.compositor.Close())
	}
	if e.raster != nil {
		errs = append(errs, e.raster.Close())
	}
	if e.ownsKV && e.kv != nil {
		errs = append(errs, e.kv.Close())
	}
	return errors.Join(errs...)
}

// shapeSource rasterizes glyphs in the tint of the requesting zone.
type shapeSource struct {
	raster *renderer.GlyphRasterizer
	tints  [components.NumZones]renderer.Tint
}

func newShapeSource(raster *renderer.GlyphRasterizer, cfg config.GlyphsConfig) (*shapeSource, error) {
	s := &shapeSource{raster: raster}
	for _, zc := range []struct {
		id components.ZoneID
		zg config.ZoneGlyphConfig
	}{
		{components.ZoneDev, cfg.Dev},
		{components.ZoneOrg, cfg.Org},
	} {
		tint, err := renderer.NewTint(zc.zg.TintTop, zc.zg.TintBottom)
		if err != nil {
			return nil, err
		}
		s.tints[zc.id.Index()] = tint
	}
	return s, nil
}

func (s *shapeSource) Shape(zone components.ZoneID, glyph string) (*components.GlyphShape, error) {
	return s.raster.Shape(glyph, s.tints[zone.Index()])
}

// zoneEvents turns zone manager transitions into timed observer callbacks.
type zoneEvents struct{ e *Engine }

func (z zoneEvents) ZoneActivated(zone *components.Zone) {
	e := z.e
	ev := components.NewActivateEvent(zone)
	delay := e.cfg.Timing.OverlayDelayMS
	if delay <= 0 {
		e.notifyActivate(ev)
		return
	}
	e.timers.Schedule(keyOverlayPrefix+zone.ID.String(), e.Now()+delay, func() {
		e.notifyActivate(ev)
	})
}

func (z zoneEvents) ZoneDeactivated(id components.ZoneID) {
	e := z.e
	// An overlay that was never shown needs no withdrawal.
	shown := !e.timers.Cancel(keyOverlayPrefix + id.String())
	if e.timers.Cancel(keyConfirmPrefix + id.String()) {
		e.notifyConfirmation(id, false)
	}
	if shown {
		e.notifyDeactivate(id)
	}
}

func (z zoneEvents) ZoneSaved(zone *components.Zone) {
	e := z.e
	id := zone.ID
	e.notifyConfirmation(id, true)
	e.timers.Schedule(keyConfirmPrefix+id.String(), e.Now()+e.cfg.Timing.ConfirmMS, func() {
		e.notifyConfirmation(id, false)
	})
}

func (z zoneEvents) ZoneCleared(id components.ZoneID) {
	e := z.e
	if e.timers.Cancel(keyConfirmPrefix + id.String()) {
		e.notifyConfirmation(id, false)
	}
}

var (
	_ zones.ShapeSource = (*shapeSource)(nil)
	_ zones.Listener    = zoneEvents{}
)
