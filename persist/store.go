package persist

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"

	"github.com/pthm-cable/glyphfield/components"
)

// Store is the in-memory zone→glyph map, written through to a KV on every
// change. The in-memory map is authoritative: read and write failures are
// logged and otherwise ignored.
type Store struct {
	kv     KV
	key    string
	saved  map[components.ZoneID]string
	logger *slog.Logger
}

// NewStore creates an empty store over kv. Call Load to read persisted state.
func NewStore(kv KV, key string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		key:    key,
		saved:  make(map[components.ZoneID]string),
		logger: logger,
	}
}

// Load replaces the in-memory map with the persisted one. A missing key,
// corrupt JSON, unknown zone ids or an unavailable backend all load as empty.
func (s *Store) Load(ctx context.Context) {
	s.saved = make(map[components.ZoneID]string)

	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("persist_read_failed", "key", s.key, "error", err)
		return
	}
	if !ok {
		return
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("persist_corrupt", "key", s.key, "error", err)
		return
	}
	for name, glyph := range raw {
		id, ok := components.ParseZoneID(name)
		if !ok || glyph == "" {
			continue
		}
		s.saved[id] = glyph
	}
}

// Saved returns a copy of the zone→glyph map.
func (s *Store) Saved() map[components.ZoneID]string {
	return maps.Clone(s.saved)
}

// Glyph returns the saved glyph of a zone.
func (s *Store) Glyph(id components.ZoneID) (string, bool) {
	g, ok := s.saved[id]
	return g, ok
}

// Save records glyph for zone and writes the map.
func (s *Store) Save(ctx context.Context, id components.ZoneID, glyph string) {
	if id == components.ZoneNone || glyph == "" {
		return
	}
	s.saved[id] = glyph
	s.flush(ctx)
}

// Clear forgets a zone and writes the map.
func (s *Store) Clear(ctx context.Context, id components.ZoneID) {
	if _, ok := s.saved[id]; !ok {
		return
	}
	delete(s.saved, id)
	s.flush(ctx)
}

func (s *Store) flush(ctx context.Context) {
	raw := make(map[string]string, len(s.saved))
	for id, glyph := range s.saved {
		raw[id.String()] = glyph
	}
	data, err := json.Marshal(raw)
	if err != nil {
		s.logger.Warn("persist_encode_failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Warn("persist_write_failed", "key", s.key, "error", err)
	}
}
