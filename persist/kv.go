// Package persist stores the saved zone→glyph mapping in a key-value backend.
//
// Backends:
//   - memory: process-local, for tests and headless runs
//   - file: one JSON file per key under a config directory
//   - redis: shared storage for hosts that run several instances
package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pthm-cable/glyphfield/config"
)

// KV is a durable byte store. Get reports a missing key as (nil, false, nil).
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Close() error
}

// MemoryKV keeps values in a map.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryKV) Close() error { return nil }

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.PersistConfig) (KV, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryKV(), nil
	case "file":
		dir := cfg.Dir
		if dir == "" {
			base, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("locating config dir: %w", err)
			}
			dir = filepath.Join(base, "glyphfield")
		}
		return NewFileKV(dir)
	case "redis":
		timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
		return NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisDB, timeout)
	}
	return nil, fmt.Errorf("unknown persist backend %q", cfg.Backend)
}

// Ensure implementations satisfy KV.
var (
	_ KV = (*MemoryKV)(nil)
	_ KV = (*FileKV)(nil)
	_ KV = (*RedisKV)(nil)
)
