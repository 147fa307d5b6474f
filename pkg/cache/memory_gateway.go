package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// MemoryGateway is an in-process Gateway backed by a map, used by
// component tests and by cmd/palisade's smoke-test bootstrap in place of
// a SQLiteGateway.
type MemoryGateway struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryGateway returns a ready-to-use MemoryGateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{entries: make(map[string]memoryEntry)}
}

func memoryKey(service, key string) string {
	return service + "\x00" + key
}

func (g *MemoryGateway) Add(_ context.Context, service, key string, value any, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	g.mu.Lock()
	g.entries[memoryKey(service, key)] = memoryEntry{value: raw, expiresAt: expiresAt}
	g.mu.Unlock()

	return true, nil
}

func (g *MemoryGateway) Get(_ context.Context, service, key string, out any) (bool, error) {
	g.mu.RLock()
	entry, ok := g.entries[memoryKey(service, key)]
	g.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		g.mu.Lock()
		delete(g.entries, memoryKey(service, key))
		g.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(entry.value, out); err != nil {
		return false, err
	}
	return true, nil
}

func (g *MemoryGateway) List(_ context.Context, service, prefix string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	want := memoryKey(service, prefix)
	now := time.Now()
	keys := []string{}
	for k, entry := range g.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			continue
		}
		if !strings.HasPrefix(k, memoryKey(service, "")) {
			continue
		}
		if !strings.HasPrefix(k, want) {
			continue
		}
		_, key, _ := strings.Cut(k, "\x00")
		keys = append(keys, key)
	}
	return keys, nil
}
