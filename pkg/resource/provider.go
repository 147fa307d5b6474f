// Package resource implements the Resource Provider: expansion of a
// logical resource name into concrete leaf resources, each
// paired with a connection descriptor.
package resource

import (
	"context"
	"sync"

	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/rs/zerolog"
)

// Provider expands logical resource names into leaves. AddResource is
// optional: providers backed by a real enumeration (filesystem, catalog
// walk) may reject it with perrors.KindInvalidArgument.
type Provider interface {
	// GetResourcesByID expands name to every leaf resource it backs.
	// Fails with perrors.CodeResourceNotFound if name is unknown.
	GetResourcesByID(ctx context.Context, name string) ([]model.ResourceAccess, error)

	// AddResource registers the resources backing name. Returns false,
	// without error, if the provider accepted the call but made no
	// change (e.g. name already registered with the same resources).
	AddResource(ctx context.Context, name string, resources []model.ResourceAccess) (bool, error)
}

// MemoryProvider is an in-memory, name-keyed Provider fixture: an
// RWMutex-guarded map keyed by a logical resource name.
type MemoryProvider struct {
	mu        sync.RWMutex
	resources map[string][]model.ResourceAccess
	logger    zerolog.Logger
}

// NewMemoryProvider returns a ready-to-use MemoryProvider with no
// registered names.
func NewMemoryProvider(logger zerolog.Logger) *MemoryProvider {
	return &MemoryProvider{
		resources: make(map[string][]model.ResourceAccess),
		logger:    logger.With().Str("component", "resource-provider").Logger(),
	}
}

func (p *MemoryProvider) GetResourcesByID(_ context.Context, name string) ([]model.ResourceAccess, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	resources, ok := p.resources[name]
	if !ok {
		p.logger.Debug().Str("name", name).Msg("resource not found")
		return nil, perrors.NewNotFound("resource not found", nil).
			WithCode(perrors.CodeResourceNotFound).WithResource(name).WithOperation("GetResourcesByID")
	}

	out := make([]model.ResourceAccess, len(resources))
	copy(out, resources)
	return out, nil
}

func (p *MemoryProvider) AddResource(_ context.Context, name string, resources []model.ResourceAccess) (bool, error) {
	if name == "" {
		return false, perrors.NewInvalidArgument("resource name is required", nil).WithOperation("AddResource")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	stored := make([]model.ResourceAccess, len(resources))
	copy(stored, resources)
	p.resources[name] = stored
	p.logger.Debug().Str("name", name).Int("leaves", len(stored)).Msg("resource registered")
	return true, nil
}
