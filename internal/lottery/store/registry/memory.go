package registry

import (
	"context"
	"sync"

	"lotellar/internal/lottery/models"
	"lotellar/pkg/platform/sentinel"
)

// InMemory keeps the registry in process. Load and Save exchange deep copies
// so a caller's in-flight mutations never leak into stored state.
// Serialization of whole operations is the job of service.NewLockedTx.
type InMemory struct {
	mu       sync.RWMutex
	registry *models.Registry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Load(_ context.Context) (*models.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.registry == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.registry.Clone(), nil
}

func (s *InMemory) Save(_ context.Context, registry *models.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry.Clone()
	return nil
}

// Ping always succeeds; it lets the memory backend share the health check path.
func (s *InMemory) Ping(_ context.Context) error {
	return nil
}
