package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and by dev mode when no
// database is configured. Safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	integrations map[uuid.UUID]Integration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{integrations: make(map[uuid.UUID]Integration)}
}

func (s *MemoryStore) ListIntegrations(ctx context.Context) ([]Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	integrations := make([]Integration, 0, len(s.integrations))
	for _, integ := range s.integrations {
		integrations = append(integrations, integ)
	}

	sort.Slice(integrations, func(i, j int) bool {
		return integrations[i].CreatedAt.Before(integrations[j].CreatedAt)
	})

	return integrations, nil
}

func (s *MemoryStore) GetIntegration(ctx context.Context, id uuid.UUID) (Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	integ, ok := s.integrations[id]
	if !ok {
		return Integration{}, ErrNotFound
	}

	return integ, nil
}

func (s *MemoryStore) CreateIntegration(ctx context.Context, integ Integration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.integrations {
		if existing.AccountID == integ.AccountID {
			return false, nil
		}
	}

	s.integrations[integ.ID] = integ
	return true, nil
}

func (s *MemoryStore) UpdateToken(ctx context.Context, id uuid.UUID, upd TokenUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	integ, ok := s.integrations[id]
	if !ok {
		return &PersistError{IntegrationID: id, Err: ErrNotFound}
	}

	integ.AccessToken = upd.AccessToken
	integ.TokenExpiry = upd.Expiry
	if upd.RefreshToken != "" {
		integ.RefreshToken = upd.RefreshToken
	}
	s.integrations[id] = integ

	return nil
}

func (s *MemoryStore) DeleteIntegration(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.integrations[id]; !ok {
		return ErrNotFound
	}
	delete(s.integrations, id)

	return nil
}
