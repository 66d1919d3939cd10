package store

import (
	"context"
	"sort"
	"sync"

	"agripass/internal/passport"
)

// Memory keeps passports in process memory. It intentionally favors clarity
// over performance and backs tests and dependency-free local runs.
type Memory struct {
	mu        sync.RWMutex
	byToken   map[string]*passport.Passport
	byOwnerID map[string][]*passport.Passport
}

// NewMemory constructs an empty in-memory passport store.
func NewMemory() *Memory {
	return &Memory{
		byToken:   make(map[string]*passport.Passport),
		byOwnerID: make(map[string][]*passport.Passport),
	}
}

func (s *Memory) Create(_ context.Context, p *passport.Passport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byToken[p.Token]; exists {
		return ErrDuplicateToken
	}
	stored := *p
	s.byToken[p.Token] = &stored
	s.byOwnerID[p.OwnerID] = append(s.byOwnerID[p.OwnerID], &stored)
	return nil
}

func (s *Memory) GetByToken(_ context.Context, token string) (*passport.Passport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.byToken[token]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *Memory) ListByOwner(_ context.Context, ownerID string) ([]*passport.Passport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := s.byOwnerID[ownerID]
	out := make([]*passport.Passport, 0, len(owned))
	for _, p := range owned {
		copied := *p
		out = append(out, &copied)
	}
	// Newest first; insertion order breaks ties so repeated timestamps stay
	// stable.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
