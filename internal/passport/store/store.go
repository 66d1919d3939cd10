package store

import (
	"context"

	"agripass/internal/passport"
)

// Store is interface-driven to keep the issuance and verification logic
// testable and to allow swapping in-memory and Postgres persistence without
// rewiring business code.
type Store interface {
	// Create persists a new passport. Token uniqueness is enforced at the
	// storage layer; a racing create on the same token returns ErrDuplicateToken.
	Create(ctx context.Context, p *passport.Passport) error

	// GetByToken returns the passport with the given external token, or
	// ErrNotFound.
	GetByToken(ctx context.Context, token string) (*passport.Passport, error)

	// ListByOwner returns the owner's passports in creation order, newest
	// first.
	ListByOwner(ctx context.Context, ownerID string) ([]*passport.Passport, error)
}
