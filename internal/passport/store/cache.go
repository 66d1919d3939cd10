package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"agripass/internal/passport"
)

const tokenCacheKeyPrefix = "agripass:token:"

// Cached wraps another Store with a Redis read-through cache on the token
// lookup path. Passports are immutable after creation apart from the
// verified flag, so the cache TTL is the only staleness bound needed for
// that flag. Redis outages fall through to the underlying store silently.
type Cached struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached constructs a cached store. The Redis client lifecycle is managed
// externally.
func NewCached(next Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, client: client, ttl: ttl, logger: logger}
}

func (s *Cached) Create(ctx context.Context, p *passport.Passport) error {
	return s.next.Create(ctx, p)
}

func (s *Cached) GetByToken(ctx context.Context, token string) (*passport.Passport, error) {
	key := tokenCacheKeyPrefix + token

	if payload, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var p passport.Passport
		if err := json.Unmarshal(payload, &p); err == nil {
			return &p, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		s.client.Del(ctx, key)
	}

	p, err := s.next.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(p); err == nil {
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "token cache write failed", "error", err)
		}
	}
	return p, nil
}

func (s *Cached) ListByOwner(ctx context.Context, ownerID string) ([]*passport.Passport, error) {
	return s.next.ListByOwner(ctx, ownerID)
}
