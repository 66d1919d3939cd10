package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agripass/internal/passport"
	dErrors "agripass/pkg/domain-errors"
)

func newPassport(ownerID, token string, createdAt time.Time) *passport.Passport {
	return &passport.Passport{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		CropType:      "Rice",
		Season:        "Kharif 2024",
		Token:         token,
		ContentID:     "QmContent",
		TransactionID: "0xabc",
		CreatedAt:     createdAt,
	}
}

func TestMemory_CreateAndGetByToken(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	p := newPassport("owner-1", "77", time.Now())
	require.NoError(t, s.Create(ctx, p))

	got, err := s.GetByToken(ctx, "77")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "QmContent", got.ContentID)
}

func TestMemory_GetByToken_NotFound(t *testing.T) {
	s := NewMemory()

	_, err := s.GetByToken(context.Background(), "nonexistent-token-123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMemory_DuplicateTokenRejected(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newPassport("owner-1", "MOCK-abcdef123456", time.Now())))

	err := s.Create(ctx, newPassport("owner-1", "MOCK-abcdef123456", time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateToken))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// The first record must survive untouched.
	got, err := s.GetByToken(ctx, "MOCK-abcdef123456")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", got.OwnerID)
}

func TestMemory_ListByOwner_NewestFirst(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, newPassport("owner-1", "t1", base)))
	require.NoError(t, s.Create(ctx, newPassport("owner-1", "t2", base.Add(time.Hour))))
	require.NoError(t, s.Create(ctx, newPassport("owner-2", "t3", base.Add(2*time.Hour))))

	got, err := s.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].Token)
	assert.Equal(t, "t1", got[1].Token)

	empty, err := s.ListByOwner(ctx, "owner-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newPassport("owner-1", "t1", time.Now())))

	got, err := s.GetByToken(ctx, "t1")
	require.NoError(t, err)
	got.Verified = true

	again, err := s.GetByToken(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, again.Verified, "mutating a returned record must not affect the store")
}
