package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPublisherStampsEvent(t *testing.T) {
	publisher := NewLogPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))

	event := Event{Action: ActionPassportIssued, OwnerID: "farmer-1", Token: "77"}
	require.NoError(t, publisher.Emit(context.Background(), event))
}

func TestStampFillsIdentityAndTimestamp(t *testing.T) {
	event := Event{Action: ActionPassportVerified, Token: "77"}
	stamp(&event)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestStampPreservesExistingValues(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)
	event := Event{ID: id, Timestamp: at}
	stamp(&event)

	assert.Equal(t, id, event.ID)
	assert.Equal(t, at, event.Timestamp)
}

func TestEventWireShape(t *testing.T) {
	event := Event{
		ID:        uuid.New(),
		Action:    ActionPassportIssued,
		OwnerID:   "farmer-1",
		Token:     "77",
		ContentID: "cid-abc123",
		Mock:      false,
		Timestamp: time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "passport.issued", decoded["action"])
	assert.Equal(t, "farmer-1", decoded["owner_id"])
	assert.Equal(t, "77", decoded["token"])
}
