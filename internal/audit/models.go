package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the issuance pipeline.
const (
	ActionPassportIssued   = "passport.issued"
	ActionPassportVerified = "passport.verified"
)

// Event is one entry in the issuance audit trail. It records the anchoring
// facts at the moment of the operation so later disputes can be settled
// without re-deriving them.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Token     string    `json:"token"`
	ContentID string    `json:"content_id,omitempty"`
	Mock      bool      `json:"mock"`
	Timestamp time.Time `json:"timestamp"`
}
