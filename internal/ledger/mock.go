package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"

	"agripass/internal/passport"
)

// mockTokenPrefix is the reserved textual marker for locally anchored
// passports. Verifiers recognize it without contacting any external system.
const mockTokenPrefix = "MOCK-"

var mockTokenPattern = regexp.MustCompile(`^MOCK-[0-9a-f]{12}$`)

// MockAnchor deterministically derives a token and pseudo-transaction
// identifier from (ownerRef, contentID) and the hour bucket of at. Retried
// issuances within the same hour converge on identical identifiers, which is
// what makes the write path idempotent when the ledger is down.
func MockAnchor(ownerRef, contentID string, at time.Time) passport.AnchorResult {
	bucket := at.UTC().Truncate(time.Hour).Format(time.RFC3339)
	sum := sha256.Sum256([]byte(ownerRef + "|" + contentID + "|" + bucket))
	digest := hex.EncodeToString(sum[:])

	return passport.AnchorResult{
		Token:         mockTokenPrefix + digest[:12],
		TransactionID: "0x" + digest,
		Confirmed:     false,
		Mock:          true,
	}
}

// IsMockToken reports whether token matches the reserved mock format.
func IsMockToken(token string) bool {
	return mockTokenPattern.MatchString(token)
}
