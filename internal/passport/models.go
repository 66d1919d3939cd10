package passport

import (
	"time"

	"github.com/google/uuid"

	dErrors "agripass/pkg/domain-errors"
)

// CropFacts describes the crop batch being certified. Callers supply it
// already validated for ownership; Validate only enforces structural
// requirements before any external call is attempted.
type CropFacts struct {
	CropType       string
	Variety        string
	Season         string
	SowingDate     string
	HarvestDate    string
	Area           float64
	Practices      []string
	Certifications []string
}

// Validate rejects facts that would produce an empty certificate.
func (c CropFacts) Validate() error {
	if c.CropType == "" {
		return dErrors.New(dErrors.CodeBadRequest, "crop type is required")
	}
	if c.Season == "" {
		return dErrors.New(dErrors.CodeBadRequest, "season is required")
	}
	return nil
}

// FarmerFacts identifies the certified producer. The web layer is responsible
// for constructing it from whichever profile representation it stores.
type FarmerFacts struct {
	Name       string
	Location   string
	Experience string
}

func (f FarmerFacts) Validate() error {
	if f.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "farmer name is required")
	}
	return nil
}

// AnchorResult reports the outcome of a ledger anchoring attempt. Confirmed
// is true only when the ledger returned an included-transaction receipt; Mock
// marks locally derived token/transaction pairs so downstream logic never has
// to sniff string prefixes.
type AnchorResult struct {
	Token         string
	TransactionID string
	Confirmed     bool
	Mock          bool
}

// Passport is the durable certificate record. It is written exactly once on
// issuance and never deleted; only Verified may change afterwards, through an
// out-of-band process.
type Passport struct {
	ID            uuid.UUID
	OwnerID       string
	CropType      string
	Season        string
	Token         string
	ContentID     string
	TransactionID string
	Mock          bool
	Confirmed     bool
	Verified      bool
	CreatedAt     time.Time
}

// VerificationResult is the read-path answer for a token lookup. Found=false
// is a normal outcome for unknown or foreign tokens, not an error.
type VerificationResult struct {
	Found    bool
	Mock     bool
	Verified bool
	Passport *Passport
}
