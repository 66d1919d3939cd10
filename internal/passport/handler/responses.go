package handler

import (
	"time"

	"agripass/internal/passport"
	"agripass/internal/passport/metadata"
	"agripass/internal/passport/service"
)

// PassportResponse is the wire shape of a stored passport.
type PassportResponse struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	CropType      string    `json:"crop_type"`
	Season        string    `json:"season"`
	Token         string    `json:"token"`
	ContentID     string    `json:"content_id"`
	TransactionID string    `json:"transaction_id"`
	Mock          bool      `json:"mock"`
	Confirmed     bool      `json:"confirmed"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// IssueResponse is the HTTP response for POST /passports.
type IssueResponse struct {
	Passport        PassportResponse             `json:"passport"`
	Metadata        metadata.CertificateMetadata `json:"metadata"`
	VerificationURL string                       `json:"verification_url"`
}

// VerifyResponse is the HTTP response for GET /verify/{token}.
type VerifyResponse struct {
	Found    bool              `json:"found"`
	Mock     bool              `json:"mock"`
	Verified bool              `json:"verified"`
	Passport *PassportResponse `json:"passport,omitempty"`
}

// ListResponse is the HTTP response for GET /passports.
type ListResponse struct {
	Passports []PassportResponse `json:"passports"`
}

// CertificateResponse is the HTTP response for GET /certificate/{token}.
type CertificateResponse struct {
	Passport        PassportResponse `json:"passport"`
	VerificationURL string           `json:"verification_url"`
}

// StatusResponse is the HTTP response for GET /status.
type StatusResponse struct {
	ContentStore string `json:"content_store"`
	Ledger       string `json:"ledger"`
	ChainID      int64  `json:"chain_id"`
	Storage      string `json:"storage"`
	Cache        string `json:"cache"`
}

func fromPassport(p *passport.Passport) PassportResponse {
	return PassportResponse{
		ID:            p.ID.String(),
		OwnerID:       p.OwnerID,
		CropType:      p.CropType,
		Season:        p.Season,
		Token:         p.Token,
		ContentID:     p.ContentID,
		TransactionID: p.TransactionID,
		Mock:          p.Mock,
		Confirmed:     p.Confirmed,
		Verified:      p.Verified,
		CreatedAt:     p.CreatedAt,
	}
}

// FromIssueResult converts a domain issuance result to an HTTP response.
func FromIssueResult(result *service.IssueResult) *IssueResponse {
	return &IssueResponse{
		Passport:        fromPassport(result.Passport),
		Metadata:        result.Metadata,
		VerificationURL: result.VerificationURL,
	}
}

// FromVerificationResult converts a domain verification result to an HTTP
// response.
func FromVerificationResult(result *passport.VerificationResult) *VerifyResponse {
	resp := &VerifyResponse{
		Found:    result.Found,
		Mock:     result.Mock,
		Verified: result.Verified,
	}
	if result.Passport != nil {
		p := fromPassport(result.Passport)
		resp.Passport = &p
	}
	return resp
}

// FromPassports converts a list of stored passports to an HTTP response.
func FromPassports(records []*passport.Passport) *ListResponse {
	resp := &ListResponse{Passports: make([]PassportResponse, 0, len(records))}
	for _, p := range records {
		resp.Passports = append(resp.Passports, fromPassport(p))
	}
	return resp
}
