package handler

import (
	"strings"

	"agripass/internal/passport"
	dErrors "agripass/pkg/domain-errors"
)

// IssueRequest is the HTTP request body for POST /passports.
type IssueRequest struct {
	OwnerID string        `json:"owner_id"`
	Crop    CropRequest   `json:"crop"`
	Farmer  FarmerRequest `json:"farmer"`
}

// CropRequest carries the crop facts of an issuance request.
type CropRequest struct {
	CropType       string   `json:"crop_type"`
	Variety        string   `json:"variety"`
	Season         string   `json:"season"`
	SowingDate     string   `json:"sowing_date"`
	HarvestDate    string   `json:"harvest_date"`
	Area           float64  `json:"area"`
	Practices      []string `json:"practices"`
	Certifications []string `json:"certifications"`
}

// FarmerRequest carries the farmer facts of an issuance request.
type FarmerRequest struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	Experience string `json:"experience"`
}

// Validate checks the request shape. Field-level rules live on the domain
// types; this only normalizes and rejects an empty envelope.
func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner_id is required")
	}
	return nil
}

// CropFacts converts the request body to the domain type.
func (r *IssueRequest) CropFacts() passport.CropFacts {
	return passport.CropFacts{
		CropType:       strings.TrimSpace(r.Crop.CropType),
		Variety:        strings.TrimSpace(r.Crop.Variety),
		Season:         strings.TrimSpace(r.Crop.Season),
		SowingDate:     strings.TrimSpace(r.Crop.SowingDate),
		HarvestDate:    strings.TrimSpace(r.Crop.HarvestDate),
		Area:           r.Crop.Area,
		Practices:      r.Crop.Practices,
		Certifications: r.Crop.Certifications,
	}
}

// FarmerFacts converts the request body to the domain type.
func (r *IssueRequest) FarmerFacts() passport.FarmerFacts {
	return passport.FarmerFacts{
		Name:       strings.TrimSpace(r.Farmer.Name),
		Location:   strings.TrimSpace(r.Farmer.Location),
		Experience: strings.TrimSpace(r.Farmer.Experience),
	}
}
