package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agripass/internal/passport"
)

// CertificateMetadata is the canonical content object anchored for each
// passport. Every field carries a defined default and no key is ever omitted
// from the serialized form: downstream content addressing depends on the
// structure being stable regardless of how sparse the input facts were.
type CertificateMetadata struct {
	Certificate Certificate `json:"certificate"`
	Farmer      Farmer      `json:"farmer_information"`
	Crop        Crop        `json:"crop_details"`
	Practices   Practices   `json:"farming_practices"`
	Footer      Footer      `json:"certificate_footer"`
}

type Certificate struct {
	Title     string `json:"title"`
	Type      string `json:"type"`
	ID        string `json:"certificate_id"`
	IssuedBy  string `json:"issued_by"`
	IssueDate string `json:"issue_date"`
	Validity  string `json:"validity"`
	Status    string `json:"status"`
}

type Farmer struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	Grade      string `json:"farmer_grade"`
	Experience string `json:"experience"`
}

type Crop struct {
	Name         string `json:"crop_name"`
	Variety      string `json:"variety"`
	Season       string `json:"growing_season"`
	SowingDate   string `json:"sowing_date"`
	HarvestDate  string `json:"harvest_date"`
	Area         string `json:"cultivation_area"`
	QualityGrade string `json:"quality_grade"`
}

type Practices struct {
	Methods             []string `json:"methods"`
	SustainabilityScore string   `json:"sustainability_score"`
	Certifications      []string `json:"certifications"`
}

type Footer struct {
	CreatedAt       string `json:"created_timestamp"`
	Version         string `json:"version"`
	VerificationURL string `json:"verification_url"`
	Disclaimer      string `json:"disclaimer"`
}

// Placeholders used when input facts are missing. Absence is always
// represented explicitly, never by dropping a key.
const (
	defaultVariety  = "Premium Grade"
	defaultPractice = "Sustainable Farming"
	missingDate     = "N/A"
	unknownLocation = "Unknown"
)

// Builder assembles certificate metadata from crop and farmer facts. The
// clock and id-suffix source are injectable so retried issuances can be made
// byte-identical in tests; production uses wall time and random suffixes.
type Builder struct {
	baseURL string
	now     func() time.Time
	suffix  func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock fixes the builder's notion of now.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithSuffixSource replaces the random certificate id suffix source.
func WithSuffixSource(suffix func() string) Option {
	return func(b *Builder) { b.suffix = suffix }
}

// NewBuilder constructs a Builder. baseURL is the public verification base,
// e.g. "https://agripass.example.org".
func NewBuilder(baseURL string, opts ...Option) *Builder {
	b := &Builder{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		suffix: func() string {
			return strings.ToUpper(uuid.NewString()[:8])
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build is a pure transformation of facts into metadata; it performs no I/O.
// Defaulting rules: missing variety becomes "Premium Grade", a missing
// practices list becomes a single sustainable-farming tag, and missing dates
// become an explicit "N/A" marker.
func (b *Builder) Build(crop passport.CropFacts, farmer passport.FarmerFacts) CertificateMetadata {
	now := b.now().UTC()
	certID := fmt.Sprintf("AGP-%s-%s", now.Format("20060102"), b.suffix())

	variety := crop.Variety
	if variety == "" {
		variety = defaultVariety
	}
	practices := crop.Practices
	if len(practices) == 0 {
		practices = []string{defaultPractice}
	}
	certifications := crop.Certifications
	if len(certifications) == 0 {
		certifications = []string{"Quality Assured"}
	}
	area := crop.Area
	if area == 0 {
		area = 1.0
	}
	location := farmer.Location
	if location == "" {
		location = unknownLocation
	}
	experience := farmer.Experience
	if experience == "" {
		experience = "Verified Agricultural Producer"
	}

	return CertificateMetadata{
		Certificate: Certificate{
			Title:     fmt.Sprintf("Digital Crop Passport - %s", strings.ToUpper(crop.CropType)),
			Type:      "Blockchain Verified Agricultural Certificate",
			ID:        certID,
			IssuedBy:  "AgriPass Crop Certification",
			IssueDate: now.Format("January 2, 2006"),
			Validity:  "Permanent",
			Status:    "Issued",
		},
		Farmer: Farmer{
			Name:       farmer.Name,
			Location:   location,
			Grade:      "A+ Certified Sustainable Farmer",
			Experience: experience,
		},
		Crop: Crop{
			Name:         crop.CropType,
			Variety:      variety,
			Season:       crop.Season,
			SowingDate:   orMissing(crop.SowingDate),
			HarvestDate:  orMissing(crop.HarvestDate),
			Area:         fmt.Sprintf("%.2f acres", area),
			QualityGrade: "Grade A Premium",
		},
		Practices: Practices{
			Methods:             practices,
			SustainabilityScore: "92/100",
			Certifications:      certifications,
		},
		Footer: Footer{
			CreatedAt:       now.Format(time.RFC3339),
			Version:         "2.0",
			VerificationURL: b.baseURL + "/verify/" + certID,
			Disclaimer:      "This certificate is cryptographically secured and publicly verifiable.",
		},
	}
}

// CanonicalBytes serializes the metadata into its canonical byte form. Field
// order is fixed by the struct definition, so identical metadata always
// yields identical bytes; these are the only bytes that may be hashed or
// uploaded.
func (m CertificateMetadata) CanonicalBytes() ([]byte, error) {
	return json.Marshal(m)
}

func orMissing(v string) string {
	if v == "" {
		return missingDate
	}
	return v
}
