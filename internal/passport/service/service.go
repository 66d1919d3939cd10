// Package service composes the issuance pipeline: build metadata, upload it
// to the content store, anchor the identifier on the ledger, persist the
// passport. External-service degradation is absorbed by the clients and
// reflected as data (mock/confirmed flags); only malformed input and
// persistence failure propagate as errors, so the success boundary of an
// issuance is independent of two inherently flaky dependencies.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"agripass/internal/audit"
	"agripass/internal/ledger"
	"agripass/internal/passport"
	"agripass/internal/passport/metadata"
	"agripass/internal/passport/metrics"
	dErrors "agripass/pkg/domain-errors"
)

// ContentStore uploads canonical metadata bytes and returns a content
// identifier. Implementations must not fail; unavailability degrades to a
// deterministic local identifier.
type ContentStore interface {
	Upload(ctx context.Context, content []byte, name string) string
}

// Ledger anchors a content identifier. Implementations must not fail;
// unavailability degrades to a deterministic mock anchor.
type Ledger interface {
	Anchor(ctx context.Context, contentID, ownerRef string) passport.AnchorResult
}

// Store persists passport records. Unlike the two clients above, its
// failures are correctness-relevant and are surfaced to the caller.
type Store interface {
	Create(ctx context.Context, p *passport.Passport) error
	GetByToken(ctx context.Context, token string) (*passport.Passport, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*passport.Passport, error)
}

// Service owns the write path into the passport store and the token read
// path used by QR scanning and certificate lookup.
type Service struct {
	content ContentStore
	ledger  Ledger
	store   Store
	builder *metadata.Builder
	baseURL string
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Publisher
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithClock fixes the service clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service. baseURL is the public base for verification
// URLs.
func New(content ContentStore, ldg Ledger, store Store, builder *metadata.Builder, baseURL string, opts ...Option) *Service {
	s := &Service{
		content: content,
		ledger:  ldg,
		store:   store,
		builder: builder,
		baseURL: baseURL,
		logger:  slog.Default(),
		tracer:  otel.Tracer("agripass/internal/passport/service"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueResult is everything a caller needs after a successful issuance: the
// durable record, the metadata that was anchored, and the public
// verification URL derived from the token.
type IssueResult struct {
	Passport        *passport.Passport
	Metadata        metadata.CertificateMetadata
	VerificationURL string
}

// Issue runs one issuance as an independent unit of work. The content upload
// and anchoring attempt are not reversed on persistence failure; both
// fallbacks are deterministic, so a retried call converges on the same
// identifiers instead of producing duplicate anchors with different
// identities.
func (s *Service) Issue(ctx context.Context, ownerID string, crop passport.CropFacts, farmer passport.FarmerFacts) (*IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "passport.issue")
	defer span.End()
	start := time.Now()

	// Fail fast before any external call so rejected input has no partial
	// side effects.
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner id is required")
	}
	if err := crop.Validate(); err != nil {
		return nil, err
	}
	if err := farmer.Validate(); err != nil {
		return nil, err
	}

	meta := s.builder.Build(crop, farmer)
	canonical, err := meta.CanonicalBytes()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "serialize certificate metadata")
	}

	contentID := s.content.Upload(ctx, canonical, meta.Certificate.ID)
	anchor := s.ledger.Anchor(ctx, contentID, ownerID)

	record := &passport.Passport{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		CropType:      crop.CropType,
		Season:        crop.Season,
		Token:         anchor.Token,
		ContentID:     contentID,
		TransactionID: anchor.TransactionID,
		Mock:          anchor.Mock,
		Confirmed:     anchor.Confirmed,
		Verified:      false,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		s.metrics.RecordIssuance("failed")
		s.logger.ErrorContext(ctx, "passport persistence failed",
			"owner_id", ownerID,
			"token", anchor.Token,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "persist passport")
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionPassportIssued,
		OwnerID:   ownerID,
		Token:     record.Token,
		ContentID: record.ContentID,
		Mock:      record.Mock,
	})

	outcome := "anchored"
	if anchor.Mock {
		outcome = "mock"
	}
	s.metrics.RecordIssuance(outcome)
	s.metrics.ObserveIssueLatency(time.Since(start))
	s.logger.InfoContext(ctx, "passport issued",
		"owner_id", ownerID,
		"crop_type", crop.CropType,
		"token", record.Token,
		"content_id", contentID,
		"confirmed", anchor.Confirmed,
		"mock", anchor.Mock,
	)

	return &IssueResult{
		Passport:        record,
		Metadata:        meta,
		VerificationURL: s.verificationURL(record.Token),
	}, nil
}

// Verify answers a token lookup from the record captured at issuance time.
// It never contacts the ledger: loss of ledger connectivity after issuance
// must not make previously issued passports unverifiable.
func (s *Service) Verify(ctx context.Context, token string) (*passport.VerificationResult, error) {
	if ledger.IsMockToken(token) {
		// Recognized structurally, with no dependency on the repository
		// being reachable. The record is attached when available.
		result := &passport.VerificationResult{Found: true, Mock: true}
		if p, err := s.store.GetByToken(ctx, token); err == nil {
			result.Passport = p
			result.Verified = p.Verified
		}
		s.metrics.RecordVerification("mock")
		s.emitAudit(ctx, audit.Event{Action: audit.ActionPassportVerified, Token: token, Mock: true})
		return result, nil
	}

	p, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.RecordVerification("not_found")
			return &passport.VerificationResult{Found: false}, nil
		}
		return nil, err
	}

	s.metrics.RecordVerification("found")
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionPassportVerified,
		OwnerID:   p.OwnerID,
		Token:     p.Token,
		ContentID: p.ContentID,
		Mock:      p.Mock,
	})
	return &passport.VerificationResult{
		Found:    true,
		Mock:     p.Mock,
		Verified: p.Verified,
		Passport: p,
	}, nil
}

// ListByOwner returns the owner's passports, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*passport.Passport, error) {
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner id is required")
	}
	return s.store.ListByOwner(ctx, ownerID)
}

// CertificateView is the data certificate-rendering collaborators consume.
type CertificateView struct {
	Passport        *passport.Passport
	VerificationURL string
}

// Certificate returns the stored record for certificate rendering, or
// NotFound for unknown tokens.
func (s *Service) Certificate(ctx context.Context, token string) (*CertificateView, error) {
	p, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &CertificateView{
		Passport:        p,
		VerificationURL: s.verificationURL(p.Token),
	}, nil
}

func (s *Service) verificationURL(token string) string {
	return s.baseURL + "/verify/" + token
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
