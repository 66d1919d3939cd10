package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"agripass/internal/passport"
	"agripass/internal/passport/service"
	dErrors "agripass/pkg/domain-errors"
	"agripass/pkg/platform/httputil"
)

// Service defines the interface for passport operations.
type Service interface {
	Issue(ctx context.Context, ownerID string, crop passport.CropFacts, farmer passport.FarmerFacts) (*service.IssueResult, error)
	Verify(ctx context.Context, token string) (*passport.VerificationResult, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*passport.Passport, error)
	Certificate(ctx context.Context, token string) (*service.CertificateView, error)
}

// LedgerInfo reports ledger connectivity for the status endpoint.
type LedgerInfo interface {
	Connected(ctx context.Context) bool
	ChainID() int64
}

// CacheInfo reports verification-cache health for the status endpoint.
type CacheInfo interface {
	Health(ctx context.Context) error
}

// Handler wires passport endpoints to the passport service.
type Handler struct {
	service      Service
	ledger       LedgerInfo
	cache        CacheInfo
	logger       *slog.Logger
	contentStore string
	storage      string
}

// Option configures a Handler.
type Option func(*Handler)

// WithCache enables cache-health reporting on the status endpoint.
func WithCache(cache CacheInfo) Option {
	return func(h *Handler) { h.cache = cache }
}

// New constructs a passport handler. contentStore and storage name the
// configured backends for the status endpoint ("pinata" or "local",
// "postgres" or "memory").
func New(service Service, ledger LedgerInfo, contentStore, storage string, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		ledger:       ledger,
		logger:       logger,
		contentStore: contentStore,
		storage:      storage,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts passport endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/passports", h.HandleIssue)
	r.Get("/passports", h.HandleList)
	r.Get("/verify/{token}", h.HandleVerify)
	r.Get("/certificate/{token}", h.HandleCertificate)
	r.Get("/status", h.HandleStatus)
}

// HandleIssue handles POST /passports requests.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req IssueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Issue(ctx, req.OwnerID, req.CropFacts(), req.FarmerFacts())
	if err != nil {
		h.logger.ErrorContext(ctx, "passport issuance failed",
			"owner_id", req.OwnerID,
			"crop_type", req.Crop.CropType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "passport issued",
		"owner_id", req.OwnerID,
		"token", result.Passport.Token,
		"mock", result.Passport.Mock,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromIssueResult(result))
}

// HandleList handles GET /passports requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if ownerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "owner_id query parameter is required"))
		return
	}

	records, err := h.service.ListByOwner(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "passport listing failed", "owner_id", ownerID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromPassports(records))
}

// HandleVerify handles GET /verify/{token} requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	result, err := h.service.Verify(ctx, token)
	if err != nil {
		h.logger.ErrorContext(ctx, "passport verification failed", "token", token, "error", err)
		httputil.WriteError(w, err)
		return
	}

	// An unknown token is a negative answer, not an error.
	httputil.WriteJSON(w, http.StatusOK, FromVerificationResult(result))
}

// HandleCertificate handles GET /certificate/{token} requests.
func (h *Handler) HandleCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	view, err := h.service.Certificate(ctx, token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &CertificateResponse{
		Passport:        fromPassport(view.Passport),
		VerificationURL: view.VerificationURL,
	})
}

// HandleStatus handles GET /status requests.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ledgerState := "disconnected"
	if h.ledger != nil && h.ledger.Connected(ctx) {
		ledgerState = "connected"
	}
	var chainID int64
	if h.ledger != nil {
		chainID = h.ledger.ChainID()
	}

	cacheState := "disabled"
	if h.cache != nil {
		cacheState = "available"
		if err := h.cache.Health(ctx); err != nil {
			cacheState = "unavailable"
		}
	}

	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{
		ContentStore: h.contentStore,
		Ledger:       ledgerState,
		ChainID:      chainID,
		Storage:      h.storage,
		Cache:        cacheState,
	})
}
