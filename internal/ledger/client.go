// Package ledger anchors content identifiers on an EVM testnet. The ledger
// is an untrusted, sometimes-unavailable dependency: anchoring never blocks
// issuance indefinitely and never fails the caller. Every attempt walks one
// state machine — unconnected, submitting, awaiting confirmation, confirmed —
// with a single fallback exit to a deterministic mock anchor.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"agripass/internal/passport"
	"agripass/internal/platform/config"
)

var anchorOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "agripass_ledger_anchor_outcomes_total",
	Help: "Anchor attempts by outcome",
}, []string{"outcome"}) // outcome: "confirmed", "mock"

// anchorGasLimit covers a zero-value self-transfer carrying calldata.
const anchorGasLimit = 50_000

const defaultPollInterval = 2 * time.Second

// backend is the slice of the Ethereum client the anchoring flow uses.
// ethclient.Client satisfies it; tests substitute a scripted fake.
type backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client anchors content identifiers. A nil backend or missing signing key
// means every Anchor call goes straight to the mock path.
type Client struct {
	eth            backend
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	from           common.Address
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for degraded-path reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithBackend substitutes the Ethereum backend, mainly for tests.
func WithBackend(b backend) Option {
	return func(c *Client) { c.eth = b }
}

// WithClock fixes the clock used for mock token derivation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithPollInterval overrides the receipt polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New constructs a Client. Setup failures (bad key, unreachable RPC) are
// absorbed into the unconnected state rather than returned: the ledger being
// unusable must not prevent the service from starting.
func New(cfg config.LedgerConfig, opts ...Option) *Client {
	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout == 0 {
		confirmTimeout = 90 * time.Second
	}
	c := &Client{
		chainID:        big.NewInt(cfg.ChainID),
		confirmTimeout: confirmTimeout,
		pollInterval:   defaultPollInterval,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(trimHexPrefix(cfg.PrivateKey))
		if err != nil {
			c.logger.Warn("invalid ledger signing key, anchoring will use mock path", "error", err)
		} else {
			c.key = key
			c.from = crypto.PubkeyToAddress(key.PublicKey)
		}
	}

	if c.eth == nil && cfg.RPCURL != "" {
		eth, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			c.logger.Warn("ledger RPC unreachable, anchoring will use mock path", "error", err)
		} else {
			c.eth = eth
		}
	}

	return c
}

// Anchor records contentID on the ledger and returns the resulting token and
// transaction identifier. It never returns an error: any failure between
// submission and the bounded confirmation wait falls back to a deterministic
// mock anchor derived from (ownerRef, contentID, hour bucket).
func (c *Client) Anchor(ctx context.Context, contentID, ownerRef string) passport.AnchorResult {
	if c.eth == nil || c.key == nil {
		return c.mock(ctx, contentID, ownerRef, "ledger not configured")
	}

	result, err := c.submit(ctx, contentID, ownerRef)
	if err != nil {
		return c.mock(ctx, contentID, ownerRef, err.Error())
	}
	anchorOutcomes.WithLabelValues("confirmed").Inc()
	return result
}

func (c *Client) submit(ctx context.Context, contentID, ownerRef string) (passport.AnchorResult, error) {
	// The confirmation wait is the single bounded blocking point in the
	// issuance pipeline; callers must not hold locks across it.
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return passport.AnchorResult{}, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return passport.AnchorResult{}, fmt.Errorf("fetch gas price: %w", err)
	}

	data := []byte("PASSPORT:" + ownerRef + ":" + contentID)
	tx := types.NewTransaction(nonce, c.from, big.NewInt(0), anchorGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return passport.AnchorResult{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return passport.AnchorResult{}, fmt.Errorf("submit transaction: %w", err)
	}

	receipt, err := c.waitReceipt(ctx, signed.Hash())
	if err != nil {
		return passport.AnchorResult{}, fmt.Errorf("await confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return passport.AnchorResult{}, fmt.Errorf("transaction reverted: %s", signed.Hash().Hex())
	}

	return passport.AnchorResult{
		Token:         receipt.BlockNumber.String(),
		TransactionID: signed.Hash().Hex(),
		Confirmed:     true,
	}, nil
}

func (c *Client) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) mock(ctx context.Context, contentID, ownerRef, reason string) passport.AnchorResult {
	anchorOutcomes.WithLabelValues("mock").Inc()
	result := MockAnchor(ownerRef, contentID, c.now())
	c.logger.WarnContext(ctx, "ledger unavailable, issuing mock anchor",
		"reason", reason,
		"token", result.Token,
	)
	return result
}

// Connected reports whether the ledger endpoint currently answers.
func (c *Client) Connected(ctx context.Context) bool {
	if c.eth == nil {
		return false
	}
	_, err := c.eth.ChainID(ctx)
	return err == nil
}

// ChainID returns the configured chain identifier.
func (c *Client) ChainID() int64 {
	return c.chainID.Int64()
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
