package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment. Defaults
// target local development; production deployments override via env vars.
type Config struct {
	Addr          string
	PublicBaseURL string

	// DatabaseURL selects the Postgres repository when set; the in-memory
	// repository is used otherwise.
	DatabaseURL string

	// RedisURL enables the verification token cache when set.
	RedisURL string

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers []string

	ContentStore ContentStoreConfig
	Ledger       LedgerConfig
}

// ContentStoreConfig holds the Pinata API coordinates. An empty key pair puts
// the content store client into fallback-only mode.
type ContentStoreConfig struct {
	Endpoint  string
	APIKey    string
	SecretKey string
	Timeout   time.Duration
}

// LedgerConfig holds the EVM testnet coordinates. An empty RPC URL or private
// key puts the ledger client into mock-only mode.
type LedgerConfig struct {
	RPCURL         string
	ChainID        int64
	PrivateKey     string
	ConfirmTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("AGRIPASS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	endpoint := os.Getenv("PINATA_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://api.pinata.cloud/pinning/pinJSONToIPFS"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:          addr,
		PublicBaseURL: strings.TrimRight(baseURL, "/"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		ContentStore: ContentStoreConfig{
			Endpoint:  endpoint,
			APIKey:    os.Getenv("PINATA_API_KEY"),
			SecretKey: os.Getenv("PINATA_SECRET_KEY"),
			Timeout:   envDuration("PINATA_TIMEOUT", 10*time.Second),
		},
		Ledger: LedgerConfig{
			RPCURL:         os.Getenv("LEDGER_RPC_URL"),
			ChainID:        envInt64("LEDGER_CHAIN_ID", 10143),
			PrivateKey:     strings.Trim(os.Getenv("LEDGER_PRIVATE_KEY"), `"'`),
			ConfirmTimeout: envDuration("LEDGER_CONFIRM_TIMEOUT", 90*time.Second),
		},
	}
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
