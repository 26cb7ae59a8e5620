package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// PublisherBackend identifies which hosted content store receives payloads.
type PublisherBackend string

const (
	PublisherPinata    PublisherBackend = "pinata"
	PublisherInscriber PublisherBackend = "inscriber"
)

// Config carries every process-wide setting. It is populated once at startup
// and never mutated afterwards; request handlers only ever read it.
type Config struct {
	Network            string
	OperatorAccountID  string
	OperatorPrivateKey string
	CollectionTokenID  string

	SharedSecret      string
	DefaultRoyaltyBps int

	ListenAddr    string
	PublicBaseURL string

	MirrorBaseURL     string
	IPFSGatewayURL    string
	ArweaveGatewayURL string

	PinataJWT        string
	PinataBaseURL    string
	InscriberAPIKey  string
	InscriberBaseURL string
}

// NormalizeNetwork maps a raw network name onto a supported one. An empty
// name defaults to testnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}

	switch normalized {
	case NetworkMainnet, NetworkTestnet:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// LoadFromEnv reads the configuration from environment variables, loading a
// .env file first when one is present, and validates it.
func LoadFromEnv() (Config, error) {
	loadDotEnvIfPresent()

	cfg := Config{
		Network:            firstNonEmptyEnv("HEDERA_NETWORK", "NETWORK"),
		OperatorAccountID:  firstNonEmptyEnv("HEDERA_ACCOUNT_ID", "HEDERA_OPERATOR_ID", "OPERATOR_ID"),
		OperatorPrivateKey: firstNonEmptyEnv("HEDERA_PRIVATE_KEY", "HEDERA_OPERATOR_KEY", "OPERATOR_KEY"),
		CollectionTokenID:  firstNonEmptyEnv("CREDGATE_COLLECTION_ID", "COLLECTION_TOKEN_ID"),
		SharedSecret:       firstNonEmptyEnv("CREDGATE_API_KEY", "API_SECRET"),
		ListenAddr:         firstNonEmptyEnv("CREDGATE_LISTEN_ADDR", "LISTEN_ADDR"),
		PublicBaseURL:      firstNonEmptyEnv("CREDGATE_PUBLIC_URL", "PUBLIC_BASE_URL"),
		MirrorBaseURL:      firstNonEmptyEnv("MIRROR_BASE_URL"),
		IPFSGatewayURL:     firstNonEmptyEnv("IPFS_GATEWAY_URL"),
		ArweaveGatewayURL:  firstNonEmptyEnv("ARWEAVE_GATEWAY_URL"),
		PinataJWT:          firstNonEmptyEnv("PINATA_JWT"),
		PinataBaseURL:      firstNonEmptyEnv("PINATA_BASE_URL"),
		InscriberAPIKey:    firstNonEmptyEnv("INSCRIBER_API_KEY"),
		InscriberBaseURL:   firstNonEmptyEnv("INSCRIBER_BASE_URL"),
	}

	if raw := firstNonEmptyEnv("DEFAULT_ROYALTY_BPS", "TRANSFER_FEE_BPS"); raw != "" {
		bps, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEFAULT_ROYALTY_BPS %q: %w", raw, err)
		}
		cfg.DefaultRoyaltyBps = bps
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate normalizes defaults and rejects configurations the process could
// not serve with.
func (c *Config) Validate() error {
	network, err := NormalizeNetwork(c.Network)
	if err != nil {
		return err
	}
	c.Network = network

	if strings.TrimSpace(c.OperatorAccountID) == "" {
		return fmt.Errorf("HEDERA_ACCOUNT_ID is required")
	}
	if strings.TrimSpace(c.OperatorPrivateKey) == "" {
		return fmt.Errorf("HEDERA_PRIVATE_KEY is required")
	}

	if c.DefaultRoyaltyBps < 0 || c.DefaultRoyaltyBps > 10000 {
		return fmt.Errorf("default royalty must be between 0 and 10000 basis points, got %d", c.DefaultRoyaltyBps)
	}

	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:8080"
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	if c.IPFSGatewayURL == "" {
		c.IPFSGatewayURL = "https://ipfs.io/ipfs/"
	}
	if c.ArweaveGatewayURL == "" {
		c.ArweaveGatewayURL = "https://arweave.net/"
	}

	if strings.TrimSpace(c.PinataJWT) == "" && strings.TrimSpace(c.InscriberAPIKey) == "" {
		return fmt.Errorf("a publisher credential is required: set PINATA_JWT or INSCRIBER_API_KEY")
	}

	return nil
}

// PublisherSelection reports which content publisher the credentials select.
// Pinata wins when both backends are configured.
func (c *Config) PublisherSelection() PublisherBackend {
	if strings.TrimSpace(c.PinataJWT) != "" {
		return PublisherPinata
	}
	return PublisherInscriber
}

// GateEnabled reports whether mutating endpoints require the shared secret.
func (c *Config) GateEnabled() bool {
	return strings.TrimSpace(c.SharedSecret) != ""
}
