package resolver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nursecredx/credgate/pkg/ledger"
	"github.com/nursecredx/credgate/pkg/mirror"
)

// Status tags the outcome of a verification. A token that exists but whose
// URI cannot be decoded, fetched, or parsed is degraded, never an error.
type Status string

const (
	StatusResolved     Status = "resolved"
	StatusUnresolvable Status = "unresolvable-uri"
	StatusNotFound     Status = "not-found"
)

// LedgerReader is the read-only ledger view the resolver needs; *mirror.Client
// satisfies it.
type LedgerReader interface {
	GetNft(ctx context.Context, tokenID string, serial int64) (mirror.Nft, error)
	GetAccountNfts(ctx context.Context, accountID string, tokenID string) ([]mirror.Nft, error)
	GetTopicMessages(ctx context.Context, topicID string) ([]mirror.TopicMessage, error)
}

// Result is the derived verification view for one token record. Metadata is
// nil unless the status is resolved.
type Result struct {
	TokenID  string         `json:"tokenId"`
	Owner    string         `json:"owner"`
	URI      string         `json:"uri"`
	Metadata map[string]any `json:"metadata"`
	Status   Status         `json:"status"`
}

type Config struct {
	Mirror             LedgerReader
	CustodialAccountID string
	IPFSGatewayURL     string
	ArweaveGatewayURL  string
	HTTPClient         *http.Client
}

// Resolver turns a token identifier into a verification result: record
// lookup with a holdings-scan fallback, URI decoding, and per-scheme
// metadata resolution with failures isolated at every step.
type Resolver struct {
	mirror             LedgerReader
	custodialAccountID string
	ipfsGatewayURL     string
	arweaveGatewayURL  string
	httpClient         *http.Client
}

// New creates a new Resolver.
func New(cfg Config) (*Resolver, error) {
	if cfg.Mirror == nil {
		return nil, fmt.Errorf("mirror reader is required")
	}
	if strings.TrimSpace(cfg.CustodialAccountID) == "" {
		return nil, fmt.Errorf("custodial account ID is required")
	}

	ipfsGatewayURL := strings.TrimSpace(cfg.IPFSGatewayURL)
	if ipfsGatewayURL == "" {
		ipfsGatewayURL = "https://ipfs.io/ipfs/"
	}
	if !strings.HasSuffix(ipfsGatewayURL, "/") {
		ipfsGatewayURL += "/"
	}

	arweaveGatewayURL := strings.TrimSpace(cfg.ArweaveGatewayURL)
	if arweaveGatewayURL == "" {
		arweaveGatewayURL = "https://arweave.net/"
	}
	if !strings.HasSuffix(arweaveGatewayURL, "/") {
		arweaveGatewayURL += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Resolver{
		mirror:             cfg.Mirror,
		custodialAccountID: strings.TrimSpace(cfg.CustodialAccountID),
		ipfsGatewayURL:     ipfsGatewayURL,
		arweaveGatewayURL:  arweaveGatewayURL,
		httpClient:         httpClient,
	}, nil
}

// Resolve produces the verification result for a token identifier. It
// returns an error only when the ledger cannot be read at all; an absent
// record or unresolvable metadata is expressed in the result status.
func (r *Resolver) Resolve(ctx context.Context, id string) (Result, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return Result{}, fmt.Errorf("token identifier is required")
	}

	nft, found, err := r.lookup(ctx, trimmedID)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{TokenID: trimmedID, Status: StatusNotFound}, nil
	}

	uri := decodeRecordURI(nft.Metadata)

	result := Result{
		TokenID: ledger.ComposeNftID(nft.TokenID, nft.SerialNumber),
		Owner:   nft.AccountID,
		URI:     uri,
		Status:  StatusUnresolvable,
	}

	metadata, resolveErr := r.resolveMetadata(ctx, classifyURI(uri))
	if resolveErr == nil && metadata != nil {
		result.Metadata = metadata
		result.Status = StatusResolved
	}

	return result, nil
}

// lookup tries the direct point lookup first. A clean 404 means the record
// is absent; any other failure falls back to scanning the custodial
// account's holdings.
func (r *Resolver) lookup(ctx context.Context, id string) (mirror.Nft, bool, error) {
	tokenID, serial, parseErr := ledger.ParseNftID(id)
	if parseErr == nil {
		nft, err := r.mirror.GetNft(ctx, tokenID, serial)
		if err == nil {
			if nft.Deleted {
				return mirror.Nft{}, false, nil
			}
			return nft, true, nil
		}
		if errors.Is(err, mirror.ErrNftNotFound) {
			return mirror.Nft{}, false, nil
		}
	}

	holdings, err := r.mirror.GetAccountNfts(ctx, r.custodialAccountID, "")
	if err != nil {
		return mirror.Nft{}, false, fmt.Errorf("failed to enumerate holdings: %w", err)
	}

	for _, nft := range holdings {
		if nft.Deleted {
			continue
		}
		if ledger.ComposeNftID(nft.TokenID, nft.SerialNumber) == id {
			return nft, true, nil
		}
	}

	return mirror.Nft{}, false, nil
}

// decodeRecordURI converts the record's native base64 metadata bytes back to
// the URI text. Any decode failure yields an empty URI, never an error.
func decodeRecordURI(encoded string) string {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(decoded))
}

func (r *Resolver) resolveMetadata(ctx context.Context, ref uriRef) (map[string]any, error) {
	switch ref.kind {
	case schemeInline:
		payload, err := decodeDataURL(ref.value)
		if err != nil {
			return nil, err
		}
		return parseMetadata(payload)
	case schemeIPFS:
		return r.fetchJSON(ctx, r.ipfsGatewayURL+ref.value)
	case schemeArweave:
		return r.fetchJSON(ctx, r.arweaveGatewayURL+ref.value)
	case schemeHCS:
		payload, err := r.fetchHCS1Content(ctx, ref.value)
		if err != nil {
			return nil, err
		}
		return parseMetadata(payload)
	case schemeWeb:
		return r.fetchJSON(ctx, ref.value)
	default:
		return nil, fmt.Errorf("unrecognized or empty URI scheme")
	}
}

func (r *Resolver) fetchJSON(ctx context.Context, endpoint string) (map[string]any, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")

	response, err := r.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("metadata fetch failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("metadata fetch failed with status %d", response.StatusCode)
	}

	return parseMetadata(body)
}

func parseMetadata(payload []byte) (map[string]any, error) {
	var metadata map[string]any
	if err := json.Unmarshal(payload, &metadata); err != nil {
		return nil, fmt.Errorf("metadata is not a JSON object: %w", err)
	}
	return metadata, nil
}
