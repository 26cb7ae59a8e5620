package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type PinataConfig struct {
	JWT        string
	BaseURL    string
	HTTPClient *http.Client
}

// PinataPublisher pins payloads to IPFS through Pinata's JSON pinning
// endpoint and returns ipfs:// URIs.
type PinataPublisher struct {
	jwt        string
	baseURL    string
	httpClient *http.Client
}

// NewPinataPublisher creates a new PinataPublisher.
func NewPinataPublisher(cfg PinataConfig) (*PinataPublisher, error) {
	jwt := strings.TrimSpace(cfg.JWT)
	if jwt == "" {
		return nil, fmt.Errorf("pinata JWT is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.pinata.cloud"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &PinataPublisher{
		jwt:        jwt,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// Publish pins the payload and returns its ipfs:// URI.
func (p *PinataPublisher) Publish(ctx context.Context, payload []byte, name string) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("payload is required")
	}

	var content json.RawMessage
	if err := json.Unmarshal(payload, &content); err != nil {
		return "", fmt.Errorf("payload must be valid JSON: %w", err)
	}

	body := map[string]any{
		"pinataContent": content,
	}
	if strings.TrimSpace(name) != "" {
		body["pinataMetadata"] = map[string]any{"name": name}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode pin request: %w", err)
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/pinning/pinJSONToIPFS",
		bytes.NewReader(encoded),
	)
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+p.jwt)

	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("pinata request failed: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read pinata response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf(
			"pinata request failed with status %d: %s",
			response.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	var result struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.Unmarshal(responseBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode pinata response: %w", err)
	}
	if strings.TrimSpace(result.IpfsHash) == "" {
		return "", fmt.Errorf("pinata response did not include a content hash")
	}

	return "ipfs://" + result.IpfsHash, nil
}
