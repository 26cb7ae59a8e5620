package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nursecredx/credgate/pkg/config"
)

// ErrNftNotFound reports a clean mirror-node 404 for an NFT point lookup.
// Callers use it to tell "record absent" apart from transport failures.
var ErrNftNotFound = errors.New("nft not found")

// errNotFound marks any mirror 404 inside getJSON; each endpoint attaches
// its own meaning before the error escapes the package.
var errNotFound = errors.New("mirror node resource not found")

type Config struct {
	Network    string
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
	Headers    map[string]string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	headers    map[string]string
}

// NewClient creates a new Client. An empty BaseURL selects the public mirror
// host for the configured network.
func NewClient(cfg Config) (*Client, error) {
	network, err := config.NormalizeNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		if network == config.NetworkMainnet {
			baseURL = "https://mainnet-public.mirrornode.hedera.com"
		} else {
			baseURL = "https://testnet.mirrornode.hedera.com"
		}
	}
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mirror base URL: %w", err)
	}
	if parsedBaseURL.Scheme != "http" && parsedBaseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid mirror base URL: scheme must be http or https")
	}
	if strings.TrimSpace(parsedBaseURL.Host) == "" {
		return nil, fmt.Errorf("invalid mirror base URL: host is required")
	}
	baseURL = strings.TrimRight(parsedBaseURL.String(), "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := map[string]string{}
	for key, value := range cfg.Headers {
		headers[key] = value
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		headers:    headers,
	}, nil
}

// BaseURL reports the normalized mirror host the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetNft performs a direct point lookup of a single serial under a token.
// A mirror 404 is reported as ErrNftNotFound.
func (c *Client) GetNft(ctx context.Context, tokenID string, serial int64) (Nft, error) {
	var nft Nft
	if strings.TrimSpace(tokenID) == "" {
		return nft, fmt.Errorf("token ID is required")
	}
	if serial <= 0 {
		return nft, fmt.Errorf("serial must be positive")
	}

	path := fmt.Sprintf("/api/v1/tokens/%s/nfts/%d", url.PathEscape(tokenID), serial)
	if err := c.getJSON(ctx, path, &nft); err != nil {
		if errors.Is(err, errNotFound) {
			return nft, ErrNftNotFound
		}
		return nft, err
	}

	return nft, nil
}

// GetAccountNfts enumerates every NFT held by an account, following the
// mirror node's pagination links. An empty tokenID returns all holdings.
func (c *Client) GetAccountNfts(ctx context.Context, accountID string, tokenID string) ([]Nft, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("account ID is required")
	}

	endpoint := fmt.Sprintf("/api/v1/accounts/%s/nfts", url.PathEscape(accountID))
	if strings.TrimSpace(tokenID) != "" {
		endpoint = fmt.Sprintf("%s?token.id=%s", endpoint, url.QueryEscape(tokenID))
	}

	holdings := make([]Nft, 0)
	next := endpoint

	for next != "" {
		var page nftsResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			if errors.Is(err, errNotFound) {
				return nil, fmt.Errorf("account %s not found on mirror node", accountID)
			}
			return nil, err
		}

		holdings = append(holdings, page.Nfts...)
		next = page.Links.Next
	}

	return holdings, nil
}

// GetTopicMessages fetches every consensus message on a topic in ascending
// order, following pagination.
func (c *Client) GetTopicMessages(ctx context.Context, topicID string) ([]TopicMessage, error) {
	if strings.TrimSpace(topicID) == "" {
		return nil, fmt.Errorf("topic ID is required")
	}

	endpoint := fmt.Sprintf("/api/v1/topics/%s/messages?order=asc", url.PathEscape(topicID))

	messages := make([]TopicMessage, 0)
	next := endpoint

	for next != "" {
		var page topicMessagesResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			if errors.Is(err, errNotFound) {
				return nil, fmt.Errorf("topic %s not found on mirror node", topicID)
			}
			return nil, err
		}

		messages = append(messages, page.Messages...)
		next = page.Links.Next
	}

	return messages, nil
}

// DecodeMessageData decodes a topic message's base64 payload.
func DecodeMessageData(message TopicMessage) ([]byte, error) {
	if strings.TrimSpace(message.Message) == "" {
		return nil, fmt.Errorf("message payload is empty")
	}
	return base64.StdEncoding.DecodeString(message.Message)
}

func (c *Client) getJSON(ctx context.Context, pathOrURL string, target any) error {
	requestURL := c.resolveURL(pathOrURL)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("mirror node request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read mirror node response: %w", err)
	}

	if response.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf(
			"mirror node request failed with status %d: %s",
			response.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode mirror node response: %w", err)
	}

	return nil
}

func (c *Client) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}

	path := pathOrURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}
