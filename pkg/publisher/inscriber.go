package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"

	"github.com/nursecredx/credgate/pkg/config"
	"github.com/nursecredx/credgate/pkg/ledger"
)

type InscriberConfig struct {
	APIKey             string
	BaseURL            string
	Network            string
	OperatorAccountID  string
	OperatorPrivateKey string
	HTTPClient         *http.Client
	WaitMaxAttempts    int
	WaitInterval       time.Duration
}

// InscriberPublisher inscribes payloads as HCS-1 topics through the hosted
// inscription service and returns hcs://1/<topicId> URIs. The flow is
// sequential: start the job, execute the returned transaction bytes as the
// operator, then poll until the inscription completes.
type InscriberPublisher struct {
	apiKey          string
	baseURL         string
	network         string
	operatorID      hedera.AccountID
	operatorKey     hedera.PrivateKey
	httpClient      *http.Client
	waitMaxAttempts int
	waitInterval    time.Duration
}

type inscriptionJob struct {
	TxID             string `json:"tx_id"`
	Status           string `json:"status"`
	Completed        bool   `json:"completed"`
	TopicID          string `json:"topic_id"`
	TransactionBytes string `json:"transactionBytes"`
	Error            string `json:"error"`
}

// NewInscriberPublisher creates a new InscriberPublisher.
func NewInscriberPublisher(cfg InscriberConfig) (*InscriberPublisher, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("inscriber API key is required")
	}

	network, err := config.NormalizeNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}

	operatorID, err := hedera.AccountIDFromString(strings.TrimSpace(cfg.OperatorAccountID))
	if err != nil {
		return nil, fmt.Errorf("invalid operator account ID: %w", err)
	}
	operatorKey, err := ledger.ParsePrivateKey(cfg.OperatorPrivateKey)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://kiloscribe.com/api"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	waitMaxAttempts := cfg.WaitMaxAttempts
	if waitMaxAttempts <= 0 {
		waitMaxAttempts = 60
	}
	waitInterval := cfg.WaitInterval
	if waitInterval <= 0 {
		waitInterval = 2 * time.Second
	}

	return &InscriberPublisher{
		apiKey:          apiKey,
		baseURL:         baseURL,
		network:         network,
		operatorID:      operatorID,
		operatorKey:     operatorKey,
		httpClient:      httpClient,
		waitMaxAttempts: waitMaxAttempts,
		waitInterval:    waitInterval,
	}, nil
}

// Publish inscribes the payload and returns its hcs://1/<topicId> URI.
func (p *InscriberPublisher) Publish(ctx context.Context, payload []byte, name string) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("payload is required")
	}

	fileName := strings.TrimSpace(name)
	if fileName == "" {
		fileName = "credential.json"
	}
	if !strings.HasSuffix(fileName, ".json") {
		fileName += ".json"
	}

	job, err := p.startInscription(ctx, payload, fileName)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(job.TransactionBytes) == "" {
		return "", fmt.Errorf("inscription start did not include transaction bytes")
	}

	transactionID, err := p.executeTransactionBytes(job.TransactionBytes)
	if err != nil {
		return "", err
	}

	completed, err := p.waitForInscription(ctx, transactionID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(completed.TopicID) == "" {
		return "", fmt.Errorf("inscription completed without a topic ID")
	}

	return "hcs://1/" + completed.TopicID, nil
}

func (p *InscriberPublisher) startInscription(
	ctx context.Context,
	payload []byte,
	fileName string,
) (inscriptionJob, error) {
	body := map[string]any{
		"holderId":     p.operatorID.String(),
		"mode":         "file",
		"network":      p.network,
		"fileBase64":   base64.StdEncoding.EncodeToString(payload),
		"fileName":     fileName,
		"fileMimeType": "application/json",
	}

	var job inscriptionJob
	if err := p.postJSON(ctx, "/inscriptions/start-inscription", body, &job); err != nil {
		return inscriptionJob{}, err
	}
	return job, nil
}

func (p *InscriberPublisher) waitForInscription(ctx context.Context, transactionID string) (inscriptionJob, error) {
	endpoint := fmt.Sprintf(
		"/inscriptions/retrieve-inscription?id=%s",
		url.QueryEscape(transactionID),
	)

	var latest inscriptionJob
	for attempt := 0; attempt < p.waitMaxAttempts; attempt++ {
		var job inscriptionJob
		if err := p.getJSON(ctx, endpoint, &job); err != nil {
			return inscriptionJob{}, err
		}
		latest = job

		if strings.EqualFold(job.Status, "failed") {
			if job.Error == "" {
				job.Error = "inscription failed"
			}
			return job, fmt.Errorf("%s", job.Error)
		}
		if job.Completed || strings.EqualFold(job.Status, "completed") {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return inscriptionJob{}, ctx.Err()
		case <-time.After(p.waitInterval):
		}
	}

	return latest, fmt.Errorf("inscription did not complete within %d attempts", p.waitMaxAttempts)
}

func (p *InscriberPublisher) executeTransactionBytes(transactionBytes string) (string, error) {
	rawBytes, err := base64.StdEncoding.DecodeString(transactionBytes)
	if err != nil {
		return "", fmt.Errorf("transaction bytes must be base64: %w", err)
	}

	transaction, err := hedera.TransactionFromBytes(rawBytes)
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction bytes: %w", err)
	}

	var client *hedera.Client
	if p.network == config.NetworkMainnet {
		client = hedera.ClientForMainnet()
	} else {
		client = hedera.ClientForTestnet()
	}
	client.SetOperator(p.operatorID, p.operatorKey)

	response, err := hedera.TransactionExecute(transaction, client)
	if err != nil {
		return "", fmt.Errorf("failed to execute inscription transaction: %w", err)
	}
	receipt, err := response.GetReceipt(client)
	if err != nil {
		return "", fmt.Errorf("failed to get inscription receipt: %w", err)
	}
	if receipt.Status.String() != "SUCCESS" {
		return "", fmt.Errorf("inscription transaction failed with status %s", receipt.Status.String())
	}

	return response.TransactionID.String(), nil
}

func (p *InscriberPublisher) postJSON(ctx context.Context, endpoint string, payload any, target any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+endpoint,
		bytes.NewReader(encoded),
	)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	return p.do(request, target)
}

func (p *InscriberPublisher) getJSON(ctx context.Context, endpoint string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")

	return p.do(request, target)
}

func (p *InscriberPublisher) do(request *http.Request, target any) error {
	request.Header.Set("x-api-key", p.apiKey)

	response, err := p.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("inscription service request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read inscription service response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf(
			"inscription service request failed with status %d: %s",
			response.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode inscription service response: %w", err)
	}

	return nil
}
