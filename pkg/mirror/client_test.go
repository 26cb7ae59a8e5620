package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientTestnet(t *testing.T) {
	client, err := NewClient(Config{Network: "testnet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.baseURL != "https://testnet.mirrornode.hedera.com" {
		t.Fatalf("unexpected baseURL: %s", client.baseURL)
	}
}

func TestNewClientMainnet(t *testing.T) {
	client, err := NewClient(Config{Network: "mainnet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.baseURL != "https://mainnet-public.mirrornode.hedera.com" {
		t.Fatalf("unexpected baseURL: %s", client.baseURL)
	}
}

func TestNewClientCustomBaseURL(t *testing.T) {
	client, err := NewClient(Config{
		Network: "testnet",
		BaseURL: "https://custom.example.com/",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.baseURL != "https://custom.example.com" {
		t.Fatalf("unexpected baseURL: %s", client.baseURL)
	}
}

func TestNewClientUnsupportedNetwork(t *testing.T) {
	if _, err := NewClient(Config{Network: "badnet"}); err == nil {
		t.Fatal("expected error for unsupported network")
	}
}

func TestGetNft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tokens/0.0.5005/nfts/7" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Nft{
			TokenID:      "0.0.5005",
			SerialNumber: 7,
			AccountID:    "0.0.1001",
			Metadata:     base64.StdEncoding.EncodeToString([]byte("ipfs://bafyexample")),
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{Network: "testnet", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nft, err := client.GetNft(context.Background(), "0.0.5005", 7)
	if err != nil {
		t.Fatalf("GetNft failed: %v", err)
	}
	if nft.AccountID != "0.0.1001" {
		t.Fatalf("unexpected owner: %s", nft.AccountID)
	}
}

func TestGetNftNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"_status":{"messages":[{"message":"Not found"}]}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(Config{Network: "testnet", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.GetNft(context.Background(), "0.0.5005", 99)
	if !errors.Is(err, ErrNftNotFound) {
		t.Fatalf("expected ErrNftNotFound, got %v", err)
	}
}

func TestGetAccountNftsNotFoundIsNotNftSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"_status":{"messages":[{"message":"Not found"}]}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(Config{Network: "testnet", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.GetAccountNfts(context.Background(), "0.0.9999", "")
	if err == nil {
		t.Fatal("expected error for missing account")
	}
	if errors.Is(err, ErrNftNotFound) {
		t.Fatalf("account 404 must not satisfy ErrNftNotFound: %v", err)
	}

	_, err = client.GetTopicMessages(context.Background(), "0.0.777")
	if err == nil {
		t.Fatal("expected error for missing topic")
	}
	if errors.Is(err, ErrNftNotFound) {
		t.Fatalf("topic 404 must not satisfy ErrNftNotFound: %v", err)
	}
}

func TestGetNftValidatesInput(t *testing.T) {
	client, err := NewClient(Config{Network: "testnet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.GetNft(context.Background(), "", 1); err == nil {
		t.Fatal("expected error for empty token ID")
	}
	if _, err := client.GetNft(context.Background(), "0.0.5005", 0); err == nil {
		t.Fatal("expected error for non-positive serial")
	}
}

func TestGetAccountNftsFollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.String() {
		case "/api/v1/accounts/0.0.1001/nfts":
			fmt.Fprintf(w, `{"nfts":[{"token_id":"0.0.5005","serial_number":1}],"links":{"next":"/api/v1/accounts/0.0.1001/nfts?page=2"}}`)
		case "/api/v1/accounts/0.0.1001/nfts?page=2":
			fmt.Fprintf(w, `{"nfts":[{"token_id":"0.0.5005","serial_number":2}],"links":{"next":""}}`)
		default:
			t.Fatalf("unexpected request: %s", r.URL.String())
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{Network: "testnet", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	holdings, err := client.GetAccountNfts(context.Background(), "0.0.1001", "")
	if err != nil {
		t.Fatalf("GetAccountNfts failed: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[1].SerialNumber != 2 {
		t.Fatalf("unexpected second serial: %d", holdings[1].SerialNumber)
	}
}

func TestGetTopicMessages(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"hello":"world"}`))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/topics/0.0.777/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{"messages":[{"message":%q,"sequence_number":1}],"links":{"next":""}}`, payload)
	}))
	defer server.Close()

	client, err := NewClient(Config{Network: "testnet", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err := client.GetTopicMessages(context.Background(), "0.0.777")
	if err != nil {
		t.Fatalf("GetTopicMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d", len(messages))
	}

	decoded, err := DecodeMessageData(messages[0])
	if err != nil {
		t.Fatalf("DecodeMessageData failed: %v", err)
	}
	if string(decoded) != `{"hello":"world"}` {
		t.Fatalf("unexpected payload: %s", decoded)
	}
}

func TestDecodeMessageDataEmpty(t *testing.T) {
	if _, err := DecodeMessageData(TopicMessage{}); err == nil {
		t.Fatal("expected error for empty message")
	}
}
