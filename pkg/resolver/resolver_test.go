package resolver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/nursecredx/credgate/pkg/mirror"
)

type fakeReader struct {
	nfts        map[string]mirror.Nft
	nftErr      error
	holdings    []mirror.Nft
	holdingsErr error
	topics      map[string][]mirror.TopicMessage
	nftCalls    int
	scanCalls   int
}

func (f *fakeReader) GetNft(ctx context.Context, tokenID string, serial int64) (mirror.Nft, error) {
	f.nftCalls++
	if f.nftErr != nil {
		return mirror.Nft{}, f.nftErr
	}
	nft, ok := f.nfts[fmt.Sprintf("%s/%d", tokenID, serial)]
	if !ok {
		return mirror.Nft{}, mirror.ErrNftNotFound
	}
	return nft, nil
}

func (f *fakeReader) GetAccountNfts(ctx context.Context, accountID string, tokenID string) ([]mirror.Nft, error) {
	f.scanCalls++
	if f.holdingsErr != nil {
		return nil, f.holdingsErr
	}
	return f.holdings, nil
}

func (f *fakeReader) GetTopicMessages(ctx context.Context, topicID string) ([]mirror.TopicMessage, error) {
	messages, ok := f.topics[topicID]
	if !ok {
		return nil, fmt.Errorf("unknown topic %s", topicID)
	}
	return messages, nil
}

func newTestResolver(t *testing.T, reader LedgerReader) *Resolver {
	t.Helper()
	r, err := New(Config{Mirror: reader, CustodialAccountID: "0.0.1001"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func encodeURI(uri string) string {
	return base64.StdEncoding.EncodeToString([]byte(uri))
}

func TestClassifyURI(t *testing.T) {
	cases := []struct {
		uri   string
		kind  schemeKind
		value string
	}{
		{"", schemeUnknown, ""},
		{"data:application/json;base64,e30=", schemeInline, "data:application/json;base64,e30="},
		{"ipfs://bafyexample", schemeIPFS, "bafyexample"},
		{"hcs://1/0.0.777", schemeHCS, "0.0.777"},
		{"hcs://", schemeUnknown, ""},
		{"ar://txid123", schemeArweave, "txid123"},
		{"https://example.com/cred.json", schemeWeb, "https://example.com/cred.json"},
		{"http://example.com/cred.json", schemeWeb, "http://example.com/cred.json"},
		{"ftp://example.com/x", schemeUnknown, ""},
		{"garbage", schemeUnknown, ""},
	}

	for _, tc := range cases {
		ref := classifyURI(tc.uri)
		if ref.kind != tc.kind {
			t.Fatalf("classifyURI(%q): unexpected kind %d", tc.uri, ref.kind)
		}
		if tc.kind != schemeUnknown && ref.value != tc.value {
			t.Fatalf("classifyURI(%q): unexpected value %q", tc.uri, ref.value)
		}
	}
}

func TestDecodeDataURL(t *testing.T) {
	decoded, err := decodeDataURL("data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)))
	if err != nil {
		t.Fatalf("decodeDataURL failed: %v", err)
	}
	if string(decoded) != `{"a":1}` {
		t.Fatalf("unexpected payload: %s", decoded)
	}

	decoded, err = decodeDataURL(`data:application/json,%7B%22a%22%3A1%7D`)
	if err != nil {
		t.Fatalf("decodeDataURL failed: %v", err)
	}
	if string(decoded) != `{"a":1}` {
		t.Fatalf("unexpected payload: %s", decoded)
	}

	if _, err := decodeDataURL("data:application/json;base64"); err == nil {
		t.Fatal("expected error for data URL without payload")
	}
}

func TestResolveNotFoundDirect(t *testing.T) {
	reader := &fakeReader{nfts: map[string]mirror.Nft{}}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/99")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusNotFound {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if reader.scanCalls != 0 {
		t.Fatal("a clean 404 must not trigger the holdings scan")
	}
}

func TestResolveFallsBackToHoldingsScan(t *testing.T) {
	inline := "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(`{"subject":"RN-1"}`))
	reader := &fakeReader{
		nftErr: errors.New("mirror unavailable"),
		holdings: []mirror.Nft{
			{TokenID: "0.0.5005", SerialNumber: 6, AccountID: "0.0.1001", Metadata: encodeURI("ipfs://other")},
			{TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1001", Metadata: encodeURI(inline)},
		},
	}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if reader.scanCalls != 1 {
		t.Fatalf("expected one holdings scan, got %d", reader.scanCalls)
	}
	if result.Status != StatusResolved {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Metadata["subject"] != "RN-1" {
		t.Fatalf("unexpected metadata: %v", result.Metadata)
	}
}

func TestResolveBothPathsFailing(t *testing.T) {
	reader := &fakeReader{
		nftErr:      errors.New("mirror unavailable"),
		holdingsErr: errors.New("mirror unavailable"),
	}
	r := newTestResolver(t, reader)

	if _, err := r.Resolve(context.Background(), "0.0.5005/7"); err == nil {
		t.Fatal("expected error when the ledger cannot be read at all")
	}
}

func TestResolveDeletedRecordIsNotFound(t *testing.T) {
	reader := &fakeReader{nfts: map[string]mirror.Nft{
		"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, Deleted: true},
	}}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusNotFound {
		t.Fatalf("unexpected status: %s", result.Status)
	}
}

func TestResolveInlineRoundTrip(t *testing.T) {
	original := map[string]any{"subject": "RN-12345", "holder": "0.0.1002", "schemaVersion": "1.0"}
	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	inline := "data:application/json;base64," + base64.StdEncoding.EncodeToString(encoded)

	reader := &fakeReader{nfts: map[string]mirror.Nft{
		"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: encodeURI(inline)},
	}}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusResolved {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Owner != "0.0.1002" {
		t.Fatalf("unexpected owner: %s", result.Owner)
	}
	if result.URI != inline {
		t.Fatalf("unexpected URI: %s", result.URI)
	}

	roundTripped, err := json.Marshal(result.Metadata)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	expected, _ := json.Marshal(original)
	if string(roundTripped) != string(expected) {
		t.Fatalf("inline metadata did not round-trip:\n%s\n%s", roundTripped, expected)
	}
}

func TestResolveIPFSGatewaySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ipfs/bafyexample" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"subject":"RN-12345"}`)
	}))
	defer server.Close()

	reader := &fakeReader{nfts: map[string]mirror.Nft{
		"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: encodeURI("ipfs://bafyexample")},
	}}
	r, err := New(Config{
		Mirror:             reader,
		CustodialAccountID: "0.0.1001",
		IPFSGatewayURL:     server.URL + "/ipfs/",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusResolved {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Metadata["subject"] != "RN-12345" {
		t.Fatalf("unexpected metadata: %v", result.Metadata)
	}
}

func TestResolveIPFSGatewayFailureIsDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer server.Close()

	reader := &fakeReader{nfts: map[string]mirror.Nft{
		"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: encodeURI("ipfs://bafyexample")},
	}}
	r, err := New(Config{
		Mirror:             reader,
		CustodialAccountID: "0.0.1001",
		IPFSGatewayURL:     server.URL + "/ipfs/",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("a failed metadata fetch must not fail the verification: %v", err)
	}
	if result.Status != StatusUnresolvable {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Metadata != nil {
		t.Fatalf("metadata should be nil, got %v", result.Metadata)
	}
	if result.URI != "ipfs://bafyexample" {
		t.Fatalf("decoded URI should survive degradation, got %q", result.URI)
	}
}

func TestResolveUndecodableURIIsDegraded(t *testing.T) {
	reader := &fakeReader{nfts: map[string]mirror.Nft{
		"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: "not-base64!!"},
	}}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusUnresolvable {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.URI != "" {
		t.Fatalf("undecodable metadata must yield an empty URI, got %q", result.URI)
	}
}

func TestResolveWebScheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"holder":"0.0.1002"}`)
	}))
	defer server.Close()

	reader := &fakeReader{nfts: map[string]mirror.Nft{
		"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: encodeURI(server.URL + "/cred.json")},
	}}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusResolved {
		t.Fatalf("unexpected status: %s", result.Status)
	}
}

func TestResolveHCS1WrappedBrotli(t *testing.T) {
	content := []byte(`{"subject":"RN-12345","verifier":"NurseCredX-Verify"}`)

	var compressed bytes.Buffer
	writer := brotli.NewWriter(&compressed)
	if _, err := writer.Write(content); err != nil {
		t.Fatalf("brotli write failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("brotli close failed: %v", err)
	}

	wrapped, err := json.Marshal(map[string]string{
		"c": "data:application/json;base64," + base64.StdEncoding.EncodeToString(compressed.Bytes()),
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	reader := &fakeReader{
		nfts: map[string]mirror.Nft{
			"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: encodeURI("hcs://1/0.0.777")},
		},
		topics: map[string][]mirror.TopicMessage{
			"0.0.777": {{Message: base64.StdEncoding.EncodeToString(wrapped), SequenceNumber: 1}},
		},
	}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusResolved {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Metadata["subject"] != "RN-12345" {
		t.Fatalf("unexpected metadata: %v", result.Metadata)
	}
}

func TestResolveHCS1ChunkedContent(t *testing.T) {
	content := []byte(`{"subject":"RN-12345"}`)
	first := content[:10]
	second := content[10:]

	reader := &fakeReader{
		nfts: map[string]mirror.Nft{
			"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: encodeURI("hcs://1/0.0.778")},
		},
		topics: map[string][]mirror.TopicMessage{
			"0.0.778": {
				{
					Message:   base64.StdEncoding.EncodeToString(second),
					ChunkInfo: &mirror.ChunkInfo{Number: 2, Total: 2},
				},
				{
					Message:   base64.StdEncoding.EncodeToString(first),
					ChunkInfo: &mirror.ChunkInfo{Number: 1, Total: 2},
				},
			},
		},
	}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusResolved {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Metadata["subject"] != "RN-12345" {
		t.Fatalf("unexpected metadata: %v", result.Metadata)
	}
}

func TestAssembleChunksRejectsMixedMessages(t *testing.T) {
	messages := []mirror.TopicMessage{
		{
			Message:   base64.StdEncoding.EncodeToString([]byte(`{"subj`)),
			ChunkInfo: &mirror.ChunkInfo{Number: 1, Total: 2},
		},
		{
			Message: base64.StdEncoding.EncodeToString([]byte(`ect":"RN-12345"}`)),
		},
	}

	if _, err := assembleChunks(messages); err == nil {
		t.Fatal("expected error for mixed chunked and unchunked messages")
	}
}

func TestResolveUnknownSchemeIsDegraded(t *testing.T) {
	reader := &fakeReader{nfts: map[string]mirror.Nft{
		"0.0.5005/7": {TokenID: "0.0.5005", SerialNumber: 7, AccountID: "0.0.1002", Metadata: encodeURI("ftp://nope")},
	}}
	r := newTestResolver(t, reader)

	result, err := r.Resolve(context.Background(), "0.0.5005/7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Status != StatusUnresolvable {
		t.Fatalf("unexpected status: %s", result.Status)
	}
}

func TestResolveRequiresIdentifier(t *testing.T) {
	r := newTestResolver(t, &fakeReader{})
	if _, err := r.Resolve(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty identifier")
	}
}
