package resolver

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// schemeKind tags the resolution strategy a URI selects. Dispatch is a
// closed variant rather than a chain of prefix checks so each strategy owns
// its own fetch path.
type schemeKind int

const (
	schemeUnknown schemeKind = iota
	schemeInline
	schemeIPFS
	schemeHCS
	schemeArweave
	schemeWeb
)

// uriRef is a classified URI. Value carries the strategy-specific remainder:
// the whole data URL for inline, the content identifier for ipfs/ar, the
// topic ID for hcs, and the literal URL for web.
type uriRef struct {
	kind  schemeKind
	value string
}

func classifyURI(uri string) uriRef {
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return uriRef{kind: schemeUnknown}
	}

	switch {
	case strings.HasPrefix(trimmed, "data:"):
		return uriRef{kind: schemeInline, value: trimmed}
	case strings.HasPrefix(trimmed, "ipfs://"):
		return uriRef{kind: schemeIPFS, value: strings.TrimPrefix(trimmed, "ipfs://")}
	case strings.HasPrefix(trimmed, "hcs://"):
		reference := strings.TrimPrefix(trimmed, "hcs://")
		parts := strings.Split(reference, "/")
		topicID := strings.TrimSpace(parts[len(parts)-1])
		if topicID == "" {
			return uriRef{kind: schemeUnknown}
		}
		return uriRef{kind: schemeHCS, value: topicID}
	case strings.HasPrefix(trimmed, "ar://"):
		return uriRef{kind: schemeArweave, value: strings.TrimPrefix(trimmed, "ar://")}
	case strings.HasPrefix(trimmed, "http://"), strings.HasPrefix(trimmed, "https://"):
		return uriRef{kind: schemeWeb, value: trimmed}
	default:
		return uriRef{kind: schemeUnknown}
	}
}

const dataURLPartCount = 2

// decodeDataURL extracts the raw payload from a data URL, handling both
// base64 and percent-encoded bodies.
func decodeDataURL(input string) ([]byte, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}

	parts := strings.SplitN(trimmed, ",", dataURLPartCount)
	if len(parts) != dataURLPartCount {
		return nil, fmt.Errorf("invalid data URL")
	}

	header := strings.ToLower(parts[0])
	dataPart := parts[1]
	if strings.Contains(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(dataPart)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 data URL payload: %w", err)
		}
		return decoded, nil
	}

	unescaped, err := url.QueryUnescape(dataPart)
	if err != nil {
		return nil, fmt.Errorf("failed to unescape data URL payload: %w", err)
	}
	return []byte(unescaped), nil
}
