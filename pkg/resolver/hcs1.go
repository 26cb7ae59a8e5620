package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/nursecredx/credgate/pkg/mirror"
)

// fetchHCS1Content reassembles the content inscribed on an HCS-1 topic:
// consensus messages are base64 chunks, possibly out of order, and the
// combined payload may be wrapped in a {"c":"data:..."} envelope with
// brotli-compressed content.
func (r *Resolver) fetchHCS1Content(ctx context.Context, topicID string) ([]byte, error) {
	messages, err := r.mirror.GetTopicMessages(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic %s: %w", topicID, err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("topic %s has no messages", topicID)
	}

	combined, err := assembleChunks(messages)
	if err != nil {
		return nil, err
	}

	return normalizeHCS1Payload(combined)
}

func assembleChunks(messages []mirror.TopicMessage) ([]byte, error) {
	chunked := make(map[int][]byte)
	plain := make([][]byte, 0, len(messages))

	for _, message := range messages {
		payload, err := mirror.DecodeMessageData(message)
		if err != nil {
			return nil, err
		}
		if message.ChunkInfo != nil && message.ChunkInfo.Total > 1 {
			chunked[message.ChunkInfo.Number] = payload
			continue
		}
		plain = append(plain, payload)
	}

	if len(chunked) == 0 {
		return bytes.Join(plain, nil), nil
	}
	if len(plain) > 0 {
		// A single inscription is either chunked or not; a topic carrying
		// both has no defined reassembly order.
		return nil, fmt.Errorf("topic mixes chunked and unchunked messages")
	}

	numbers := make([]int, 0, len(chunked))
	for number := range chunked {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	combined := make([]byte, 0)
	for index, number := range numbers {
		if number != index+1 {
			return nil, fmt.Errorf("chunked payload missing chunk %d", index+1)
		}
		combined = append(combined, chunked[number]...)
	}

	return combined, nil
}

// normalizeHCS1Payload unwraps the {"c":"data:..."} envelope some inscribers
// emit and transparently decompresses brotli content. Payloads that are not
// wrapped pass through untouched.
func normalizeHCS1Payload(payload []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' || !bytes.Contains(trimmed, []byte(`"c"`)) {
		return payload, nil
	}

	var wrapped struct {
		Content string `json:"c"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return payload, nil
	}
	content := strings.TrimSpace(wrapped.Content)
	if content == "" {
		return payload, nil
	}

	decoded, err := decodeDataURL(content)
	if err != nil {
		return nil, fmt.Errorf("invalid wrapped HCS-1 payload: %w", err)
	}

	brotliReader := brotli.NewReader(bytes.NewReader(decoded))
	decompressed, err := io.ReadAll(brotliReader)
	if err == nil && len(decompressed) > 0 {
		return decompressed, nil
	}

	return decoded, nil
}
