package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// ComposeNftID joins a token class ID and a serial number into the opaque
// identifier the HTTP surface exposes, e.g. "0.0.5005/7".
func ComposeNftID(tokenID string, serial int64) string {
	return fmt.Sprintf("%s/%d", tokenID, serial)
}

// ParseNftID splits an opaque identifier back into its token class ID and
// serial number.
func ParseNftID(id string) (string, int64, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", 0, fmt.Errorf("token identifier is required")
	}

	separator := strings.LastIndex(trimmed, "/")
	if separator <= 0 || separator == len(trimmed)-1 {
		return "", 0, fmt.Errorf("invalid token identifier %q: want <tokenId>/<serial>", id)
	}

	tokenID := trimmed[:separator]
	serial, err := strconv.ParseInt(trimmed[separator+1:], 10, 64)
	if err != nil || serial <= 0 {
		return "", 0, fmt.Errorf("invalid serial in token identifier %q", id)
	}

	return tokenID, serial, nil
}
