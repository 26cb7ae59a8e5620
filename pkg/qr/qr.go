package qr

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// VerificationURL composes the public verification link for a token.
func VerificationURL(baseURL string, id string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + id
}

// VerificationPNG renders the verification link for a token as a PNG image.
// A non-positive size falls back to the default.
func VerificationPNG(baseURL string, id string, size int) ([]byte, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("token identifier is required")
	}
	if size <= 0 {
		size = defaultSize
	}

	image, err := qrcode.Encode(VerificationURL(baseURL, id), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return image, nil
}
