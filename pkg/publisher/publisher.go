package publisher

import (
	"context"
	"fmt"

	"github.com/nursecredx/credgate/pkg/config"
)

// Publisher stores a serialized credential payload on a content-addressed
// backend and returns the URI a token record points at.
type Publisher interface {
	// Publish uploads the payload and returns its content-addressed URI.
	Publish(ctx context.Context, payload []byte, name string) (string, error)
}

// FromConfig selects the backend by credential availability: a Pinata JWT
// wins, otherwise the inscription service key is used. Validate has already
// rejected configurations with neither.
func FromConfig(cfg config.Config) (Publisher, error) {
	switch cfg.PublisherSelection() {
	case config.PublisherPinata:
		return NewPinataPublisher(PinataConfig{
			JWT:     cfg.PinataJWT,
			BaseURL: cfg.PinataBaseURL,
		})
	case config.PublisherInscriber:
		return NewInscriberPublisher(InscriberConfig{
			APIKey:             cfg.InscriberAPIKey,
			BaseURL:            cfg.InscriberBaseURL,
			Network:            cfg.Network,
			OperatorAccountID:  cfg.OperatorAccountID,
			OperatorPrivateKey: cfg.OperatorPrivateKey,
		})
	default:
		return nil, fmt.Errorf("no publisher credential configured")
	}
}
