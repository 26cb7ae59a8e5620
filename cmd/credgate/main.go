// credgate is the NurseCredX credential gateway: an HTTP API that mints,
// lists, burns, and re-points credential tokens on Hedera, publishes
// credential payloads to content-addressed storage, and serves public
// verification with QR codes.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/nursecredx/credgate/pkg/config"
	"github.com/nursecredx/credgate/pkg/ledger"
	"github.com/nursecredx/credgate/pkg/mirror"
	"github.com/nursecredx/credgate/pkg/publisher"
	"github.com/nursecredx/credgate/pkg/resolver"
	"github.com/nursecredx/credgate/pkg/server"
)

const (
	collectionName   = "NurseCredX Credentials"
	collectionSymbol = "NCRED"

	startupTimeout = 2 * time.Minute
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	mirrorClient, err := mirror.NewClient(mirror.Config{
		Network: cfg.Network,
		BaseURL: cfg.MirrorBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create mirror client")
	}

	ledgerClient, err := ledger.NewClient(ledger.Config{
		Network:            cfg.Network,
		OperatorAccountID:  cfg.OperatorAccountID,
		OperatorPrivateKey: cfg.OperatorPrivateKey,
		CollectionTokenID:  cfg.CollectionTokenID,
		RoyaltyBps:         cfg.DefaultRoyaltyBps,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ledger client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	collectionID, err := ledgerClient.EnsureCollection(ctx, collectionName, collectionSymbol)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure collection token")
	}
	logger.Info().
		Str("network", cfg.Network).
		Str("collection", collectionID).
		Str("operator", ledgerClient.OperatorID()).
		Msg("collection ready")

	verifier, err := resolver.New(resolver.Config{
		Mirror:             mirrorClient,
		CustodialAccountID: ledgerClient.OperatorID(),
		IPFSGatewayURL:     cfg.IPFSGatewayURL,
		ArweaveGatewayURL:  cfg.ArweaveGatewayURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create resolver")
	}

	contentPublisher, err := publisher.FromConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create publisher")
	}
	logger.Info().Str("backend", string(cfg.PublisherSelection())).Msg("publisher selected")

	srv, err := server.New(cfg, server.Deps{
		Ledger:    ledgerClient,
		Verifier:  verifier,
		Holdings:  mirrorClient,
		Publisher: contentPublisher,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	if !cfg.GateEnabled() {
		logger.Warn().Msg("no API key configured; mutating endpoints are unprotected")
	}

	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
