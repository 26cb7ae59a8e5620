package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nursecredx/credgate/pkg/config"
	"github.com/nursecredx/credgate/pkg/ledger"
	"github.com/nursecredx/credgate/pkg/mirror"
	"github.com/nursecredx/credgate/pkg/publisher"
	"github.com/nursecredx/credgate/pkg/resolver"
)

// Ledger is the write path the mutating endpoints need; *ledger.Client
// satisfies it.
type Ledger interface {
	Mint(ctx context.Context, params ledger.MintParams) (ledger.MintResult, error)
	Burn(ctx context.Context, nftID string) (ledger.BurnResult, error)
	UpdateURI(ctx context.Context, nftID string, uri string) (ledger.UpdateURIResult, error)
	OperatorID() string
	CollectionID() string
}

// Verifier produces verification results; *resolver.Resolver satisfies it.
type Verifier interface {
	Resolve(ctx context.Context, id string) (resolver.Result, error)
}

// Holdings lists the custodial account's tokens; *mirror.Client satisfies it.
type Holdings interface {
	GetAccountNfts(ctx context.Context, accountID string, tokenID string) ([]mirror.Nft, error)
}

type Deps struct {
	Ledger    Ledger
	Verifier  Verifier
	Holdings  Holdings
	Publisher publisher.Publisher
	Logger    zerolog.Logger
}

// Server is the HTTP surface of the gateway. All state it carries is
// established at startup; request handling shares nothing mutable.
type Server struct {
	cfg       config.Config
	ledger    Ledger
	verifier  Verifier
	holdings  Holdings
	publisher publisher.Publisher
	logger    zerolog.Logger
	handler   http.Handler
}

// New creates a new Server.
func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if deps.Holdings == nil {
		return nil, fmt.Errorf("holdings source is required")
	}
	if deps.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	s := &Server{
		cfg:       cfg,
		ledger:    deps.Ledger,
		verifier:  deps.Verifier,
		holdings:  deps.Holdings,
		publisher: deps.Publisher,
		logger:    deps.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /mint", s.gated(s.handleMint))
	mux.HandleFunc("GET /nfts", s.handleNfts)
	mux.HandleFunc("POST /burn", s.gated(s.handleBurn))
	mux.HandleFunc("GET /verify/{id...}", s.handleVerify)
	mux.HandleFunc("GET /qr/{id...}", s.handleQR)
	mux.HandleFunc("POST /metadata", s.gated(s.handleMetadata))
	mux.HandleFunc("POST /update-uri", s.gated(s.handleUpdateURI))

	s.handler = s.logged(mux)
	return s, nil
}

// Handler exposes the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks serving the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("credential gateway listening")
	return http.ListenAndServe(s.cfg.ListenAddr, s.handler)
}
