package ledger

import (
	"context"
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"

	"github.com/nursecredx/credgate/pkg/config"
)

// Client owns the write path to the ledger: collection creation, credential
// minting, burning, and URI updates, executed as the configured operator.
type Client struct {
	hederaClient *hedera.Client
	operatorID   hedera.AccountID
	operatorKey  hedera.PrivateKey
	network      string
	collectionID string
	royaltyBps   int
}

// NewClient creates a new Client.
func NewClient(cfg Config) (*Client, error) {
	network, err := config.NormalizeNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.OperatorAccountID) == "" {
		return nil, fmt.Errorf("operator account ID is required")
	}
	if strings.TrimSpace(cfg.OperatorPrivateKey) == "" {
		return nil, fmt.Errorf("operator private key is required")
	}
	if cfg.RoyaltyBps < 0 || cfg.RoyaltyBps > 10000 {
		return nil, fmt.Errorf("royalty must be between 0 and 10000 basis points, got %d", cfg.RoyaltyBps)
	}

	accountID, err := hedera.AccountIDFromString(cfg.OperatorAccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid operator account ID: %w", err)
	}
	privateKey, err := ParsePrivateKey(cfg.OperatorPrivateKey)
	if err != nil {
		return nil, err
	}

	var hederaClient *hedera.Client
	if network == config.NetworkMainnet {
		hederaClient = hedera.ClientForMainnet()
	} else {
		hederaClient = hedera.ClientForTestnet()
	}
	hederaClient.SetOperator(accountID, privateKey)

	collectionID := strings.TrimSpace(cfg.CollectionTokenID)
	if collectionID != "" {
		if _, err := hedera.TokenIDFromString(collectionID); err != nil {
			return nil, fmt.Errorf("invalid collection token ID: %w", err)
		}
	}

	return &Client{
		hederaClient: hederaClient,
		operatorID:   accountID,
		operatorKey:  privateKey,
		network:      network,
		collectionID: collectionID,
		royaltyBps:   cfg.RoyaltyBps,
	}, nil
}

// OperatorID reports the custodial account credentials are minted under.
func (c *Client) OperatorID() string {
	return c.operatorID.String()
}

// CollectionID reports the collection token class, empty until configured or
// created.
func (c *Client) CollectionID() string {
	return c.collectionID
}

// EnsureCollection creates the collection token when none is configured and
// returns the collection ID in use.
func (c *Client) EnsureCollection(ctx context.Context, name string, symbol string) (string, error) {
	if c.collectionID != "" {
		return c.collectionID, nil
	}

	transaction, err := BuildCollectionCreateTx(name, symbol, c.operatorID, c.operatorKey.PublicKey(), c.royaltyBps)
	if err != nil {
		return "", err
	}

	receipt, _, err := c.execute(transaction)
	if err != nil {
		return "", fmt.Errorf("failed to create collection token: %w", err)
	}
	if receipt.TokenID == nil {
		return "", fmt.Errorf("collection creation receipt did not include a token ID")
	}

	c.collectionID = receipt.TokenID.String()
	return c.collectionID, nil
}

// Mint creates one credential serial carrying the given URI.
func (c *Client) Mint(ctx context.Context, params MintParams) (MintResult, error) {
	if c.collectionID == "" {
		return MintResult{}, ErrNoCollection
	}
	if params.TransferFeeBps != nil && *params.TransferFeeBps != c.royaltyBps {
		return MintResult{}, fmt.Errorf("%w: collection carries %d bps", ErrFeeMismatch, c.royaltyBps)
	}

	memo := params.Memo
	if memo == "" {
		memo = MintMemo(params.Taxon, params.Flags)
	}

	transaction, err := BuildMintTx(c.collectionID, params.URI, memo)
	if err != nil {
		return MintResult{}, err
	}

	receipt, transactionID, err := c.execute(transaction)
	if err != nil {
		return MintResult{}, fmt.Errorf("failed to execute mint transaction: %w", err)
	}

	serial := int64(0)
	if len(receipt.SerialNumbers) > 0 {
		serial = receipt.SerialNumbers[0]
	}

	return MintResult{
		NftID:         ComposeNftID(c.collectionID, serial),
		TokenID:       c.collectionID,
		SerialNumber:  serial,
		TransactionID: transactionID,
		URI:           params.URI,
	}, nil
}

// Burn destroys a credential serial.
func (c *Client) Burn(ctx context.Context, nftID string) (BurnResult, error) {
	tokenID, serial, err := ParseNftID(nftID)
	if err != nil {
		return BurnResult{}, err
	}

	transaction, err := BuildBurnTx(tokenID, serial)
	if err != nil {
		return BurnResult{}, err
	}

	_, transactionID, err := c.execute(transaction)
	if err != nil {
		return BurnResult{}, fmt.Errorf("failed to execute burn transaction: %w", err)
	}

	return BurnResult{NftID: nftID, TransactionID: transactionID}, nil
}

// UpdateURI replaces the URI carried by an existing credential serial.
func (c *Client) UpdateURI(ctx context.Context, nftID string, uri string) (UpdateURIResult, error) {
	tokenID, serial, err := ParseNftID(nftID)
	if err != nil {
		return UpdateURIResult{}, err
	}

	transaction, err := BuildUpdateURITx(tokenID, serial, uri)
	if err != nil {
		return UpdateURIResult{}, err
	}

	_, transactionID, err := c.execute(transaction)
	if err != nil {
		return UpdateURIResult{}, fmt.Errorf("failed to execute metadata update: %w", err)
	}

	return UpdateURIResult{NftID: nftID, NewURI: uri, TransactionID: transactionID}, nil
}

type executable interface {
	Execute(client *hedera.Client) (hedera.TransactionResponse, error)
}

func (c *Client) execute(transaction executable) (hedera.TransactionReceipt, string, error) {
	response, err := transaction.Execute(c.hederaClient)
	if err != nil {
		return hedera.TransactionReceipt{}, "", err
	}

	receipt, err := response.GetReceipt(c.hederaClient)
	if err != nil {
		return hedera.TransactionReceipt{}, "", err
	}
	if receipt.Status.String() != "SUCCESS" {
		return hedera.TransactionReceipt{}, "", fmt.Errorf("transaction failed with status %s", receipt.Status.String())
	}

	return receipt, response.TransactionID.String(), nil
}

// ParsePrivateKey accepts ED25519, ECDSA, or DER-encoded key strings.
func ParsePrivateKey(raw string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return hedera.PrivateKey{}, fmt.Errorf("private key cannot be empty")
	}

	if key, err := hedera.PrivateKeyFromStringEd25519(candidate); err == nil {
		return key, nil
	}
	if key, err := hedera.PrivateKeyFromStringECDSA(candidate); err == nil {
		return key, nil
	}
	if key, err := hedera.PrivateKeyFromString(candidate); err == nil {
		return key, nil
	}

	return hedera.PrivateKey{}, fmt.Errorf("failed to parse private key")
}
