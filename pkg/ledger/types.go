package ledger

import "errors"

type Config struct {
	Network            string
	OperatorAccountID  string
	OperatorPrivateKey string
	CollectionTokenID  string
	RoyaltyBps         int
}

// MintParams describes a single credential mint. TransferFeeBps is optional;
// when present it must agree with the collection royalty (fees are a
// collection-level property on Hedera, not a per-serial one).
type MintParams struct {
	URI            string
	Taxon          int
	Flags          []string
	TransferFeeBps *int
	Memo           string
}

type MintResult struct {
	NftID         string `json:"nftId"`
	TokenID       string `json:"tokenId"`
	SerialNumber  int64  `json:"serialNumber"`
	TransactionID string `json:"transactionId"`
	URI           string `json:"uri"`
}

type BurnResult struct {
	NftID         string `json:"nftId"`
	TransactionID string `json:"transactionId"`
}

type UpdateURIResult struct {
	NftID         string `json:"nftId"`
	NewURI        string `json:"newUri"`
	TransactionID string `json:"transactionId"`
}

// ErrFeeMismatch reports a per-mint transfer fee that disagrees with the
// collection royalty.
var ErrFeeMismatch = errors.New("transfer fee does not match the collection royalty")

// ErrNoCollection reports an operation attempted before a collection token
// was configured or created.
var ErrNoCollection = errors.New("no collection token configured")
