package ledger

import (
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// BuildMintTx assembles a mint transaction whose metadata bytes are the
// credential URI.
func BuildMintTx(tokenID string, uri string, memo string) (*hedera.TokenMintTransaction, error) {
	trimmedTokenID := strings.TrimSpace(tokenID)
	if trimmedTokenID == "" {
		return nil, fmt.Errorf("token ID is required")
	}
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("uri is required")
	}
	parsedTokenID, err := hedera.TokenIDFromString(trimmedTokenID)
	if err != nil {
		return nil, fmt.Errorf("invalid token ID: %w", err)
	}

	transaction := hedera.NewTokenMintTransaction().
		SetTokenID(parsedTokenID).
		SetMetadata([]byte(uri))

	if strings.TrimSpace(memo) != "" {
		transaction.SetTransactionMemo(memo)
	}

	return transaction, nil
}

// BuildBurnTx assembles a burn transaction for a single serial.
func BuildBurnTx(tokenID string, serial int64) (*hedera.TokenBurnTransaction, error) {
	trimmedTokenID := strings.TrimSpace(tokenID)
	if trimmedTokenID == "" {
		return nil, fmt.Errorf("token ID is required")
	}
	if serial <= 0 {
		return nil, fmt.Errorf("serial must be positive")
	}
	parsedTokenID, err := hedera.TokenIDFromString(trimmedTokenID)
	if err != nil {
		return nil, fmt.Errorf("invalid token ID: %w", err)
	}

	return hedera.NewTokenBurnTransaction().
		SetTokenID(parsedTokenID).
		SetSerialNumbers([]int64{serial}), nil
}

// BuildUpdateURITx assembles an HIP-657 metadata update replacing the URI
// carried by a single serial.
func BuildUpdateURITx(tokenID string, serial int64, uri string) (*hedera.TokenUpdateNfts, error) {
	trimmedTokenID := strings.TrimSpace(tokenID)
	if trimmedTokenID == "" {
		return nil, fmt.Errorf("token ID is required")
	}
	if serial <= 0 {
		return nil, fmt.Errorf("serial must be positive")
	}
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("uri is required")
	}
	parsedTokenID, err := hedera.TokenIDFromString(trimmedTokenID)
	if err != nil {
		return nil, fmt.Errorf("invalid token ID: %w", err)
	}

	return hedera.NewTokenUpdateNftsTransaction().
		SetTokenID(parsedTokenID).
		SetSerialNumbers([]int64{serial}).
		SetMetadata([]byte(uri)), nil
}

// BuildCollectionCreateTx assembles the collection token the gateway mints
// credentials under: non-fungible, operator treasury, supply and metadata
// keys held by the operator so serials stay mintable and their URIs mutable,
// plus an optional royalty fee.
func BuildCollectionCreateTx(
	name string,
	symbol string,
	treasury hedera.AccountID,
	operatorKey hedera.PublicKey,
	royaltyBps int,
) (*hedera.TokenCreateTransaction, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("collection symbol is required")
	}
	if royaltyBps < 0 || royaltyBps > 10000 {
		return nil, fmt.Errorf("royalty must be between 0 and 10000 basis points, got %d", royaltyBps)
	}

	transaction := hedera.NewTokenCreateTransaction().
		SetTokenName(name).
		SetTokenSymbol(symbol).
		SetTokenType(hedera.TokenTypeNonFungibleUnique).
		SetDecimals(0).
		SetInitialSupply(0).
		SetSupplyType(hedera.TokenSupplyTypeInfinite).
		SetTreasuryAccountID(treasury).
		SetSupplyKey(operatorKey).
		SetMetadataKey(operatorKey)

	if royaltyBps > 0 {
		royalty := hedera.NewCustomRoyaltyFee().
			SetNumerator(int64(royaltyBps)).
			SetDenominator(10000).
			SetFeeCollectorAccountID(treasury)
		transaction.SetCustomFees([]hedera.Fee{royalty})
	}

	return transaction, nil
}

// MintMemo renders the issuance parameters that have no direct Hedera field
// into the mint transaction memo.
func MintMemo(taxon int, flags []string) string {
	parts := make([]string, 0, 2)
	if taxon != 0 {
		parts = append(parts, fmt.Sprintf("taxon=%d", taxon))
	}

	cleaned := make([]string, 0, len(flags))
	for _, flag := range flags {
		trimmed := strings.TrimSpace(flag)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) > 0 {
		parts = append(parts, "flags="+strings.Join(cleaned, "|"))
	}

	return strings.Join(parts, ";")
}
