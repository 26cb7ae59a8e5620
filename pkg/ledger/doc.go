// Package ledger is the gateway's write path to the Hedera public ledger.
// It creates the credential collection token, mints serials whose metadata
// bytes carry a content-addressed URI, burns serials, and replaces URIs via
// HIP-657 metadata updates. Pure transaction builders are separated from
// execution so they can be tested without a network.
package ledger
