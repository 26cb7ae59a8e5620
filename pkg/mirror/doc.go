// Package mirror provides the read-only view of the Hedera public ledger the
// credential gateway relies on: NFT point lookups, paged account holdings,
// and topic message retrieval for HCS-1 content, all against the mirror node
// REST API.
package mirror
