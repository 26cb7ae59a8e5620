// Package resolver turns a token identifier into a verification result. It
// looks the record up on the ledger (direct point lookup with a
// holdings-scan fallback), decodes the record's URI from its native
// encoding, and resolves metadata by URI scheme: inline data URLs, IPFS and
// Arweave gateways, HCS-1 topics, and plain web URLs. Every fetch or parse
// failure is isolated into a degraded status so a verification call never
// fails because its metadata source did.
package resolver
