// Package server exposes the credential gateway over HTTP: minting, listing,
// burning and re-pointing credential tokens, building and publishing
// credential payloads, public verification, and QR rendering. Mutating
// endpoints sit behind a shared-secret gate; read endpoints are open.
package server
