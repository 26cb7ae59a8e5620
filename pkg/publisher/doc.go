// Package publisher stores serialized credential payloads on a
// content-addressed backend. Two hosted backends are supported behind one
// interface — IPFS pinning via Pinata and HCS-1 inscription via the hosted
// inscription service — selected at startup by which credential is
// configured.
package publisher
