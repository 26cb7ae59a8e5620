// Package credential builds the canonical credential payloads the gateway
// publishes to content-addressed storage. Every payload carries the fixed
// verifier tag, schema version, and issuance timestamp; caller-supplied
// extension fields can never shadow them.
package credential
