// Package idempotency implements safe-retry support for unsafe HTTP methods:
// a request fingerprint generator and a TTL-backed record store keyed by the
// client-supplied idempotency token.
//
// This file implements the fingerprint. The digest covers the four fields
// that define a request's identity (method, path, body, caller) so that
// reusing a token with a semantically different request is detectable.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// fingerprintInput is the canonical serialization of the identity-relevant
// request fields. encoding/json emits struct fields in declaration order, so
// keeping them alphabetical fixes the byte layout of the digest input.
type fingerprintInput struct {
	Body   string `json:"body"`
	Method string `json:"method"`
	Path   string `json:"path"`
	User   string `json:"user"`
}

// Fingerprint returns a hex SHA-256 digest over the canonical serialization
// of (method, path, body, userID). It is deterministic and has no side
// effects: identical inputs always yield identical output, and any change to
// body content, path, method, or caller changes the digest.
func Fingerprint(method, path string, body []byte, userID string) string {
	in := fingerprintInput{
		Body:   string(body),
		Method: method,
		Path:   path,
		User:   userID,
	}
	// Marshaling a flat struct of strings cannot fail.
	raw, _ := json.Marshal(in)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
