// Package fingerprint computes algorithm-tagged content hashes used for
// optimistic concurrency checks.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/starford/ansuz/internal/apperr"
)

// Prefix tags fingerprints with the hash algorithm so future algorithms
// can coexist with stored values.
const Prefix = "sha256:"

// Sum returns the tagged SHA-256 digest of content. Unchanged content always
// yields a byte-identical fingerprint.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return Prefix + hex.EncodeToString(h[:])
}

// Validate recomputes the fingerprint of current and compares it against the
// one the caller supplied. A mismatch means the content changed underneath
// the caller and the write must be rejected.
func Validate(current []byte, supplied string) error {
	fresh := Sum(current)
	if fresh != supplied {
		return &apperr.ContentConflictError{Current: fresh, Supplied: supplied}
	}
	return nil
}

// Require checks that an update operation carries a fingerprint at all.
func Require(supplied string) error {
	if supplied == "" {
		return apperr.ErrMissingFingerprint
	}
	return nil
}

// TypeDefinitionSum hashes a note-type definition (description, agent
// instructions, schema) for drift detection. The schema map is canonicalized
// before hashing: encoding/json emits map keys in sorted order, so the result
// is independent of key insertion order.
func TypeDefinitionSum(description, instructions string, schema map[string]any) string {
	canonical, err := json.Marshal(struct {
		Description  string         `json:"description"`
		Instructions string         `json:"instructions"`
		Schema       map[string]any `json:"schema"`
	}{description, instructions, schema})
	if err != nil {
		// Maps of JSON-compatible values cannot fail to marshal; fall back
		// to hashing the text fields alone.
		return Sum([]byte(description + "\x00" + instructions))
	}
	return Sum(canonical)
}
