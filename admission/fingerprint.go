package admission

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is the fixed-size cache key derived from a statement.
type Fingerprint uint64

// String returns the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Fingerprinter derives fingerprints from raw statement text.
//
// Contract:
// - Determinism: the same statement must always produce the same fingerprint.
// - Concurrency: implementations must be safe for concurrent use.
type Fingerprinter interface {
	Fingerprint(statement string) Fingerprint
}

// FingerprinterFunc adapts an ordinary function to a Fingerprinter.
type FingerprinterFunc func(statement string) Fingerprint

// Fingerprint calls f(statement).
func (f FingerprinterFunc) Fingerprint(statement string) Fingerprint {
	return f(statement)
}

// XXHashFingerprinter fingerprints statements with 64-bit xxHash.
// It is the default.
type XXHashFingerprinter struct{}

// Fingerprint returns xxhash64 of the statement text.
func (XXHashFingerprinter) Fingerprint(statement string) Fingerprint {
	return Fingerprint(xxhash.Sum64String(statement))
}

// SHA256Fingerprinter fingerprints statements with the first 8 bytes of
// SHA-256. Slower than xxHash; useful when fingerprints must match values
// computed by other tooling.
type SHA256Fingerprinter struct{}

// Fingerprint returns the big-endian first 8 bytes of sha256(statement).
func (SHA256Fingerprinter) Fingerprint(statement string) Fingerprint {
	sum := sha256.Sum256([]byte(statement))
	return Fingerprint(binary.BigEndian.Uint64(sum[:8]))
}

var (
	_ Fingerprinter = XXHashFingerprinter{}
	_ Fingerprinter = SHA256Fingerprinter{}
	_ Fingerprinter = FingerprinterFunc(nil)
)
