// Package metadata computes and verifies content checksums for artifacts.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HashPrefix marks the algorithm of a checksum string.
const HashPrefix = "sha256:"

// Checksum verification errors.
var (
	ErrNoHashFound      = errors.New("no checksum found")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrUnknownAlgorithm = errors.New("unknown checksum algorithm")
)

// CalculateHash returns "sha256:<hex>" over the compact JSON encoding of v.
func CalculateHash(v any) (string, error) {
	content, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding content for hashing: %w", err)
	}

	return HashBytes(content), nil
}

// HashBytes returns "sha256:<hex>" over content.
func HashBytes(content []byte) string {
	hash := sha256.Sum256(content)

	return HashPrefix + hex.EncodeToString(hash[:])
}

// Verify checks that v hashes to want.
func Verify(v any, want string) error {
	if want == "" {
		return ErrNoHashFound
	}

	if !strings.HasPrefix(want, HashPrefix) {
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, want)
	}

	calculated, err := CalculateHash(v)
	if err != nil {
		return err
	}

	if calculated != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, calculated)
	}

	return nil
}
