// Package tokenid validates token identities. A token id is a Solana
// mint address: a base58-encoded 32-byte ed25519 curve point.
package tokenid

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidToken is returned for malformed token identities.
var ErrInvalidToken = errors.New("invalid token id")

// Validate checks that tokenID is a well-formed mint address.
// Returns ErrInvalidToken (wrapped with detail) if not.
func Validate(tokenID string) error {
	if tokenID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	decoded, err := base58.Decode(tokenID)
	if err != nil {
		return fmt.Errorf("%w: not base58: %s", ErrInvalidToken, tokenID)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: decoded length %d, want 32", ErrInvalidToken, len(decoded))
	}
	if !isOnCurve(decoded) {
		return fmt.Errorf("%w: not an ed25519 point", ErrInvalidToken)
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
