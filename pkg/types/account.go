// Package types defines chain-level value types shared across the library.
package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Meridian-labs/meridian-wallet/pkg/scale"
)

// AccountIDSize is the size of a Substrate account identifier.
const AccountIDSize = 32

// AccountID is a 32-byte Substrate account identifier (AccountId32).
type AccountID [AccountIDSize]byte

// AccountIDFromBytes creates an AccountID from a 32-byte slice.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var a AccountID
	if len(b) != AccountIDSize {
		return a, fmt.Errorf("account id must be %d bytes, got %d", AccountIDSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AccountIDFromHex parses an account ID from a hex string, with or without
// a 0x prefix.
func AccountIDFromHex(s string) (AccountID, error) {
	var a AccountID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return a, fmt.Errorf("parse account id: %w", err)
	}
	return AccountIDFromBytes(b)
}

// Bytes returns a copy of the account ID bytes.
func (a AccountID) Bytes() []byte {
	out := make([]byte, AccountIDSize)
	copy(out, a[:])
	return out
}

// String returns the 0x-prefixed hex representation.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the account ID is all zeroes.
func (a AccountID) IsZero() bool {
	var zero AccountID
	return a == zero
}

// Equal reports byte equality with another account ID.
func (a AccountID) Equal(other AccountID) bool {
	return bytes.Equal(a[:], other[:])
}

// DecodeAccountID is a scale.Decoder for 32-byte account identifiers.
func DecodeAccountID(buf []byte, off int) (AccountID, int, error) {
	var a AccountID
	raw, n, err := scale.DecodeFixedBytes(buf, off, AccountIDSize)
	if err != nil {
		return a, 0, fmt.Errorf("account id: %w", err)
	}
	copy(a[:], raw)
	return a, n, nil
}

// AppendAccountID appends the raw 32 bytes, the SCALE form of AccountId32.
func AppendAccountID(dst []byte, a AccountID) []byte {
	return append(dst, a[:]...)
}
