package types

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/Meridian-labs/meridian-wallet/pkg/crypto"
)

// Registered SS58 network prefixes.
const (
	SS58Polkadot uint16 = 0
	SS58Kusama   uint16 = 2
	SS58Generic  uint16 = 42
)

// ss58ChecksumPreimage is prepended to the payload before hashing.
var ss58ChecksumPreimage = []byte("SS58PRE")

const ss58ChecksumSize = 2

// EncodeSS58 renders an account ID as an SS58 address for the given
// network prefix. Prefixes up to 63 use the one-byte form, prefixes up to
// 16383 the two-byte form.
func EncodeSS58(a AccountID, network uint16) (string, error) {
	var payload []byte
	switch {
	case network < 64:
		payload = append(payload, byte(network))
	case network < 16384:
		// Two-byte form: 6 low bits in the first byte with the 0b01 marker,
		// the rest split across the second byte.
		payload = append(payload,
			byte(network&0b0011_1111)|0b0100_0000,
			byte(network>>6))
	default:
		return "", fmt.Errorf("ss58 network prefix %d out of range", network)
	}
	payload = append(payload, a[:]...)

	check := ss58Checksum(payload)
	payload = append(payload, check...)
	return base58.Encode(payload), nil
}

// DecodeSS58 parses an SS58 address, returning the account ID and the
// network prefix it was encoded for.
func DecodeSS58(addr string) (AccountID, uint16, error) {
	var a AccountID
	raw, err := base58.Decode(addr)
	if err != nil {
		return a, 0, fmt.Errorf("ss58 base58: %w", err)
	}
	if len(raw) < 1+AccountIDSize+ss58ChecksumSize {
		return a, 0, fmt.Errorf("ss58 address too short (%d bytes)", len(raw))
	}

	var network uint16
	var prefixLen int
	switch {
	case raw[0] < 64:
		network = uint16(raw[0])
		prefixLen = 1
	case raw[0] < 128:
		if len(raw) < 2+AccountIDSize+ss58ChecksumSize {
			return a, 0, fmt.Errorf("ss58 address too short for two-byte prefix")
		}
		network = uint16(raw[0]&0b0011_1111) | uint16(raw[1])<<6
		prefixLen = 2
	default:
		return a, 0, fmt.Errorf("ss58 reserved prefix byte 0x%02x", raw[0])
	}

	body := raw[:len(raw)-ss58ChecksumSize]
	check := raw[len(raw)-ss58ChecksumSize:]
	if !bytes.Equal(check, ss58Checksum(body)) {
		return a, 0, fmt.Errorf("ss58 checksum mismatch")
	}

	pubkey := body[prefixLen:]
	if len(pubkey) != AccountIDSize {
		return a, 0, fmt.Errorf("ss58 payload is %d bytes, want %d", len(pubkey), AccountIDSize)
	}
	copy(a[:], pubkey)
	return a, network, nil
}

func ss58Checksum(payload []byte) []byte {
	preimage := make([]byte, 0, len(ss58ChecksumPreimage)+len(payload))
	preimage = append(preimage, ss58ChecksumPreimage...)
	preimage = append(preimage, payload...)
	return crypto.Blake2b512(preimage)[:ss58ChecksumSize]
}
