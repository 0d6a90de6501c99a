package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Signer signs messages with a private key. Implementations must not
// retain or inspect the message beyond producing the signature.
type Signer interface {
	// Sign produces a signature over an arbitrary-length message.
	Sign(message []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// EcdsaSignatureSize is the size of a Substrate ECDSA signature:
// 64 bytes of (r, s) plus one recovery byte.
const EcdsaSignatureSize = 65

// PrivateKey wraps a secp256k1 private key for ECDSA signing. Substrate
// ECDSA signatures are 65-byte compact recoverable signatures over the
// BLAKE2b-256 hash of the message.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Sign produces a 65-byte recoverable ECDSA signature over
// Blake2b256(message). The recovery byte is moved to the end, the layout
// Substrate expects.
func (pk *PrivateKey) Sign(message []byte) ([]byte, error) {
	hash := Blake2b256(message)
	compact := ecdsa.SignCompact(pk.key, hash, true)
	sig := make([]byte, EcdsaSignatureSize)
	copy(sig, compact[1:])
	// SignCompact prepends the header byte 27+recid(+4 for compressed).
	sig[64] = compact[0] - 27 - 4
	return sig, nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// VerifySignature checks a 65-byte recoverable signature against a message
// and a compressed public key. Returns false on any error.
func VerifySignature(message, signature, publicKey []byte) bool {
	if len(signature) != EcdsaSignatureSize {
		return false
	}
	hash := Blake2b256(message)
	compact := make([]byte, EcdsaSignatureSize)
	compact[0] = signature[64] + 27 + 4
	copy(compact[1:], signature[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return false
	}
	want, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	return pub.IsEqual(want)
}
