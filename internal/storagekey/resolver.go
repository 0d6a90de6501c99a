// Package storagekey computes the exact storage keys a Substrate node
// expects for point lookups.
package storagekey

import (
	"fmt"

	"github.com/Meridian-labs/meridian-wallet/internal/metadata"
	"github.com/Meridian-labs/meridian-wallet/pkg/crypto"
)

// Resolve builds the full storage key for an entry: the 16-byte twox128
// hash of the storage prefix, the 16-byte twox128 hash of the entry name,
// then each SCALE-encoded key value passed through the hasher the metadata
// declares for that position.
//
// The number of encoded keys must equal the entry's declared arity; a
// mismatch is a programming error, not a retryable fault. The hasher is
// always read from metadata: a wrong hasher would produce a syntactically
// valid key that silently never matches anything on chain.
func Resolve(entry *metadata.StorageEntry, encodedKeys ...[]byte) ([]byte, error) {
	if len(encodedKeys) != entry.KeyArity() {
		return nil, fmt.Errorf("storage key %s.%s: got %d key values, entry declares %d",
			entry.Prefix, entry.Name, len(encodedKeys), entry.KeyArity())
	}

	key := make([]byte, 0, 32+len(encodedKeys)*40)
	key = append(key, crypto.Twox128([]byte(entry.Prefix))...)
	key = append(key, crypto.Twox128([]byte(entry.Name))...)
	for i, encoded := range encodedKeys {
		key = append(key, apply(entry.Hashers[i], encoded)...)
	}
	return key, nil
}

// apply runs one metadata-declared hasher over an encoded key value.
func apply(h metadata.Hasher, data []byte) []byte {
	switch h {
	case metadata.HasherIdentity:
		return data
	case metadata.HasherTwox64Concat:
		return crypto.Twox64Concat(data)
	case metadata.HasherTwox128:
		return crypto.Twox128(data)
	case metadata.HasherTwox256:
		return crypto.Twox256(data)
	case metadata.HasherBlake2b128:
		return crypto.Blake2b128(data)
	case metadata.HasherBlake2b128Concat:
		return crypto.Blake2b128Concat(data)
	case metadata.HasherBlake2b256:
		return crypto.Blake2b256(data)
	default:
		// Unreachable: metadata decoding rejects unknown hasher tags.
		panic(fmt.Sprintf("unknown hasher %d", h))
	}
}
