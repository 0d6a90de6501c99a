// Package crypto provides the hashing and signing primitives used by
// Substrate-family chains.
package crypto

import (
	"encoding/binary"

	"github.com/pierrec/xxHash/xxHash64"
	"golang.org/x/crypto/blake2b"
)

// Twox64 computes xxhash64 with seed 0, serialized little-endian.
func Twox64(data []byte) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, xxHash64.Checksum(data, 0))
	return out
}

// Twox128 computes the 16-byte twox hash: xxhash64 runs with seeds 0 and 1,
// each serialized little-endian and concatenated.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], xxHash64.Checksum(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxHash64.Checksum(data, 1))
	return out
}

// Twox256 computes the 32-byte twox hash with seeds 0 through 3.
func Twox256(data []byte) []byte {
	out := make([]byte, 32)
	for seed := uint64(0); seed < 4; seed++ {
		binary.LittleEndian.PutUint64(out[seed*8:], xxHash64.Checksum(data, seed))
	}
	return out
}

// Twox64Concat computes Twox64(data) ++ data, the reversible map hasher.
func Twox64Concat(data []byte) []byte {
	return append(Twox64(data), data...)
}

// Blake2b128 computes a 128-bit BLAKE2b hash.
func Blake2b128(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New only fails for a bad size or key; neither applies.
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}

// Blake2b128Concat computes Blake2b128(data) ++ data.
func Blake2b128Concat(data []byte) []byte {
	return append(Blake2b128(data), data...)
}

// Blake2b256 computes a 256-bit BLAKE2b hash.
func Blake2b256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// Blake2b512 computes a 512-bit BLAKE2b hash.
func Blake2b512(data []byte) []byte {
	sum := blake2b.Sum512(data)
	return sum[:]
}
