package scale

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// DecodeU8 decodes a single byte.
func DecodeU8(buf []byte, off int) (uint8, int, error) {
	if remaining(buf, off) < 1 {
		return 0, 0, fmt.Errorf("u8 at offset %d: %w", off, ErrUnexpectedEOF)
	}
	return buf[off], 1, nil
}

// DecodeU16 decodes a little-endian u16.
func DecodeU16(buf []byte, off int) (uint16, int, error) {
	if remaining(buf, off) < 2 {
		return 0, 0, fmt.Errorf("u16 at offset %d: %w", off, ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint16(buf[off:]), 2, nil
}

// DecodeU32 decodes a little-endian u32.
func DecodeU32(buf []byte, off int) (uint32, int, error) {
	if remaining(buf, off) < 4 {
		return 0, 0, fmt.Errorf("u32 at offset %d: %w", off, ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint32(buf[off:]), 4, nil
}

// DecodeU64 decodes a little-endian u64.
func DecodeU64(buf []byte, off int) (uint64, int, error) {
	if remaining(buf, off) < 8 {
		return 0, 0, fmt.Errorf("u64 at offset %d: %w", off, ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint64(buf[off:]), 8, nil
}

// DecodeU128 decodes a little-endian u128 into a big.Int.
func DecodeU128(buf []byte, off int) (*big.Int, int, error) {
	if remaining(buf, off) < 16 {
		return nil, 0, fmt.Errorf("u128 at offset %d: %w", off, ErrUnexpectedEOF)
	}
	// big.Int wants big-endian bytes.
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[15-i] = buf[off+i]
	}
	return new(big.Int).SetBytes(be), 16, nil
}

// DecodeBool decodes a boolean. Any value other than 0x00 or 0x01 is
// rejected.
func DecodeBool(buf []byte, off int) (bool, int, error) {
	if remaining(buf, off) < 1 {
		return false, 0, fmt.Errorf("bool at offset %d: %w", off, ErrUnexpectedEOF)
	}
	switch buf[off] {
	case 0x00:
		return false, 1, nil
	case 0x01:
		return true, 1, nil
	default:
		return false, 0, fmt.Errorf("bool at offset %d: invalid value 0x%02x", off, buf[off])
	}
}

// DecodeFixedBytes decodes n raw bytes (no length prefix). The returned
// slice is a copy.
func DecodeFixedBytes(buf []byte, off, n int) ([]byte, int, error) {
	if n < 0 {
		return nil, 0, fmt.Errorf("fixed bytes: negative length %d", n)
	}
	if remaining(buf, off) < n {
		return nil, 0, fmt.Errorf("fixed bytes (%d) at offset %d: %w", n, off, ErrUnexpectedEOF)
	}
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out, n, nil
}

// DecodeBytes decodes a compact-length-prefixed byte string.
func DecodeBytes(buf []byte, off int) ([]byte, int, error) {
	length, n, err := DecodeCompactU64(buf, off)
	if err != nil {
		return nil, 0, fmt.Errorf("byte string length: %w", err)
	}
	if length > uint64(remaining(buf, off+n)) {
		return nil, 0, fmt.Errorf("byte string (%d) at offset %d: %w", length, off, ErrUnexpectedEOF)
	}
	data, m, err := DecodeFixedBytes(buf, off+n, int(length))
	if err != nil {
		return nil, 0, err
	}
	return data, n + m, nil
}

// DecodeString decodes a compact-length-prefixed UTF-8 string.
func DecodeString(buf []byte, off int) (string, int, error) {
	data, n, err := DecodeBytes(buf, off)
	if err != nil {
		return "", 0, err
	}
	return string(data), n, nil
}

// DecodeOption decodes Option<T>: a 0x00 tag for None, 0x01 followed by the
// payload for Some. The returned pointer is nil for None.
func DecodeOption[T any](buf []byte, off int, elem Decoder[T]) (*T, int, error) {
	tag, n, err := DecodeU8(buf, off)
	if err != nil {
		return nil, 0, fmt.Errorf("option tag: %w", err)
	}
	switch tag {
	case 0x00:
		return nil, n, nil
	case 0x01:
		v, m, err := elem(buf, off+n)
		if err != nil {
			return nil, 0, err
		}
		return &v, n + m, nil
	default:
		return nil, 0, fmt.Errorf("option at offset %d: invalid tag 0x%02x", off, tag)
	}
}

// DecodeVec decodes Vec<T>: a compact element count followed by that many
// elements.
func DecodeVec[T any](buf []byte, off int, elem Decoder[T]) ([]T, int, error) {
	count, n, err := DecodeCompactU64(buf, off)
	if err != nil {
		return nil, 0, fmt.Errorf("vec length: %w", err)
	}
	// Each element consumes at least one byte, so the count cannot exceed
	// the bytes that remain. Rejecting here avoids huge allocations from a
	// corrupt length prefix.
	if count > uint64(remaining(buf, off+n)) {
		return nil, 0, fmt.Errorf("vec (%d elements) at offset %d: %w", count, off, ErrUnexpectedEOF)
	}
	out := make([]T, 0, count)
	cur := off + n
	for i := uint64(0); i < count; i++ {
		v, m, err := elem(buf, cur)
		if err != nil {
			return nil, 0, fmt.Errorf("vec element %d: %w", i, err)
		}
		out = append(out, v)
		cur += m
	}
	return out, cur - off, nil
}

// DecodeEnum decodes a tagged union: one discriminant byte followed by the
// variant payload. The variant set is an open mapping supplied by the
// caller, since valid discriminants generally come from chain metadata
// rather than a closed compile-time enum. Returns the discriminant alongside
// the decoded payload.
func DecodeEnum[T any](buf []byte, off int, variants map[uint8]Decoder[T]) (uint8, T, int, error) {
	var zero T
	tag, n, err := DecodeU8(buf, off)
	if err != nil {
		return 0, zero, 0, fmt.Errorf("enum discriminant: %w", err)
	}
	dec, ok := variants[tag]
	if !ok {
		return tag, zero, 0, fmt.Errorf("enum at offset %d, discriminant 0x%02x: %w", off, tag, ErrUnknownVariant)
	}
	v, m, err := dec(buf, off+n)
	if err != nil {
		return tag, zero, 0, err
	}
	return tag, v, n + m, nil
}
