package scale

import (
	"fmt"
	"math"
	"math/big"
)

// Compact integer width classes, selected by the lowest two bits of the
// first byte.
const (
	compactSingleByte = 0b00 // 0 .. 63
	compactTwoByte    = 0b01 // 64 .. 2^14-1
	compactFourByte   = 0b10 // 2^14 .. 2^30-1
	compactBigInt     = 0b11 // 2^30 .. 2^536-1
)

var (
	compactMax1 = big.NewInt(63)
	compactMax2 = big.NewInt(1<<14 - 1)
	compactMax4 = big.NewInt(1<<30 - 1)
)

// AppendCompact appends the SCALE compact encoding of v, which must be
// non-negative.
func AppendCompact(dst []byte, v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("compact integer: negative value %s", v)
	}
	switch {
	case v.Cmp(compactMax1) <= 0:
		return append(dst, byte(v.Uint64()<<2)|compactSingleByte), nil
	case v.Cmp(compactMax2) <= 0:
		u := v.Uint64()<<2 | compactTwoByte
		return append(dst, byte(u), byte(u>>8)), nil
	case v.Cmp(compactMax4) <= 0:
		u := v.Uint64()<<2 | compactFourByte
		return append(dst, byte(u), byte(u>>8), byte(u>>16), byte(u>>24)), nil
	default:
		// Big-int mode: the upper six bits of the first byte hold the
		// payload byte count minus four, then the value follows in
		// little-endian with no trailing zeros.
		be := v.Bytes()
		n := len(be)
		if n > 67 {
			return nil, fmt.Errorf("compact integer: value too large (%d bytes)", n)
		}
		dst = append(dst, byte((n-4)<<2)|compactBigInt)
		for i := n - 1; i >= 0; i-- {
			dst = append(dst, be[i])
		}
		return dst, nil
	}
}

// AppendCompactU64 appends the compact encoding of a uint64.
func AppendCompactU64(dst []byte, v uint64) []byte {
	out, _ := AppendCompact(dst, new(big.Int).SetUint64(v))
	return out
}

// DecodeCompact decodes a SCALE compact integer of arbitrary magnitude.
func DecodeCompact(buf []byte, off int) (*big.Int, int, error) {
	first, _, err := DecodeU8(buf, off)
	if err != nil {
		return nil, 0, fmt.Errorf("compact integer: %w", err)
	}
	switch first & 0b11 {
	case compactSingleByte:
		return big.NewInt(int64(first >> 2)), 1, nil
	case compactTwoByte:
		if remaining(buf, off) < 2 {
			return nil, 0, fmt.Errorf("compact integer at offset %d: %w", off, ErrUnexpectedEOF)
		}
		v := (uint64(buf[off]) | uint64(buf[off+1])<<8) >> 2
		return new(big.Int).SetUint64(v), 2, nil
	case compactFourByte:
		if remaining(buf, off) < 4 {
			return nil, 0, fmt.Errorf("compact integer at offset %d: %w", off, ErrUnexpectedEOF)
		}
		v := (uint64(buf[off]) | uint64(buf[off+1])<<8 |
			uint64(buf[off+2])<<16 | uint64(buf[off+3])<<24) >> 2
		return new(big.Int).SetUint64(v), 4, nil
	default:
		n := int(first>>2) + 4
		if remaining(buf, off+1) < n {
			return nil, 0, fmt.Errorf("compact integer (%d payload bytes) at offset %d: %w", n, off, ErrUnexpectedEOF)
		}
		be := make([]byte, n)
		for i := 0; i < n; i++ {
			be[n-1-i] = buf[off+1+i]
		}
		return new(big.Int).SetBytes(be), 1 + n, nil
	}
}

// DecodeCompactU64 decodes a compact integer that must fit in a uint64.
func DecodeCompactU64(buf []byte, off int) (uint64, int, error) {
	v, n, err := DecodeCompact(buf, off)
	if err != nil {
		return 0, 0, err
	}
	if !v.IsUint64() {
		return 0, 0, fmt.Errorf("compact integer at offset %d: %s overflows u64", off, v)
	}
	return v.Uint64(), n, nil
}

// DecodeCompactU32 decodes a compact integer that must fit in a uint32.
func DecodeCompactU32(buf []byte, off int) (uint32, int, error) {
	v, n, err := DecodeCompactU64(buf, off)
	if err != nil {
		return 0, 0, err
	}
	if v > math.MaxUint32 {
		return 0, 0, fmt.Errorf("compact integer at offset %d: %d overflows u32", off, v)
	}
	return uint32(v), n, nil
}
