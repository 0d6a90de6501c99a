package scale

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// AppendU8 appends a single byte.
func AppendU8(dst []byte, v uint8) []byte {
	return append(dst, v)
}

// AppendU16 appends a little-endian u16.
func AppendU16(dst []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, v)
}

// AppendU32 appends a little-endian u32.
func AppendU32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendU64 appends a little-endian u64.
func AppendU64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// AppendU128 appends a little-endian u128. v must be non-negative and fit
// in 128 bits.
func AppendU128(dst []byte, v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("u128: negative value %s", v)
	}
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("u128: value %s overflows 128 bits", v)
	}
	be := v.Bytes()
	var le [16]byte
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	return append(dst, le[:]...), nil
}

// AppendBool appends a boolean as 0x00 or 0x01.
func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 0x01)
	}
	return append(dst, 0x00)
}

// AppendBytes appends a compact-length-prefixed byte string.
func AppendBytes(dst, data []byte) []byte {
	dst = AppendCompactU64(dst, uint64(len(data)))
	return append(dst, data...)
}

// AppendString appends a compact-length-prefixed UTF-8 string.
func AppendString(dst []byte, s string) []byte {
	return AppendBytes(dst, []byte(s))
}

// AppendOption appends Option<T>: 0x00 when payload is nil, otherwise 0x01
// followed by the already-encoded payload bytes.
func AppendOption(dst, payload []byte) []byte {
	if payload == nil {
		return append(dst, 0x00)
	}
	dst = append(dst, 0x01)
	return append(dst, payload...)
}

// AppendEnum appends a tagged union: discriminant byte then the
// already-encoded variant payload.
func AppendEnum(dst []byte, tag uint8, payload []byte) []byte {
	dst = append(dst, tag)
	return append(dst, payload...)
}
