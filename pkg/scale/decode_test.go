package scale

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedWidthIntegers(t *testing.T) {
	buf := AppendU8(nil, 0xab)
	buf = AppendU16(buf, 0x1234)
	buf = AppendU32(buf, 0xdeadbeef)
	buf = AppendU64(buf, 0x0102030405060708)

	v8, n, err := DecodeU8(buf, 0)
	require.NoError(t, err)
	require.Equal(t, uint8(0xab), v8)
	cur := n

	v16, n, err := DecodeU16(buf, cur)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), v16)
	cur += n

	v32, n, err := DecodeU32(buf, cur)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v32)
	cur += n

	v64, n, err := DecodeU64(buf, cur)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), v64)
	require.Equal(t, len(buf), cur+n)
}

func TestU128RoundTrip(t *testing.T) {
	v, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	enc, err := AppendU128(nil, v)
	require.NoError(t, err)
	require.Len(t, enc, 16)

	dec, n, err := DecodeU128(enc, 0)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	require.Zero(t, dec.Cmp(v))
}

func TestBool(t *testing.T) {
	v, n, err := DecodeBool([]byte{0x01}, 0)
	require.NoError(t, err)
	require.True(t, v)
	require.Equal(t, 1, n)

	v, _, err = DecodeBool([]byte{0x00}, 0)
	require.NoError(t, err)
	require.False(t, v)

	_, _, err = DecodeBool([]byte{0x02}, 0)
	require.Error(t, err)
}

func TestBytesAndString(t *testing.T) {
	enc := AppendString(nil, "Staking")
	s, n, err := DecodeString(enc, 0)
	require.NoError(t, err)
	require.Equal(t, "Staking", s)
	require.Equal(t, len(enc), n)

	// Declared length longer than the buffer must not return partial data.
	enc = AppendCompactU64(nil, 10)
	enc = append(enc, []byte("short")...)
	_, _, err = DecodeBytes(enc, 0)
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestOption(t *testing.T) {
	some := AppendOption(nil, AppendU32(nil, 7))
	v, n, err := DecodeOption(some, 0, DecodeU32)
	require.NoError(t, err)
	require.Equal(t, len(some), n)
	require.NotNil(t, v)
	require.Equal(t, uint32(7), *v)

	none := AppendOption(nil, nil)
	v, n, err = DecodeOption(none, 0, DecodeU32)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Nil(t, v)

	_, _, err = DecodeOption([]byte{0x05}, 0, DecodeU32)
	require.Error(t, err)
}

func TestVec(t *testing.T) {
	enc := AppendCompactU64(nil, 3)
	for _, v := range []uint32{10, 20, 30} {
		enc = AppendU32(enc, v)
	}

	got, n, err := DecodeVec(enc, 0, DecodeU32)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, []uint32{10, 20, 30}, got)
}

func TestVecCorruptLength(t *testing.T) {
	// Length prefix claims far more elements than bytes remain.
	enc := AppendCompactU64(nil, 1<<20)
	enc = append(enc, 0x01)
	_, _, err := DecodeVec(enc, 0, DecodeU32)
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestEnum(t *testing.T) {
	variants := map[uint8]Decoder[uint64]{
		0: func(buf []byte, off int) (uint64, int, error) { return 0, 0, nil },
		1: func(buf []byte, off int) (uint64, int, error) {
			v, n, err := DecodeU32(buf, off)
			return uint64(v), n, err
		},
	}

	tag, v, n, err := DecodeEnum(AppendEnum(nil, 1, AppendU32(nil, 99)), 0, variants)
	require.NoError(t, err)
	require.Equal(t, uint8(1), tag)
	require.Equal(t, uint64(99), v)
	require.Equal(t, 5, n)

	tag, _, _, err = DecodeEnum([]byte{0x07}, 0, variants)
	require.ErrorIs(t, err, ErrUnknownVariant)
	require.Equal(t, uint8(7), tag)
}

func TestDecodersConsumeExactly(t *testing.T) {
	// Trailing garbage must not disturb a decoder or be consumed by it.
	enc := AppendU32(nil, 42)
	enc = append(enc, 0xff, 0xff)
	v, n, err := DecodeU32(enc, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(42), v)
	require.Equal(t, 4, n)
}
