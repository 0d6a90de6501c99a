package scale

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactRoundTrip(t *testing.T) {
	// Boundary magnitudes for each width class.
	values := []uint64{
		0, 1, 63,
		64, 16383,
		16384, 1<<30 - 1,
		1 << 30, 1<<32 - 1, 1<<40 + 7, 1<<63 + 1,
	}
	for _, v := range values {
		enc := AppendCompactU64(nil, v)
		dec, n, err := DecodeCompact(enc, 0)
		require.NoError(t, err, "value %d", v)
		require.Equal(t, len(enc), n, "value %d consumed length", v)
		require.True(t, dec.IsUint64(), "value %d", v)
		require.Equal(t, v, dec.Uint64(), "value %d", v)
	}
}

func TestCompactEncodedWidths(t *testing.T) {
	tests := []struct {
		value uint64
		width int
	}{
		{0, 1},
		{63, 1},
		{64, 2},
		{16383, 2},
		{16384, 4},
		{1<<30 - 1, 4},
		{1 << 30, 5},
		{1<<32 - 1, 5},
		{1 << 32, 6},
	}
	for _, tt := range tests {
		enc := AppendCompactU64(nil, tt.value)
		if len(enc) != tt.width {
			t.Errorf("compact(%d) width = %d, want %d", tt.value, len(enc), tt.width)
		}
	}
}

func TestCompactKnownEncodings(t *testing.T) {
	// Canonical SCALE examples.
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x04}},
		{42, []byte{0xa8}},
		{69, []byte{0x15, 0x01}},
		{16384, []byte{0x02, 0x00, 0x01, 0x00}},
		{1 << 32, []byte{0x07, 0x00, 0x00, 0x00, 0x00, 0x01}},
	}
	for _, tt := range tests {
		enc := AppendCompactU64(nil, tt.value)
		require.Equal(t, tt.want, enc, "compact(%d)", tt.value)
	}
}

func TestCompactBigInt(t *testing.T) {
	v, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10) // 2^128-1
	require.True(t, ok)

	enc, err := AppendCompact(nil, v)
	require.NoError(t, err)

	dec, n, err := DecodeCompact(enc, 0)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Zero(t, dec.Cmp(v))
}

func TestCompactNegativeRejected(t *testing.T) {
	_, err := AppendCompact(nil, big.NewInt(-1))
	require.Error(t, err)
}

func TestCompactTruncated(t *testing.T) {
	for _, enc := range [][]byte{
		{},
		{0x01},             // two-byte mode, one byte present
		{0x02, 0x00},       // four-byte mode, two bytes present
		{0x03, 0x01, 0x02}, // big-int mode declaring 4 payload bytes
	} {
		_, _, err := DecodeCompact(enc, 0)
		require.ErrorIs(t, err, ErrUnexpectedEOF, "input %x", enc)
	}
}

func TestCompactU32Overflow(t *testing.T) {
	enc := AppendCompactU64(nil, 1<<33)
	_, _, err := DecodeCompactU32(enc, 0)
	require.Error(t, err)
}
