package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountIDFromHex(t *testing.T) {
	hex := "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	a, err := AccountIDFromHex(hex)
	require.NoError(t, err)
	require.Equal(t, hex, a.String())
	require.False(t, a.IsZero())

	// Unprefixed form parses too.
	b, err := AccountIDFromHex(hex[2:])
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	_, err = AccountIDFromHex("0xdead")
	require.Error(t, err)
	_, err = AccountIDFromHex("not hex")
	require.Error(t, err)
}

func TestDecodeAccountID(t *testing.T) {
	var src AccountID
	for i := range src {
		src[i] = byte(i)
	}
	buf := AppendAccountID(nil, src)
	buf = append(buf, 0xff) // trailing data

	got, n, err := DecodeAccountID(buf, 0)
	require.NoError(t, err)
	require.Equal(t, AccountIDSize, n)
	require.True(t, got.Equal(src))

	_, _, err = DecodeAccountID(buf[:10], 0)
	require.Error(t, err)
}

func TestBytesReturnsCopy(t *testing.T) {
	a := AccountID{0x01}
	b := a.Bytes()
	b[0] = 0xff
	require.Equal(t, byte(0x01), a[0])
}
