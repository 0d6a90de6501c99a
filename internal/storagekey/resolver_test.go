package storagekey

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meridian-labs/meridian-wallet/internal/metadata"
	"github.com/Meridian-labs/meridian-wallet/pkg/crypto"
	"github.com/Meridian-labs/meridian-wallet/pkg/types"
)

func accountEntry() *metadata.StorageEntry {
	return &metadata.StorageEntry{
		Module:   "System",
		Prefix:   "System",
		Name:     "Account",
		Hashers:  []metadata.Hasher{metadata.HasherBlake2b128Concat},
		KeyTypes: []string{"AccountId"},
		Value:    "AccountInfo",
	}
}

func TestResolveSystemAccount(t *testing.T) {
	account, err := types.AccountIDFromHex(
		"0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	require.NoError(t, err)

	key, err := Resolve(accountEntry(), account.Bytes())
	require.NoError(t, err)

	// twox128("System") ++ twox128("Account") is the module prefix every
	// Substrate chain shares.
	wantPrefix, _ := hex.DecodeString(
		"26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9")
	require.Equal(t, wantPrefix, key[:32])

	// blake2_128_concat: 16-byte hash then the raw encoded key.
	require.Len(t, key, 32+16+types.AccountIDSize)
	require.Equal(t, account.Bytes(), key[32+16:])
}

func TestResolveDeterministic(t *testing.T) {
	account, err := types.AccountIDFromHex(
		"0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")
	require.NoError(t, err)

	first, err := Resolve(accountEntry(), account.Bytes())
	require.NoError(t, err)
	second, err := Resolve(accountEntry(), account.Bytes())
	require.NoError(t, err)
	require.True(t, bytes.Equal(first, second))
}

func TestResolveArityMismatch(t *testing.T) {
	entry := accountEntry()

	_, err := Resolve(entry)
	require.Error(t, err)

	_, err = Resolve(entry, []byte{0x01}, []byte{0x02})
	require.Error(t, err)
}

func TestResolvePlainEntry(t *testing.T) {
	entry := &metadata.StorageEntry{
		Prefix: "Staking",
		Name:   "ActiveEra",
		Value:  "ActiveEraInfo",
	}
	key, err := Resolve(entry)
	require.NoError(t, err)
	require.Len(t, key, 32)
	require.Equal(t, crypto.Twox128([]byte("Staking")), key[:16])
	require.Equal(t, crypto.Twox128([]byte("ActiveEra")), key[16:])
}

func TestResolveDoubleMap(t *testing.T) {
	entry := &metadata.StorageEntry{
		Prefix:   "Staking",
		Name:     "ErasStakersClipped",
		Hashers:  []metadata.Hasher{metadata.HasherTwox64Concat, metadata.HasherTwox64Concat},
		KeyTypes: []string{"EraIndex", "AccountId"},
		Value:    "Exposure",
	}

	era := []byte{0x2a, 0x00, 0x00, 0x00} // u32 42
	var validator types.AccountID
	validator[0] = 0x01

	key, err := Resolve(entry, era, validator.Bytes())
	require.NoError(t, err)

	cur := 32
	require.Equal(t, crypto.Twox64Concat(era), key[cur:cur+8+len(era)])
	cur += 8 + len(era)
	require.Equal(t, crypto.Twox64Concat(validator.Bytes()), key[cur:])
}

func TestResolveIdentityHasher(t *testing.T) {
	entry := &metadata.StorageEntry{
		Prefix:   "Session",
		Name:     "KeyOwner",
		Hashers:  []metadata.Hasher{metadata.HasherIdentity},
		KeyTypes: []string{"Bytes"},
		Value:    "AccountId",
	}
	raw := []byte{0xba, 0xbe}
	key, err := Resolve(entry, raw)
	require.NoError(t, err)
	require.Equal(t, raw, key[32:])
}
