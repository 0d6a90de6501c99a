package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/Meridian-labs/meridian-wallet/pkg/crypto"
	"github.com/Meridian-labs/meridian-wallet/pkg/types"
)

// BIP-44 derivation path: m/44'/354'/account'/0/index. 354 is the SLIP-44
// coin type registered for Polkadot.
const (
	purposeBIP44      = bip32.FirstHardenedChild + 44
	coinTypeSubstrate = bip32.FirstHardenedChild + 354
	changeExternal    = 0
)

// Keyring derives ECDSA accounts from one BIP-39 seed.
type Keyring struct {
	master *bip32.Key
}

// NewKeyring creates a keyring from a 64-byte seed.
func NewKeyring(seed []byte) (*Keyring, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &Keyring{master: master}, nil
}

// KeyringFromMnemonic derives the seed and creates a keyring in one step.
func KeyringFromMnemonic(mnemonic, passphrase string) (*Keyring, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewKeyring(seed)
}

// Account is one derived keypair. The on-chain identity of an ECDSA
// account is the BLAKE2b-256 hash of its compressed public key.
type Account struct {
	ID types.AccountID

	key *crypto.PrivateKey
}

// Derive returns the account at m/44'/354'/account'/0/index.
func (k *Keyring) Derive(account, index uint32) (*Account, error) {
	node := k.master
	path := []uint32{
		purposeBIP44,
		coinTypeSubstrate,
		bip32.FirstHardenedChild + account,
		changeExternal,
		index,
	}
	for _, step := range path {
		child, err := node.NewChildKey(step)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", step, err)
		}
		node = child
	}

	// bip32 private key material is 33 bytes with a leading zero.
	raw := node.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, err
	}

	id, err := types.AccountIDFromBytes(crypto.Blake2b256(key.PublicKey()))
	if err != nil {
		return nil, err
	}
	return &Account{ID: id, key: key}, nil
}

// Address encodes the account ID as an SS58 address for a network prefix.
func (a *Account) Address(network uint16) (string, error) {
	return types.EncodeSS58(a.ID, network)
}

// Sign produces a 65-byte recoverable signature over the message.
func (a *Account) Sign(message []byte) ([]byte, error) {
	return a.key.Sign(message)
}

// PublicKey returns the compressed 33-byte public key.
func (a *Account) PublicKey() []byte {
	return a.key.PublicKey()
}

// Zero wipes the account's private key material.
func (a *Account) Zero() {
	a.key.Zero()
}
