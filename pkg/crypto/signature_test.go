package crypto

import (
	"testing"
)

func TestSignVerify(t *testing.T) {
	pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	msg := []byte("signed extrinsic payload")
	sig, err := pk.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != EcdsaSignatureSize {
		t.Fatalf("signature size = %d, want %d", len(sig), EcdsaSignatureSize)
	}

	if !VerifySignature(msg, sig, pk.PublicKey()) {
		t.Error("signature should verify against the signing key")
	}
	if VerifySignature([]byte("different payload"), sig, pk.PublicKey()) {
		t.Error("signature should not verify against a different message")
	}

	other, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if VerifySignature(msg, sig, other.PublicKey()) {
		t.Error("signature should not verify against another key")
	}
}

func TestPrivateKeyFromBytes(t *testing.T) {
	pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	restored, err := PrivateKeyFromBytes(pk.Serialize())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if string(restored.PublicKey()) != string(pk.PublicKey()) {
		t.Error("restored key should have the same public key")
	}

	if _, err := PrivateKeyFromBytes([]byte{0x01}); err == nil {
		t.Error("short key material should be rejected")
	}
}
