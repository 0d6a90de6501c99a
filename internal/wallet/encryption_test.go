package wallet

import (
	"bytes"
	"testing"
)

// fastParams keeps Argon2 cost minimal for tests.
func fastParams() EncryptionParams {
	return EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("seed material")
	password := []byte("correct horse battery staple")

	sealed, err := Encrypt(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	opened, err := Decrypt(sealed, password)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("decrypted = %q, want %q", opened, plaintext)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), []byte("right"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if _, err := Decrypt(sealed, []byte("wrong")); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := Decrypt(sealed, []byte("pass")); err == nil {
		t.Error("tampered ciphertext accepted")
	}
}

func TestDecryptTooShort(t *testing.T) {
	if _, err := Decrypt(make([]byte, 10), []byte("pass")); err == nil {
		t.Error("truncated input accepted")
	}
}

func TestEncryptUniqueSaltAndNonce(t *testing.T) {
	a, err := Encrypt([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	b, err := Encrypt([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("identical plaintexts sealed to identical outputs")
	}
}
