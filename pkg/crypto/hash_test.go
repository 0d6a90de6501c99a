package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// Prefix hashes every Substrate chain agrees on.
func TestTwox128KnownValues(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"System", "26aa394eea5630e07c48ae0c9558cef7"},
		{"Account", "b99d880ec681799c0cf30e8886371da9"},
		{"Staking", "5f3e4907f716ac89b6347d15ececedca"},
		{"Balances", "c2261276cc9d1f8598ea4b6a74b15c2f"},
	}
	for _, tt := range tests {
		got := hex.EncodeToString(Twox128([]byte(tt.input)))
		if got != tt.want {
			t.Errorf("Twox128(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestTwox64ConcatLayout(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	out := Twox64Concat(data)
	if len(out) != 8+len(data) {
		t.Fatalf("Twox64Concat length = %d, want %d", len(out), 8+len(data))
	}
	if !bytes.Equal(out[8:], data) {
		t.Error("Twox64Concat suffix should be the raw input")
	}
	if !bytes.Equal(out[:8], Twox64(data)) {
		t.Error("Twox64Concat prefix should be Twox64 of the input")
	}
}

func TestTwox256Prefix(t *testing.T) {
	data := []byte("System")
	out := Twox256(data)
	if len(out) != 32 {
		t.Fatalf("Twox256 length = %d, want 32", len(out))
	}
	// The first 16 bytes of twox256 are exactly twox128 (same seeds).
	if !bytes.Equal(out[:16], Twox128(data)) {
		t.Error("Twox256 prefix should match Twox128")
	}
}

func TestBlake2b128ConcatLayout(t *testing.T) {
	data := []byte{0xde, 0xad}
	out := Blake2b128Concat(data)
	if len(out) != 16+len(data) {
		t.Fatalf("Blake2b128Concat length = %d, want %d", len(out), 16+len(data))
	}
	if !bytes.Equal(out[16:], data) {
		t.Error("Blake2b128Concat suffix should be the raw input")
	}
}

func TestHashSizes(t *testing.T) {
	data := []byte("abc")
	if got := len(Blake2b128(data)); got != 16 {
		t.Errorf("Blake2b128 size = %d, want 16", got)
	}
	if got := len(Blake2b256(data)); got != 32 {
		t.Errorf("Blake2b256 size = %d, want 32", got)
	}
	if got := len(Blake2b512(data)); got != 64 {
		t.Errorf("Blake2b512 size = %d, want 64", got)
	}
}

func TestHashesDeterministic(t *testing.T) {
	data := []byte("determinism")
	if !bytes.Equal(Twox128(data), Twox128(data)) {
		t.Error("Twox128 should be deterministic")
	}
	if !bytes.Equal(Blake2b128(data), Blake2b128(data)) {
		t.Error("Blake2b128 should be deterministic")
	}
}
