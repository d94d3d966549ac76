package secure

import (
	"bytes"
	"errors"
	"testing"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestSealRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey)
	if err != nil {
		t.Fatal(err)
	}
	plain := []byte(`{"name":"Yusuf","phone":"+100"}`)

	a, err := s.Seal(plain)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Seal(plain)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext must differ")
	}
	if bytes.Contains(a, []byte("Yusuf")) {
		t.Error("ciphertext leaks plaintext")
	}

	got, err := s.Open(a)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("Open = %q, want %q", got, plain)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	s, _ := NewSealer(testKey)
	sealed, _ := s.Seal([]byte("secret"))
	sealed[len(sealed)-1] ^= 0xff
	if _, err := s.Open(sealed); err == nil {
		t.Error("tampered ciphertext must not open")
	}
	if _, err := s.Open([]byte("short")); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("short ciphertext error = %v", err)
	}
}

func TestNewSealerKeyLength(t *testing.T) {
	if _, err := NewSealer([]byte("short")); err == nil {
		t.Error("expected key length error")
	}
}
