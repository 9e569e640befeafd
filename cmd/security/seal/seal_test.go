package seal

import (
	"strings"
	"testing"

	"leadflow/cmd/security/password"
)

func testKDF() password.KDF {
	k := password.DefaultConfig().KDF
	k.MemoryKiB = 8 * 1024
	k.Iterations = 1
	k.Parallelism = 1
	return k
}

func TestSealOpen_RoundTrip(t *testing.T) {
	s, err := New("correct horse", testKDF())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sealed, err := s.Seal("access_token", "tok-123")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("expected sealed prefix, got %q", sealed)
	}
	if strings.Contains(sealed, "tok-123") {
		t.Fatalf("plaintext leaked into sealed value")
	}

	got, err := s.Open("access_token", sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != "tok-123" {
		t.Fatalf("Open=%q want tok-123", got)
	}
}

func TestOpen_OtherSealerSamePassphrase(t *testing.T) {
	a, err := New("correct horse", testKDF())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New("correct horse", testKDF())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sealed, err := a.Seal("refresh_token", "r-1")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := b.Open("refresh_token", sealed)
	if err != nil {
		t.Fatalf("Open across sealers: %v", err)
	}
	if got != "r-1" {
		t.Fatalf("Open=%q want r-1", got)
	}
}

func TestOpen_Failures(t *testing.T) {
	s, err := New("correct horse", testKDF())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	wrong, err := New("battery staple", testKDF())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sealed, err := s.Seal("access_token", "tok")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := s.Open("refresh_token", sealed); err != ErrDecrypt {
		t.Fatalf("label swap: expected ErrDecrypt, got %v", err)
	}
	if _, err := wrong.Open("access_token", sealed); err != ErrDecrypt {
		t.Fatalf("wrong passphrase: expected ErrDecrypt, got %v", err)
	}
	if _, err := s.Open("access_token", "plain-token"); err != ErrMalformed {
		t.Fatalf("unsealed input: expected ErrMalformed, got %v", err)
	}
	if _, err := s.Open("access_token", "v1.AAAA"); err != ErrMalformed {
		t.Fatalf("short blob: expected ErrMalformed, got %v", err)
	}
}

func TestNew_EmptyPassphrase(t *testing.T) {
	if _, err := New("   ", testKDF()); err != ErrEmptyPassphrase {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
}
