package security

import (
	"strings"
	"testing"
)

func TestHashPasswordAndVerifySuccess(t *testing.T) {
	password := "plenty-long-passphrase-9"

	encoded, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 2 {
		t.Fatalf("unexpected hash format: %q", encoded)
	}
	if len(parts[0]) != CurrentPBKDF2Config().SaltLength*2 {
		t.Fatalf("unexpected salt length in %q", parts[0])
	}

	ok, err := VerifyPassword(password, encoded)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}
}

func TestVerifyPasswordIncorrectPassword(t *testing.T) {
	encoded, err := HashPassword("plenty-long-passphrase-9")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword("Tr0ub4dor&3", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashPasswordSaltRandomization(t *testing.T) {
	first, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordMalformedStoredHash(t *testing.T) {
	for _, stored := range []string{
		"no-separator",
		"too$many$parts",
		"deadbeef$not-hex!",
		"$",
	} {
		ok, err := VerifyPassword("anything", stored)
		if err != nil {
			t.Fatalf("VerifyPassword(%q) returned error: %v", stored, err)
		}
		if ok {
			t.Fatalf("VerifyPassword(%q) returned true", stored)
		}
	}
}

func TestVerifyPasswordEmptyInputs(t *testing.T) {
	encoded, err := HashPassword("something")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if ok, _ := VerifyPassword("", encoded); ok {
		t.Fatal("empty password must fail verification")
	}
	if ok, _ := VerifyPassword("something", ""); ok {
		t.Fatal("empty stored hash must fail verification")
	}
}

func TestConfigurePBKDF2RejectsWeakParameters(t *testing.T) {
	if err := ConfigurePBKDF2(PBKDF2Config{Iterations: 100, SaltLength: 16, KeyLength: 512}); err == nil {
		t.Fatal("expected error for low iteration count")
	}
	if err := ConfigurePBKDF2(PBKDF2Config{Iterations: 10000, SaltLength: 4, KeyLength: 512}); err == nil {
		t.Fatal("expected error for short salt")
	}
	if err := ConfigurePBKDF2(PBKDF2Config{Iterations: 10000, SaltLength: 16, KeyLength: 16}); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestConfigurePBKDF2OverridesDefaults(t *testing.T) {
	original := CurrentPBKDF2Config()
	t.Cleanup(func() {
		if err := ConfigurePBKDF2(original); err != nil {
			t.Fatalf("failed to restore original config: %v", err)
		}
	})

	newCfg := PBKDF2Config{Iterations: 12000, SaltLength: 24, KeyLength: 64}
	if err := ConfigurePBKDF2(newCfg); err != nil {
		t.Fatalf("ConfigurePBKDF2 returned error: %v", err)
	}

	encoded, err := HashPassword("change-me")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	parts := strings.Split(encoded, "$")
	if len(parts[0]) != newCfg.SaltLength*2 {
		t.Fatalf("salt does not reflect configured length: %q", parts[0])
	}
	if len(parts[1]) != newCfg.KeyLength*2 {
		t.Fatalf("key does not reflect configured length")
	}
}
