package secrets

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testCipher(t *testing.T) (*Cipher, []byte) {
	t.Helper()

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	c, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	return c, key
}

func TestCipherRoundTrip(t *testing.T) {
	c, _ := testCipher(t)

	for _, plaintext := range []string{
		"",
		"short",
		"payload with spaces and symbols !@#$%",
		"多字节文本 with mixed contents",
		strings.Repeat("x", 4096),
	} {
		encrypted, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", plaintext, err)
		}
		decrypted, err := c.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if decrypted != plaintext {
			t.Fatalf("round trip = %q, want %q", decrypted, plaintext)
		}
	}
}

func TestCipherOutputsDiffer(t *testing.T) {
	c, _ := testCipher(t)

	first, _ := c.Encrypt("same input")
	second, _ := c.Encrypt("same input")
	if first == second {
		t.Fatal("ciphertexts must differ across nonces")
	}
}

func TestCipherTamperDetection(t *testing.T) {
	c, _ := testCipher(t)

	encrypted, err := c.Encrypt("sensitive")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	raw, _ := base64.StdEncoding.DecodeString(encrypted)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := c.Decrypt(tampered); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("error = %v, want ErrCiphertextInvalid", err)
	}
}

func TestCipherRejectsGarbage(t *testing.T) {
	c, _ := testCipher(t)

	for _, input := range []string{"", "not base64 !!!", base64.StdEncoding.EncodeToString([]byte("short"))} {
		if _, err := c.Decrypt(input); !errors.Is(err, ErrCiphertextInvalid) {
			t.Fatalf("Decrypt(%q) error = %v, want ErrCiphertextInvalid", input, err)
		}
	}
}

func TestCipherWrongKey(t *testing.T) {
	first, _ := testCipher(t)
	second, _ := testCipher(t)

	encrypted, _ := first.Encrypt("secret")
	if _, err := second.Decrypt(encrypted); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("error = %v, want ErrCiphertextInvalid under a different key", err)
	}
}

func TestNewCipherKeyLength(t *testing.T) {
	if _, err := NewCipher(make([]byte, 16)); err == nil {
		t.Fatal("16-byte key should be rejected")
	}
	if _, err := NewCipher(nil); err == nil {
		t.Fatal("nil key should be rejected")
	}
}

func TestKeyBase64RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	decoded, err := KeyFromBase64(KeyToBase64(key))
	if err != nil {
		t.Fatalf("KeyFromBase64 failed: %v", err)
	}
	if !Equal(key, decoded) {
		t.Fatal("key should survive the base64 round trip")
	}

	if _, err := KeyFromBase64("!!!"); err == nil {
		t.Fatal("invalid base64 should be rejected")
	}
	if _, err := KeyFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 8))); err == nil {
		t.Fatal("short key should be rejected")
	}
}
