package guardian

import (
	"encoding/base32"
	"strings"
	"testing"
	"time"
)

// Vectors from RFC 6238 appendix B (SHA1, 8 digits, 30s period).
func TestTOTPReferenceVectors(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 8, Period: 30, Algorithm: "SHA1"})
	secret := []byte("12345678901234567890")

	vectors := []struct {
		unix int64
		code string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
		{20000000000, "65353130"},
	}

	for _, v := range vectors {
		code, err := m.CodeAt(secret, time.Unix(v.unix, 0).UTC())
		if err != nil {
			t.Fatalf("CodeAt(%d) failed: %v", v.unix, err)
		}
		if code != v.code {
			t.Fatalf("CodeAt(%d) = %q, want %q", v.unix, code, v.code)
		}
	}
}

func TestTOTPGenerateSecret(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Issuer: "guardian", Digits: 6, Period: 30})

	raw, encoded, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if len(raw) != totpSecretBytes {
		t.Fatalf("secret length = %d, want %d", len(raw), totpSecretBytes)
	}
	if strings.Contains(encoded, "=") {
		t.Fatal("encoded secret must not carry padding")
	}

	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(encoded)
	if err != nil {
		t.Fatalf("encoded secret does not decode: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Fatal("encoded secret should decode to the raw bytes")
	}
}

func TestTOTPVerifySkewWindow(t *testing.T) {
	secret := []byte("12345678901234567890")
	now := time.Unix(1111111111, 0).UTC()

	strict := newTOTPManager(TOTPConfig{Digits: 6, Period: 30, Skew: 0})
	lenient := newTOTPManager(TOTPConfig{Digits: 6, Period: 30, Skew: 1})

	previous, err := strict.CodeAt(secret, now.Add(-30*time.Second))
	if err != nil {
		t.Fatalf("CodeAt failed: %v", err)
	}

	if ok, _ := strict.VerifyCode(secret, previous, now); ok {
		t.Fatal("skew 0 should reject the previous step's code")
	}
	ok, counter := lenient.VerifyCode(secret, previous, now)
	if !ok {
		t.Fatal("skew 1 should accept the previous step's code")
	}
	if want := now.Add(-30*time.Second).Unix() / 30; counter != want {
		t.Fatalf("matched counter = %d, want %d", counter, want)
	}

	current, _ := strict.CodeAt(secret, now)
	if ok, _ := strict.VerifyCode(secret, current, now); !ok {
		t.Fatal("current code should always verify")
	}
}

func TestTOTPVerifyRejectsMalformedInput(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 6, Period: 30, Skew: 1})
	secret := []byte("12345678901234567890")
	now := time.Unix(1111111111, 0).UTC()

	for _, code := range []string{"", "12345", "1234567", "12a456", "......"} {
		if ok, _ := m.VerifyCode(secret, code, now); ok {
			t.Fatalf("VerifyCode(%q) accepted malformed input", code)
		}
	}
	if ok, _ := m.VerifyCode(nil, "123456", now); ok {
		t.Fatal("empty secret should never verify")
	}
}

func TestTOTPVerifyTrimsWhitespace(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 6, Period: 30})
	secret := []byte("12345678901234567890")
	now := time.Unix(1234567890, 0).UTC()

	code, _ := m.CodeAt(secret, now)
	if ok, _ := m.VerifyCode(secret, " "+code+" ", now); !ok {
		t.Fatal("surrounding whitespace should be ignored")
	}
}

func TestTOTPProvisionURI(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "guardian",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
	})

	uri := m.ProvisionURI("JBSWY3DPEHPK3PXP", "alice@example.com")
	if !strings.HasPrefix(uri, "otpauth://totp/guardian:alice@example.com?") {
		t.Fatalf("uri = %q, want otpauth://totp/<issuer>:<account> prefix", uri)
	}
	for _, fragment := range []string{
		"secret=JBSWY3DPEHPK3PXP",
		"issuer=guardian",
		"digits=6",
		"period=30",
		"algorithm=SHA1",
	} {
		if !strings.Contains(uri, fragment) {
			t.Fatalf("uri %q missing %q", uri, fragment)
		}
	}
}

func TestBackupCodes(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Digits:          6,
		Period:          30,
		BackupCodeCount: 10,
		BackupCodeBytes: 4,
	})

	codes, err := m.GenerateBackupCodes()
	if err != nil {
		t.Fatalf("GenerateBackupCodes failed: %v", err)
	}
	if len(codes) != 10 {
		t.Fatalf("len(codes) = %d, want 10", len(codes))
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		if len(code) != 8 {
			t.Fatalf("code %q length = %d, want 8 hex chars", code, len(code))
		}
		seen[code] = true
	}
	if len(seen) != len(codes) {
		t.Fatal("backup codes should be distinct")
	}

	if got := MatchBackupCode(codes[3], codes); got != 3 {
		t.Fatalf("MatchBackupCode = %d, want 3", got)
	}
	if got := MatchBackupCode("ffffffff", codes); got != -1 && codes[got] != "ffffffff" {
		t.Fatal("unknown code should not match")
	}
}

func TestEngineTOTPSurface(t *testing.T) {
	engine, clock := newTestEngine(t, nil)

	secret, encoded, err := engine.GenerateTOTPSecret()
	if err != nil {
		t.Fatalf("GenerateTOTPSecret failed: %v", err)
	}
	if encoded == "" {
		t.Fatal("expected an encoded secret")
	}

	code, err := engine.GenerateTOTP(secret, clock.Now())
	if err != nil {
		t.Fatalf("GenerateTOTP failed: %v", err)
	}
	if !engine.VerifyTOTP(secret, code) {
		t.Fatal("generated code should verify")
	}
	if engine.VerifyTOTP(secret, "000000") && code != "000000" {
		t.Fatal("arbitrary code should not verify")
	}

	snapshot := engine.MetricsSnapshot()
	if snapshot.Counters[MetricTOTPSuccess] == 0 {
		t.Fatal("totp success counter should have been incremented")
	}
}
