package shein

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestSignFormat(t *testing.T) {
	sig := Sign("open-key-1", "secret", "/open-api/product/query", "1700000000")

	if len(sig) != randomKeyLen+44 { // 44 = base64 of a 32-byte MAC
		t.Fatalf("signature length = %d, want %d", len(sig), randomKeyLen+44)
	}
	for _, ch := range sig[:randomKeyLen] {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("random key contains %q, want alphanumeric", ch)
		}
	}
	if _, err := base64.StdEncoding.DecodeString(sig[randomKeyLen:]); err != nil {
		t.Fatalf("signature tail is not valid base64: %v", err)
	}
}

// Two signatures over the same inputs differ (random salt) but both must
// validate against an HMAC recomputed from the embedded salt.
func TestSignSaltedButVerifiable(t *testing.T) {
	const (
		identity  = "openKeyAbc"
		secret    = "topsecret"
		path      = "/open-api/order/query"
		timestamp = "1700000000"
	)

	a := Sign(identity, secret, path, timestamp)
	b := Sign(identity, secret, path, timestamp)
	if a == b {
		t.Fatal("two signatures with random salts should differ")
	}

	for _, sig := range []string{a, b} {
		// independent reference check, not VerifySignature
		key := sig[:randomKeyLen]
		mac := hmac.New(sha256.New, []byte(secret+key))
		mac.Write([]byte(identity + "&" + timestamp + "&" + path))
		want := key + base64.StdEncoding.EncodeToString(mac.Sum(nil))
		if sig != want {
			t.Errorf("signature %q does not match reference construction %q", sig, want)
		}

		if !VerifySignature(sig, identity, secret, path, timestamp) {
			t.Errorf("VerifySignature rejected a valid signature")
		}
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	sig := Sign("id", "secret", "/p", "123")

	if VerifySignature(sig, "id", "wrong", "/p", "123") {
		t.Error("accepted signature with wrong secret")
	}
	if VerifySignature(sig, "id", "secret", "/other", "123") {
		t.Error("accepted signature for a different path")
	}
	if VerifySignature("short", "id", "secret", "/p", "123") {
		t.Error("accepted malformed signature")
	}
}
