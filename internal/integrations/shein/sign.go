package shein

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// The platform's signature scheme, byte-for-byte:
//
//	message = openKeyId & timestamp & path
//	key     = secretKey + randomKey      (8 alphanumeric chars)
//	sig     = randomKey + base64(HMAC-SHA256(message, key))
//
// Separators, concatenation order and standard padded base64 are all fixed by
// the remote side; the verifier recovers randomKey from the first 8 bytes.
const randomKeyLen = 8

const randomKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomKey samples uniform bytes reduced mod len(alphabet). The reduction
// has a slight bias over 62 symbols; the platform accepts any alphanumeric
// salt, so it is tolerated.
func randomKey(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = randomKeyAlphabet[int(b)%len(randomKeyAlphabet)]
	}
	return string(out)
}

// Sign computes the request signature for path at timestamp.
func Sign(identity, secret, path, timestamp string) string {
	return signWithKey(identity, secret, path, timestamp, randomKey(randomKeyLen))
}

func signWithKey(identity, secret, path, timestamp, key string) string {
	message := identity + "&" + timestamp + "&" + path
	mac := hmac.New(sha256.New, []byte(secret+key))
	mac.Write([]byte(message))
	return key + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes a signature using the salt embedded in its first
// 8 characters. Used by tests; the platform does the same on its side.
func VerifySignature(signature, identity, secret, path, timestamp string) bool {
	if len(signature) <= randomKeyLen {
		return false
	}
	key := signature[:randomKeyLen]
	expected := signWithKey(identity, secret, path, timestamp, key)
	return hmac.Equal([]byte(signature), []byte(expected))
}
