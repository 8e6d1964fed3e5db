package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// errVerification is deliberately uninformative.
var errVerification = errors.New("webhook verification failed")

// verifySignature checks signature against HMAC-SHA256(secret, body) in
// constant time.
func verifySignature(body []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return errVerification
	}

	got, err := decodeSignature(signature)
	if err != nil {
		return errVerification
	}
	if subtle.ConstantTimeCompare(sign(body, secret), got) != 1 {
		return errVerification
	}
	return nil
}

// decodeSignature accepts "sha256=<hex>" or bare hex.
func decodeSignature(signature string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
}

func sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Signature returns the "sha256=<hex>" header value for body. Callers and
// tests use it to sign outgoing requests.
func Signature(body []byte, secret string) string {
	return "sha256=" + hex.EncodeToString(sign(body, secret))
}
