package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	// ErrInvalidSignature is returned when a webhook signature does not
	// match the shared secret.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	errMissingSignature = errors.New("missing webhook signature")
)

// VerifyHMACSignature checks an HMAC-SHA256 hex signature over payload.
// Comparison is constant time.
func VerifyHMACSignature(secret string, payload []byte, signature string) error {
	sig := strings.TrimSpace(strings.TrimPrefix(signature, "sha256="))
	if sig == "" {
		return errMissingSignature
	}

	provided, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	if subtle.ConstantTimeCompare(provided, expected) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// SignHMAC produces the hex HMAC-SHA256 signature for payload. Used by
// tests and local tooling to fabricate valid webhook requests.
func SignHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
