// Package webhook validates that inbound events genuinely originate from
// the call/chat provider. It is the single entry gate for untrusted input:
// nothing downstream runs until Verify passes.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

// Verifier checks webhook request authenticity with a shared-secret
// HMAC-SHA256 signature plus the provider's API key.
type Verifier struct {
	secret string
	apiKey string
}

// NewVerifier creates a webhook verifier. secret signs request bodies;
// apiKey is the provider key expected in the x-api-key header.
func NewVerifier(secret, apiKey string) *Verifier {
	return &Verifier{
		secret: secret,
		apiKey: apiKey,
	}
}

// Verify validates a raw request body against its claimed signature and
// API key. Missing values yield a ValidationError (HTTP 400); mismatches
// yield an AuthError (HTTP 401).
func (v *Verifier) Verify(body []byte, signature, apiKey string) error {
	if signature == "" || apiKey == "" {
		return domain.NewValidationError("missing signature or API key")
	}

	if v.apiKey != "" && apiKey != v.apiKey {
		return domain.NewAuthError("unknown API key")
	}

	if !v.validSignature(body, signature) {
		return domain.NewAuthError("invalid signature")
	}

	return nil
}

// validSignature computes the HMAC-SHA256 of the body with the shared
// secret and compares it to the claimed signature in constant time.
func (v *Verifier) validSignature(body []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sign produces the hex HMAC-SHA256 signature for a body. Exposed for
// tests and for outbound callbacks that need to sign their own payloads.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
