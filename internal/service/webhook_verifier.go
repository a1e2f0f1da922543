package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Webhook verification modes.
const (
	WebhookModeHash = "hash" // verif-hash header equals the shared secret
	WebhookModeHMAC = "hmac" // header is hex HMAC-SHA256(secret, raw body)
)

// WebhookVerifier implements ports.WebhookVerifier for provider callbacks.
type WebhookVerifier struct {
	secret []byte
	mode   string
}

// NewWebhookVerifier creates a verifier. Unknown modes fall back to hash.
func NewWebhookVerifier(secret, mode string) *WebhookVerifier {
	if mode != WebhookModeHMAC {
		mode = WebhookModeHash
	}
	return &WebhookVerifier{secret: []byte(secret), mode: mode}
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time. An empty secret or signature never verifies.
func (v *WebhookVerifier) Verify(rawBody []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	if v.mode == WebhookModeHMAC {
		return hmac.Equal([]byte(v.Sign(rawBody)), []byte(strings.ToLower(signature)))
	}
	return hmac.Equal(v.secret, []byte(signature))
}
