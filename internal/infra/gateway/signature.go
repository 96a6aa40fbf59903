package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeaders lists the header names the aggregator has been observed to
// use for the webhook signature, probed in order.
var SignatureHeaders = []string{
	"X-Signature",
	"X-Webhook-Signature",
	"X-Hub-Signature-256",
	"Signature",
}

// VerifySignature checks an HMAC-SHA256 hex digest of the raw body against
// the header value, accepting either a bare digest or the sha256=<hex> form.
// Comparison is constant-time.
func VerifySignature(secret string, body []byte, header string) bool {
	header = strings.TrimSpace(header)
	header = strings.TrimPrefix(header, "sha256=")
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	got, err := hex.DecodeString(strings.ToLower(header))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(expected)
	return hmac.Equal(got, want)
}
