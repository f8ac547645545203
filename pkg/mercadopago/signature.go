package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrSignatureMissing = errors.New("missing x-signature header")
	ErrSignatureInvalid = errors.New("webhook signature mismatch")
)

// VerifySignature checks the x-signature header of a webhook delivery.
// The signed manifest is "id:<data.id>;request-id:<x-request-id>;ts:<ts>;",
// omitting any part whose value is empty.
func VerifySignature(secret, header, requestID, dataID string) error {
	if strings.TrimSpace(header) == "" {
		return ErrSignatureMissing
	}
	ts, v1 := parseSignatureHeader(header)
	if ts == "" || v1 == "" {
		return ErrSignatureInvalid
	}

	expected := Sign(secret, Manifest(dataID, requestID, ts))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return ErrSignatureInvalid
	}
	return nil
}

// Manifest builds the string the provider signs for a notification.
func Manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	if ts != "" {
		b.WriteString("ts:" + ts + ";")
	}
	return b.String()
}

// Sign returns the hex HMAC-SHA256 of manifest under secret.
func Sign(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}
