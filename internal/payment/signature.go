package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

func hmacSHA256(secret string, message []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return mac.Sum(nil)
}

// SignHex returns hex(HMAC-SHA256(secret, message)).
func SignHex(secret string, message []byte) string {
	return hex.EncodeToString(hmacSHA256(secret, message))
}

// SignBase64 returns base64(HMAC-SHA256(secret, message)).
func SignBase64(secret string, message []byte) string {
	return base64.StdEncoding.EncodeToString(hmacSHA256(secret, message))
}

// SignatureEqual compares two encoded signatures in constant time.
func SignatureEqual(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}
