package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of "orderID|paymentID".
func Sign(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature never accepts anything under an empty secret.
func VerifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
