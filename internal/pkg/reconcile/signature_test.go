package reconcile

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signFor(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "top-secret"
	validSig := signFor("order_123", "pay_456", secret)

	if !VerifyPaymentSignature("order_123", "pay_456", validSig, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if !VerifyPaymentSignature("order_123", "pay_456", strings.ToUpper(validSig), secret) {
		t.Fatalf("expected uppercase hex signature to verify")
	}
	if VerifyPaymentSignature("order_123", "pay_456", "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyPaymentSignature("order_999", "pay_456", validSig, secret) {
		t.Fatalf("expected signature over different order to fail")
	}
	if VerifyPaymentSignature("order_123", "pay_456", validSig, "wrong-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
}

func TestVerifyPaymentSignature_MissingInputs(t *testing.T) {
	secret := "top-secret"
	validSig := signFor("order_123", "pay_456", secret)

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		secret    string
	}{
		{name: "empty order", orderID: "", paymentID: "pay_456", signature: validSig, secret: secret},
		{name: "empty payment", orderID: "order_123", paymentID: "", signature: validSig, secret: secret},
		{name: "empty signature", orderID: "order_123", paymentID: "pay_456", signature: "", secret: secret},
		{name: "empty secret", orderID: "order_123", paymentID: "pay_456", signature: validSig, secret: ""},
		{name: "whitespace only", orderID: "  ", paymentID: "pay_456", signature: validSig, secret: secret},
	}

	for _, tt := range tests {
		if VerifyPaymentSignature(tt.orderID, tt.paymentID, tt.signature, tt.secret) {
			t.Fatalf("%s: expected verification to fail", tt.name)
		}
	}
}
