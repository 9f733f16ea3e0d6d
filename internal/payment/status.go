package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"rabbit-moon/internal/models"
)

// MapStatus folds Midtrans transaction and fraud states into the ledger's
// four statuses.
func MapStatus(transactionStatus, fraudStatus string) models.TransactionStatus {
	switch transactionStatus {
	case "capture", "settlement":
		if fraudStatus == "" || fraudStatus == "accept" {
			return models.StatusSuccess
		}
		return models.StatusFraud
	case "cancel", "deny", "expire", "failure":
		return models.StatusFailed
	default:
		return models.StatusPending
	}
}

// Signature computes SHA512(order_id + status_code + gross_amount + server_key)
// in hex, as sent in signature_key.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(n Notification, serverKey string) bool {
	want := Signature(n.OrderID, string(n.StatusCode), string(n.GrossAmount), serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) == 1
}
