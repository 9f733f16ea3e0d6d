package payment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureKnownValue(t *testing.T) {
	got := Signature("ORDER-1", "200", "150000.00", "SB-Mid-server-test")
	assert.Equal(t, "fd5f0b54b8efad52f4e6d937cf074af88d24086e9f7cbb7c336472b2fc27da352fa8bf8d12f9bca3de143b0b795b4dac02b6fc125a3d28b1388b7889f1543763", got)
}

func TestVerifySignature(t *testing.T) {
	n := Notification{OrderID: "ORDER-1", StatusCode: "200", GrossAmount: "150000.00"}
	n.SignatureKey = Signature("ORDER-1", "200", "150000.00", "key")

	assert.True(t, VerifySignature(n, "key"))
	assert.False(t, VerifySignature(n, "other-key"))

	n.GrossAmount = "1.00"
	assert.False(t, VerifySignature(n, "key"))
}

func TestNotificationDecodesNumbers(t *testing.T) {
	var n Notification
	body := `{"order_id":"O1","transaction_status":"settlement","status_code":200,"gross_amount":"150000.00","signature_key":null}`

	require.NoError(t, json.Unmarshal([]byte(body), &n))
	assert.Equal(t, FlexString("200"), n.StatusCode)
	assert.Equal(t, FlexString("150000.00"), n.GrossAmount)

	require.NoError(t, json.Unmarshal([]byte(`{"status_code":null}`), &n))
	assert.Equal(t, FlexString(""), n.StatusCode)

	assert.Error(t, json.Unmarshal([]byte(`{"status_code":{}}`), &n))
}
