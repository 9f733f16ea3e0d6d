package midtrans

import (
	"fmt"
	"net/url"
	"time"
)

// wib is Western Indonesia Time, the zone Snap expiry timestamps are written in.
var wib = time.FixedZone("WIB", 7*60*60)

const expiryLayout = "2006-01-02 15:04:05 -0700"

type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CreditCard         CreditCard         `json:"credit_card"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	ItemDetails        []ItemDetail       `json:"item_details"`
	Callbacks          Callbacks          `json:"callbacks"`
	Expiry             Expiry             `json:"expiry"`
}

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type CreditCard struct {
	Secure bool `json:"secure"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type Callbacks struct {
	Finish  string `json:"finish"`
	Error   string `json:"error"`
	Pending string `json:"pending"`
}

type Expiry struct {
	StartTime string `json:"start_time"`
	Unit      string `json:"unit"`
	Duration  int    `json:"duration"`
}

type SnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type StatusResponse struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key"`
}

// TemplatePurchase describes the single item bought in a checkout session.
type TemplatePurchase struct {
	OrderID      string
	TemplateID   string
	TemplateName string
	Amount       int64
	BaseURL      string
}

// NewSnapRequest builds the checkout payload for a premium template with a
// 24 hour expiry starting at now.
func NewSnapRequest(p TemplatePurchase, now time.Time) SnapRequest {
	callback := func(status string) string {
		return fmt.Sprintf("%s/payment-callback?status=%s&order_id=%s", p.BaseURL, status, url.QueryEscape(p.OrderID))
	}

	return SnapRequest{
		TransactionDetails: TransactionDetails{
			OrderID:     p.OrderID,
			GrossAmount: p.Amount,
		},
		CreditCard: CreditCard{Secure: true},
		CustomerDetails: CustomerDetails{
			FirstName: "Wedding",
			LastName:  "Customer",
			Email:     "customer@example.com",
			Phone:     "08123456789",
		},
		ItemDetails: []ItemDetail{{
			ID:       p.TemplateID,
			Price:    p.Amount,
			Quantity: 1,
			Name:     "Template Premium: " + p.TemplateName,
		}},
		Callbacks: Callbacks{
			Finish:  callback("success"),
			Error:   callback("failed"),
			Pending: callback("pending"),
		},
		Expiry: Expiry{
			StartTime: now.In(wib).Format(expiryLayout),
			Unit:      "hour",
			Duration:  24,
		},
	}
}
