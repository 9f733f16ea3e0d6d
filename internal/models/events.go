package models

import "time"

const (
	EventTransactionCreated   = "transaction.created"
	EventTransactionUpdated   = "transaction.updated"
	EventInvitationsGenerated = "invitations.generated"
)

type TransactionEvent struct {
	Type           string            `json:"type"`
	OrderID        string            `json:"order_id"`
	TemplateID     string            `json:"template_id"`
	Amount         int64             `json:"amount"`
	Status         TransactionStatus `json:"status"`
	PreviousStatus TransactionStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

func NewTransactionEvent(eventType string, tx Transaction, previous TransactionStatus) TransactionEvent {
	return TransactionEvent{
		Type:           eventType,
		OrderID:        tx.OrderID,
		TemplateID:     tx.TemplateID,
		Amount:         tx.Amount,
		Status:         tx.Status,
		PreviousStatus: previous,
		OccurredAt:     time.Now().UTC(),
	}
}

type InvitationBatchEvent struct {
	Type       string    `json:"type"`
	TemplateID string    `json:"template_id"`
	OrderID    string    `json:"order_id,omitempty"`
	GuestCount int       `json:"guest_count"`
	LinkCount  int       `json:"link_count"`
	EmailSent  bool      `json:"email_sent"`
	OccurredAt time.Time `json:"occurred_at"`
}
