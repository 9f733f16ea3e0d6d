package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"rabbit-moon/internal/config"
	"rabbit-moon/internal/models"
)

// Events publishes the service's domain events onto the configured topics.
type Events struct {
	Producer *Producer
	Topics   config.TopicConfig
}

func NewEvents(producer *Producer, topics config.TopicConfig) *Events {
	return &Events{Producer: producer, Topics: topics}
}

// PublishTransactionEvent streams transaction.created / transaction.updated
func (e *Events) PublishTransactionEvent(ctx context.Context, ev models.TransactionEvent) error {
	return e.Producer.PublishJSON(ctx, e.Topics.Transactions, ev.OrderID, ev)
}

// PublishInvitationBatch streams invitations.generated
func (e *Events) PublishInvitationBatch(ctx context.Context, ev models.InvitationBatchEvent) error {
	key := ev.OrderID
	if key == "" {
		key = ev.TemplateID
	}
	return e.Producer.PublishJSON(ctx, e.Topics.Invitations, key, ev)
}

// NoopEvents drops every event. Used when Kafka is disabled.
type NoopEvents struct{}

func (NoopEvents) PublishTransactionEvent(ctx context.Context, ev models.TransactionEvent) error {
	return nil
}

func (NoopEvents) PublishInvitationBatch(ctx context.Context, ev models.InvitationBatchEvent) error {
	return nil
}

// DescribeEvent renders one published event as a single log line.
func DescribeEvent(value []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(value, &head); err != nil {
		return "", fmt.Errorf("decode event: %w", err)
	}

	switch head.Type {
	case models.EventTransactionCreated, models.EventTransactionUpdated:
		var ev models.TransactionEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			return "", fmt.Errorf("decode %s: %w", head.Type, err)
		}
		if ev.PreviousStatus != "" {
			return fmt.Sprintf("%s order=%s template=%s amount=%d %s -> %s", ev.Type, ev.OrderID, ev.TemplateID, ev.Amount, ev.PreviousStatus, ev.Status), nil
		}
		return fmt.Sprintf("%s order=%s template=%s amount=%d status=%s", ev.Type, ev.OrderID, ev.TemplateID, ev.Amount, ev.Status), nil
	case models.EventInvitationsGenerated:
		var ev models.InvitationBatchEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			return "", fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return fmt.Sprintf("%s template=%s order=%s links=%d/%d email=%t", ev.Type, ev.TemplateID, ev.OrderID, ev.LinkCount, ev.GuestCount, ev.EmailSent), nil
	default:
		return "", fmt.Errorf("unknown event type %q", head.Type)
	}
}
