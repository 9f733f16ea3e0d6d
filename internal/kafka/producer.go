package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rabbit-moon/internal/logger"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DefaultPublishTimeout bounds one publish. Events are best effort and must
// not hold up the request that emitted them.
const DefaultPublishTimeout = 3 * time.Second

type Producer struct {
	Writer MessageWriter
	Logger *logger.Logger
	// Timeout overrides DefaultPublishTimeout when positive.
	Timeout time.Duration
}

// NewProducer creates a producer whose messages carry their own topic.
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Logger: log, Timeout: DefaultPublishTimeout}
}

// Publish writes one message to topic, keyed so that events of one order
// land on the same partition.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("key=%s bytes=%d", key, len(value)))
	return nil
}

func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	msgBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, key, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
