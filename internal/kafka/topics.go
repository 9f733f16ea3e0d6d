package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"rabbit-moon/internal/logger"

	"github.com/segmentio/kafka-go"
)

// EnsureTopicsExist creates the missing topics on the cluster controller.
func EnsureTopicsExist(ctx context.Context, brokers []string, topics []string, log *logger.Logger) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	existing, err := ListTopics(ctx, brokers)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t] = true
	}

	var missing []kafka.TopicConfig
	for _, topic := range topics {
		if have[topic] {
			log.Debug("KAFKA", fmt.Sprintf("Topic %s already exists", topic))
			continue
		}
		missing = append(missing, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	if len(missing) == 0 {
		return nil
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, tc := range missing {
		err := controllerConn.CreateTopics(tc)
		switch {
		case err == nil:
			log.LogKafka("CREATE", tc.Topic, "topic created")
		case errors.Is(err, kafka.TopicAlreadyExists):
			log.Debug("KAFKA", fmt.Sprintf("Topic %s already exists", tc.Topic))
		default:
			// keep going, the producer can still auto-create
			log.Error("KAFKA", fmt.Sprintf("Error creating topic %s: %v", tc.Topic, err))
		}
	}
	return nil
}

// ListTopics returns a list of all existing topics
func ListTopics(ctx context.Context, brokers []string) ([]string, error) {
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, err
	}

	topicMap := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !topicMap[p.Topic] {
			topicMap[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}

	return topics, nil
}
