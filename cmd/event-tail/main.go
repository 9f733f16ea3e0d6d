package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rabbit-moon/internal/config"
	"rabbit-moon/internal/kafka"
	"rabbit-moon/internal/logger"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
)

// event-tail prints the service's domain events as they are published.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	topic := flag.String("topic", cfg.Kafka.Topics.Transactions, "topic to follow")
	group := flag.String("group", "rabbit-moon-event-tail", "consumer group id")
	flag.Parse()

	log := logger.New(logger.Options{})
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, *topic, *group, log)
	defer consumer.Close()

	log.Info("KAFKA", fmt.Sprintf("Following %s on %v", *topic, cfg.Kafka.Brokers))
	err := consumer.Start(ctx, func(msg kafkago.Message) error {
		line, err := kafka.DescribeEvent(msg.Value)
		if err != nil {
			return err
		}
		log.LogKafka("EVENT", msg.Topic, line)
		return nil
	})
	if err != nil {
		log.Fatal("KAFKA", err.Error())
	}
}
