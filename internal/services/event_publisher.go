package services

import (
	"context"
	"encoding/json"

	"github.com/accountforge/account-service/configs"
	"github.com/accountforge/account-service/internal/views"
	kafkautils "github.com/accountforge/account-service/pkg/kafka"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// EventPublisher emits transaction audit events. Publishing is asynchronous
// and best effort; a delivery failure is logged, never surfaced to the
// request that produced the event.
type EventPublisher interface {
	PublishTransaction(event views.TransactionEvent) error
	Close()
}

type EventPublisherImpl struct {
	logger   *zap.Logger
	producer *kafka.Producer
	cnf      *configs.Config
}

// NewEventPublisher creates and initializes an EventPublisher with the provided logger and configuration.
func NewEventPublisher(logger *zap.Logger, ctx context.Context, cnf *configs.Config) EventPublisher {
	// Initialize Kafka topics
	topicConfig := kafkautils.KafkaConfig{
		BootstrapServers: cnf.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.KafkaTransactionTopic,
				NumPartitions:     int(cnf.KafkaPartition),
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
				},
			},
		},
	}
	err := kafkautils.InitKafkaTopics(logger, ctx, topicConfig)
	if err != nil {
		logger.Fatal("failed to initialize kafka topics", zap.Error(err))
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.KafkaBrokers, // Kafka broker(s)
		"acks":               "all",            // Wait for all replicas
		"enable.idempotence": "true",           // Ensure messages are not sent twice
		"retries":            "1",              // Built-in retry mechanism
	})
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	logger.Info("kafka producer created successfully", zap.String("brokers", cnf.KafkaBrokers))
	go handleDeliveryReports(logger, p) // Async error handling
	return &EventPublisherImpl{
		logger:   logger,
		cnf:      cnf,
		producer: p,
	}
}

func (k *EventPublisherImpl) PublishTransaction(event views.TransactionEvent) error {
	// Serialize the event payload to JSON for Kafka transport
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// Deterministic partitioning by account ID keeps a single account's
	// events ordered within one partition.
	partition := int32(uint64(event.AccountID) % uint64(k.cnf.KafkaPartition))

	// Produce the message asynchronously; delivery results are handled by handleDeliveryReports
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.cnf.KafkaTransactionTopic,
			Partition: partition,
		},
		Key:   []byte(event.AccountNumber),
		Value: msgBytes,
	}, nil)
}

func (k *EventPublisherImpl) Close() {
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Error("failed to publish message", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}
