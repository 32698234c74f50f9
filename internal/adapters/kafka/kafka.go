package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"tribe-service/internal/models"

	"github.com/IBM/sarama"
)

// NewSyncProducer builds the producer used for message.created events.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "tribe-service"

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// MessagePublisher emits one event per committed chat message. The
// notification pipeline (push, digests, badge counts) consumes the
// topic out of process. Keyed by conversation id so one conversation's
// events stay ordered on one partition.
type MessagePublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewMessagePublisher(producer sarama.SyncProducer, topic string) *MessagePublisher {
	return &MessagePublisher{producer: producer, topic: topic}
}

func (p *MessagePublisher) PublishMessageCreated(ctx context.Context, payload *models.MessageResponse) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(payload.ConversationID.String()),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish message event: %w", err)
	}
	return nil
}

func (p *MessagePublisher) Close() error {
	return p.producer.Close()
}
