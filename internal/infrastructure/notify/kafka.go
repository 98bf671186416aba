// Package notify provides the Kafka-backed notification sender.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"larder/internal/domain/notify"
)

// DefaultTopic is where order notifications are published.
const DefaultTopic = "order-notifications"

// Compile-time check that KafkaNotifier implements notify.Notifier.
var _ notify.Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier publishes notifications to a Kafka topic. Messages are
// keyed by recipient so one recipient's notifications stay ordered.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a notifier writing to the given brokers and topic.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Send publishes the notification.
func (n *KafkaNotifier) Send(ctx context.Context, msg notify.Notification) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RecipientID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
