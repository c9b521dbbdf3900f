// Package notify delivers outbound scanner notifications.
package notify

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"strategy-scanner/internal/interfaces"
)

// KafkaNotifier publishes messages to a Kafka topic. Delivery is
// best-effort; the scanner treats failures as log-only.
type KafkaNotifier struct {
	writer *kafka.Writer
}

var _ interfaces.Notifier = (*KafkaNotifier)(nil)

func NewKafka(brokers []string, topic string) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &KafkaNotifier{writer: writer}
}

func (k *KafkaNotifier) Send(ctx context.Context, message string) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Value: []byte(message),
		Time:  time.Now(),
	})
}

func (k *KafkaNotifier) Close() error { return k.writer.Close() }
