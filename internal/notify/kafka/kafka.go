package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/MustafAks/DexScreener/internal/notify"
)

var _ notify.Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier publishes alerts to a topic; the channel passed to Send is
// the topic name.
type KafkaNotifier struct {
	producer sarama.SyncProducer
}

// NewKafkaNotifier connects a synchronous producer to brokers.
func NewKafkaNotifier(brokers []string) (*KafkaNotifier, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	return NewKafkaNotifierWithProducer(producer), nil
}

func NewKafkaNotifierWithProducer(producer sarama.SyncProducer) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

// Send implements notify.Notifier. Every message gets a fresh uuid key.
func (k *KafkaNotifier) Send(ctx context.Context, channel, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: channel,
		Key:   sarama.StringEncoder(uuid.NewString()),
		Value: sarama.StringEncoder(message),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte("text/plain")},
		},
	}

	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", channel, err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.producer.Close()
}
