package notify

import (
	"context"

	"corealign/pkg/config"
	"corealign/pkg/kafka"
	"corealign/pkg/logger"
)

const eventSource = "corealign"

// KafkaNotifier publishes booking events to the notification topic.
// Email and WhatsApp delivery workers consume it downstream; this
// service only emits.
type KafkaNotifier struct {
	producer *kafka.Producer
}

func NewKafkaNotifier(cfg *config.Config) (*KafkaNotifier, error) {
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.NotifyBrokers,
		Topic:   cfg.NotifyTopic,
	})
	if err != nil {
		return nil, err
	}
	return &KafkaNotifier{producer: producer}, nil
}

func (n *KafkaNotifier) Send(ctx context.Context, event BookingEvent) error {
	// Key by customer phone so one customer's notifications stay ordered.
	msg, err := kafka.NewMessage(event.CustomerPhone, event.Type, eventSource, event)
	if err != nil {
		return err
	}
	return n.producer.Publish(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

// LogNotifier stands in when no brokers are configured (local dev,
// tests): events land in the log and nowhere else.
type LogNotifier struct {
	Log *logger.Logger
}

func (n *LogNotifier) Send(_ context.Context, event BookingEvent) error {
	n.Log.Info("Notification event (no brokers configured)",
		"type", event.Type,
		"booking_code", event.BookingCode,
		"customer_phone", event.CustomerPhone,
	)
	return nil
}
