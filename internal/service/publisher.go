package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/bistro-boss-server/internal/queue"
)

// EventPublisher announces settled payments.
type EventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, ev q.PaymentCompletedEvent) error
}

// AMQPPublisher publishes to the payment.completed queue on RabbitMQ.  It
// dials per message: payments are rare enough that a pooled channel is not
// worth the reconnect handling.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

// PublishPaymentCompleted sends ev as a persistent JSON message.  Errors are
// logged and returned; callers treat them as non-fatal.
func (p *AMQPPublisher) PublishPaymentCompleted(ctx context.Context, ev q.PaymentCompletedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.PaymentCompletedQueue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.TransactionID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.PaymentCompletedQueue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("transactionId", ev.TransactionID), zap.Error(err))
		return err
	}
	return nil
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentCompleted(context.Context, q.PaymentCompletedEvent) error { return nil }
