package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// MaxDeliveryAttempts bounds redeliveries before a message is dead-lettered.
const MaxDeliveryAttempts = 3

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// Consumer handles consuming events from RabbitMQ
type Consumer struct {
	rmq       *RabbitMQ
	queueName string
	handlers  map[string]MessageHandler
	fallback  MessageHandler
	logger    *logger.Logger
}

// NewTransientConsumer declares an exclusive auto-delete queue and returns a
// consumer for it.
func NewTransientConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if _, err := rmq.DeclareTransientQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return newConsumer(rmq, queueName, log), nil
}

func newConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) *Consumer {
	return &Consumer{
		rmq:       rmq,
		queueName: queueName,
		handlers:  make(map[string]MessageHandler),
		logger:    log,
	}
}

// Subscribe binds the queue to an exchange with a routing key pattern
func (c *Consumer) Subscribe(exchange, routingKeyPattern string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := c.rmq.BindQueue(c.queueName, exchange, routingKeyPattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", routingKeyPattern).
		Msg("subscribed to exchange")
	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// RegisterFallback handles every event type without a dedicated handler.
func (c *Consumer) RegisterFallback(handler MessageHandler) {
	c.fallback = handler
}

// Start starts consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.Channel().Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info().Str("queue", c.queueName).Msg("consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn().Msg("message channel closed")
					return
				}
				c.Dispatch(ctx, msg.Body, delivery{msg})
			}
		}
	}()

	return nil
}

// Acknowledger is the subset of amqp.Delivery that Dispatch settles.
type Acknowledger interface {
	Ack() error
	Nack(requeue bool) error
	Reject(requeue bool) error
	Attempts() int
}

type delivery struct{ amqp.Delivery }

func (d delivery) Ack() error                { return d.Delivery.Ack(false) }
func (d delivery) Nack(requeue bool) error   { return d.Delivery.Nack(false, requeue) }
func (d delivery) Reject(requeue bool) error { return d.Delivery.Reject(requeue) }
func (d delivery) Attempts() int             { return retryCount(d.Headers) }

// Dispatch decodes body, routes it to its handler and settles the delivery:
// ack on success or when nobody handles the type, reject malformed bodies,
// requeue failures until MaxDeliveryAttempts then dead-letter.
func (c *Consumer) Dispatch(ctx context.Context, body []byte, ack Acknowledger) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Error().Err(err).Msg("failed to unmarshal event")
		_ = ack.Reject(false)
		return
	}

	ctx = WithCorrelationID(ctx, event.CorrelationID)

	handler, ok := c.handlers[event.Type]
	if !ok {
		handler = c.fallback
	}
	if handler == nil {
		c.logger.Debug().Str("event_type", event.Type).Msg("no handler registered for event type")
		_ = ack.Ack()
		return
	}

	if err := handler(ctx, &event); err != nil {
		c.logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("event_id", event.ID).
			Msg("failed to process event")

		if attempts := ack.Attempts(); attempts >= MaxDeliveryAttempts {
			c.logger.Warn().
				Str("event_id", event.ID).
				Int("retry_count", attempts).
				Msg("max retries exceeded, sending to DLQ")
			_ = ack.Reject(false)
			return
		}
		_ = ack.Nack(true)
		return
	}

	_ = ack.Ack()
}

func retryCount(headers amqp.Table) int {
	deaths, ok := headers["x-death"].([]interface{})
	if !ok {
		return 0
	}
	for _, death := range deaths {
		if d, ok := death.(amqp.Table); ok {
			if count, ok := d["count"].(int64); ok {
				return int(count)
			}
		}
	}
	return 0
}
