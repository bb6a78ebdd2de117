package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sherlock-service/sherlock_service/internal/infrastructure/config"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
)

// Publisher is the outbound side of the shadow channel.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// NoopPublisher drops messages, for local runs and tests without a broker.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, body []byte) error { return nil }

// RabbitMQ wraps one connection and channel with the exchange, queue and
// binding declared. Both the champion's dispatcher and the evaluator's
// consumer run on this topology.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     config.QueueConfig
	log     *logger.Logger
}

func NewRabbitMQ(cfg config.QueueConfig, log *logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := channel.QueueDeclare(
		cfg.ShadowQueue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := channel.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	log.Infow("RabbitMQ topology ready",
		"exchange", cfg.Exchange,
		"queue", q.Name,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		cfg:     cfg,
		log:     log,
	}, nil
}

// Publish sends one persistent JSON message to the shadow exchange.
func (r *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	return r.channel.PublishWithContext(ctx,
		r.cfg.Exchange,
		r.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Handler processes one delivery body. A returned error requeues the
// message.
type Handler func(ctx context.Context, body []byte) error

// Consume delivers queue messages to the handler until the context ends.
func (r *RabbitMQ) Consume(ctx context.Context, handler Handler) error {
	msgs, err := r.channel.Consume(
		r.cfg.ShadowQueue,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (we ack manually)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	r.log.Infow("Consumer started", "queue", r.cfg.ShadowQueue)

	for {
		select {
		case <-ctx.Done():
			r.log.Infow("Context cancelled, stopping consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			// Handlers swallow permanently bad messages themselves, so
			// an error here is transient and worth a redelivery.
			if err := handler(ctx, msg.Body); err != nil {
				r.log.Errorw("Message handling failed, requeueing", "error", err)
				msg.Nack(false, true)
			} else {
				msg.Ack(false)
			}
		}
	}
}

// Ping reports broker connectivity, for health checks.
func (r *RabbitMQ) Ping(ctx context.Context) error {
	if r.conn.IsClosed() {
		return fmt.Errorf("connection closed")
	}
	return nil
}

// Close closes the channel and connection.
func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.log.Warnw("Error closing channel", "error", err)
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
