package rabbitMQ

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type Queue interface {
	Publish(ctx context.Context, message interface{}) error
	PublishWithDelay(ctx context.Context, message interface{}, delay time.Duration) error
	Consume(ctx context.Context, handler func(ctx context.Context, message []byte) error) error
	Close() error
}

// RabbitMQ sends JSON messages to one durable work queue. Delayed messages
// sit in a holding queue per delay until their TTL dead-letters them back.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  RabbitMQConfig

	mu      sync.Mutex
	holding map[time.Duration]string
}

type RabbitMQConfig struct {
	URL       string
	QueueName string
	// Prefetch is how many unacknowledged deliveries a consumer holds, 1 when unset.
	Prefetch int
}

func NewRabbitMQ(config RabbitMQConfig) (*RabbitMQ, error) {
	if config.QueueName == "" {
		return nil, errors.New("rabbitmq queue name is required")
	}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	r := &RabbitMQ{
		conn:    conn,
		channel: channel,
		config:  config,
		holding: make(map[time.Duration]string),
	}
	if err := r.declare(config.QueueName, workQueueArgs()); err != nil {
		r.Close()
		return nil, err
	}

	logrus.WithField("queue", config.QueueName).Info("Connected to RabbitMQ")
	return r, nil
}

// DeclareDelays creates the holding queues for delays ahead of the first
// retry.
func (r *RabbitMQ) DeclareDelays(delays ...time.Duration) error {
	for _, d := range delays {
		if d <= 0 {
			continue
		}
		if _, err := r.holdingQueue(d); err != nil {
			return err
		}
	}
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, message interface{}) error {
	return r.send(ctx, r.config.QueueName, message)
}

func (r *RabbitMQ) PublishWithDelay(ctx context.Context, message interface{}, delay time.Duration) error {
	if delay <= 0 {
		return r.Publish(ctx, message)
	}
	name, err := r.holdingQueue(delay)
	if err != nil {
		return err
	}
	return r.send(ctx, name, message)
}

func (r *RabbitMQ) holdingQueue(delay time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.holding[delay]; ok {
		return name, nil
	}
	name := holdingQueueName(r.config.QueueName, delay)
	if err := r.declare(name, holdingQueueArgs(r.config.QueueName, delay)); err != nil {
		return "", err
	}
	r.holding[delay] = name
	return name, nil
}

func (r *RabbitMQ) declare(name string, args amqp.Table) error {
	// durable, kept when unused, shared between processes
	if _, err := r.channel.QueueDeclare(name, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

func (r *RabbitMQ) send(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if err := r.channel.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}
	return nil
}

// Consume delivers messages to handler from a goroutine until ctx ends. A
// handler error puts the message back on the queue.
func (r *RabbitMQ) Consume(ctx context.Context, handler func(ctx context.Context, message []byte) error) error {
	if err := r.channel.Qos(max(r.config.Prefetch, 1), 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := r.channel.Consume(r.config.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", r.config.QueueName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					logrus.WithField("queue", r.config.QueueName).Warn("RabbitMQ delivery channel closed")
					return
				}
				settle(d, handler(ctx, d.Body))
			}
		}
	}()
	return nil
}

func settle(d amqp.Delivery, handleErr error) {
	if handleErr == nil {
		if err := d.Ack(false); err != nil {
			logrus.WithError(err).Warn("failed to ack message")
		}
		return
	}

	logrus.WithError(handleErr).WithField("redelivered", d.Redelivered).Warn("failed to process message, requeueing")
	if err := d.Nack(false, true); err != nil {
		logrus.WithError(err).Warn("failed to requeue message")
	}
}

func (r *RabbitMQ) Close() error {
	var errs []error
	if r.channel != nil {
		errs = append(errs, r.channel.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("errors while closing RabbitMQ: %w", err)
	}
	return nil
}

func (r *RabbitMQ) HealthCheck() error {
	switch {
	case r.conn == nil || r.conn.IsClosed():
		return errors.New("RabbitMQ connection is closed")
	case r.channel == nil || r.channel.IsClosed():
		return errors.New("RabbitMQ channel is closed")
	}
	return nil
}

func workQueueArgs() amqp.Table {
	return amqp.Table{"x-queue-mode": "lazy"}
}

func holdingQueueName(target string, delay time.Duration) string {
	return fmt.Sprintf("%s.retry.%dms", target, delay.Milliseconds())
}

// holdingQueueArgs expires every message after delay into target through the
// default exchange.
func holdingQueueArgs(target string, delay time.Duration) amqp.Table {
	return amqp.Table{
		"x-queue-mode":              "lazy",
		"x-message-ttl":             delay.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": target,
	}
}
