package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/kafka"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/rabbitMQ"
)

// KafkaAdapter publishes analysis tasks to a kafka topic. Kafka has no
// delayed delivery, so a retry waits here before it is sent.
type KafkaAdapter struct {
	producer  kafka.Producer
	topic     string
	baseDelay time.Duration
}

func NewKafkaAdapter(p kafka.Producer, topic string, baseDelay time.Duration) *KafkaAdapter {
	return &KafkaAdapter{producer: p, topic: topic, baseDelay: baseDelay}
}

func (a *KafkaAdapter) Publish(ctx context.Context, task entity.AnalysisTask) error {
	if d := RetryDelay(a.baseDelay, task.Attempt); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := a.producer.SendMessage(ctx, a.topic, task); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrQueueError, err)
	}
	return nil
}

// RabbitAdapter publishes analysis tasks to RabbitMQ. Retries are delayed by
// baseDelay doubled per previous attempt.
type RabbitAdapter struct {
	queue     rabbitMQ.Queue
	baseDelay time.Duration
}

func NewRabbitAdapter(q rabbitMQ.Queue, baseDelay time.Duration) *RabbitAdapter {
	return &RabbitAdapter{queue: q, baseDelay: baseDelay}
}

func (a *RabbitAdapter) Publish(ctx context.Context, task entity.AnalysisTask) error {
	var err error
	if task.Attempt > 0 {
		err = a.queue.PublishWithDelay(ctx, task, RetryDelay(a.baseDelay, task.Attempt))
	} else {
		err = a.queue.Publish(ctx, task)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrQueueError, err)
	}
	return nil
}

// RetryDelay is the wait before the given retry attempt (1-based).
func RetryDelay(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 6 {
		attempt = 6
	}
	return base * time.Duration(1<<(attempt-1))
}

// RetryDelays lists the distinct delays used by retries 1..maxAttempts-1, in
// increasing order.
func RetryDelays(base time.Duration, maxAttempts int) []time.Duration {
	var delays []time.Duration
	for attempt := 1; attempt < maxAttempts; attempt++ {
		d := RetryDelay(base, attempt)
		if d <= 0 || (len(delays) > 0 && delays[len(delays)-1] == d) {
			continue
		}
		delays = append(delays, d)
	}
	return delays
}
