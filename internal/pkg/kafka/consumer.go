package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one message value. A returned error is logged; the
// offset is committed either way, redelivery is the handler's business.
type Handler func(ctx context.Context, value []byte) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	return &Consumer{reader: reader}
}

// Run reads messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	cfg := c.reader.Config()
	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
		"group":   cfg.GroupID,
	}).Info("kafka consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logrus.WithError(err).Error("error reading message from kafka")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		entry := logrus.WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		if err := handle(ctx, msg.Value); err != nil {
			entry.WithError(err).Error("message handling failed")
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			entry.WithError(err).Error("commit failed")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
