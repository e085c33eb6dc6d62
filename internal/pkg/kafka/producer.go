package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	SendMessage(ctx context.Context, topic string, message interface{}) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer connects to the first reachable broker and makes sure the topic
// exists. When no broker answers a logging mock producer is returned so the
// API can still start.
func NewProducer(brokers []string, topic string) Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logrus.WithField("brokers", brokers).Info("kafka producer configured")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := dialAny(ctx, brokers)
	if err != nil {
		logrus.WithError(err).Warn("kafka connection failed, using mock producer")
		return &mockProducer{}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).WithField("topic", topic).Info("could not create topic (might already exist)")
	} else {
		logrus.WithField("topic", topic).Info("created topic")
	}

	return &kafkaProducer{writer: writer}
}

func dialAny(ctx context.Context, brokers []string) (*kafka.Conn, error) {
	var lastErr error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (p *kafkaProducer) SendMessage(ctx context.Context, topic string, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte("item-analysis"),
		Value: messageBytes,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithError(err).WithField("topic", topic).Error("failed to write message to kafka")
		return err
	}

	logrus.WithField("topic", topic).Debug("message sent")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// mockProducer stands in when kafka is not reachable.
type mockProducer struct{}

func (m *mockProducer) SendMessage(ctx context.Context, topic string, message interface{}) error {
	logrus.WithFields(logrus.Fields{"topic": topic, "message": message}).Info("MOCK: message dropped")
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

// IsMock reports whether p is the fallback producer.
func IsMock(p Producer) bool {
	_, ok := p.(*mockProducer)
	return ok
}
