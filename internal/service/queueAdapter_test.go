package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topics   []string
	messages []interface{}
	err      error
}

func (p *recordingProducer) SendMessage(_ context.Context, topic string, message interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, message)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

type recordingQueue struct {
	published []interface{}
	delays    []time.Duration
	err       error
}

func (q *recordingQueue) Publish(_ context.Context, message interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, message)
	return nil
}

func (q *recordingQueue) PublishWithDelay(_ context.Context, message interface{}, delay time.Duration) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, message)
	q.delays = append(q.delays, delay)
	return nil
}

func (q *recordingQueue) Consume(context.Context, func(context.Context, []byte) error) error {
	return nil
}

func (q *recordingQueue) Close() error { return nil }

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 0},
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 6, want: 32 * time.Second},
		{attempt: 40, want: 32 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(time.Second, tt.attempt), "attempt %d", tt.attempt)
	}
	assert.Zero(t, RetryDelay(0, 3))
}

func TestRetryDelays(t *testing.T) {
	tests := []struct {
		name        string
		base        time.Duration
		maxAttempts int
		want        []time.Duration
	}{
		{name: "single attempt never retries", base: time.Second, maxAttempts: 1, want: nil},
		{name: "three attempts", base: time.Second, maxAttempts: 3, want: []time.Duration{time.Second, 2 * time.Second}},
		{
			name: "capped delay is listed once", base: time.Second, maxAttempts: 10,
			want: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second},
		},
		{name: "no base delay", base: 0, maxAttempts: 5, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetryDelays(tt.base, tt.maxAttempts))
		})
	}
}

func TestKafkaAdapter(t *testing.T) {
	p := &recordingProducer{}
	a := NewKafkaAdapter(p, "item-analysis", time.Millisecond)

	task := entity.AnalysisTask{ItemID: "i1", Attempt: 1}
	require.NoError(t, a.Publish(context.Background(), task))
	assert.Equal(t, []string{"item-analysis"}, p.topics)
	assert.Equal(t, []interface{}{task}, p.messages)

	p.err = errors.New("broker down")
	assert.ErrorIs(t, a.Publish(context.Background(), entity.AnalysisTask{ItemID: "i2"}), entity.ErrQueueError)
}

func TestKafkaAdapterRetryWaitHonoursContext(t *testing.T) {
	a := NewKafkaAdapter(&recordingProducer{}, "t", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Publish(ctx, entity.AnalysisTask{ItemID: "i1", Attempt: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRabbitAdapter(t *testing.T) {
	q := &recordingQueue{}
	a := NewRabbitAdapter(q, 5*time.Second)

	require.NoError(t, a.Publish(context.Background(), entity.AnalysisTask{ItemID: "first"}))
	require.NoError(t, a.Publish(context.Background(), entity.AnalysisTask{ItemID: "retry", Attempt: 2}))

	require.Len(t, q.published, 2)
	assert.Equal(t, []time.Duration{10 * time.Second}, q.delays)

	q.err = errors.New("channel closed")
	assert.ErrorIs(t, a.Publish(context.Background(), entity.AnalysisTask{ItemID: "x"}), entity.ErrQueueError)
}
