package ai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	policy := RetryPolicy{Retries: 1, BaseDelay: time.Millisecond}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{name: "success first try", errs: []error{nil}, wantCalls: 1},
		{name: "rate limited then ok", errs: []error{&StatusError{Code: http.StatusTooManyRequests}, nil}, wantCalls: 2},
		{name: "unavailable then ok", errs: []error{&StatusError{Code: http.StatusServiceUnavailable}, nil}, wantCalls: 2},
		{name: "rate limited twice gives up", errs: []error{&StatusError{Code: 429}, &StatusError{Code: 429}, nil}, wantCalls: 2, wantErr: true},
		{name: "bad request is not retried", errs: []error{&StatusError{Code: http.StatusBadRequest}, nil}, wantCalls: 1, wantErr: true},
		{name: "parse error is not retried", errs: []error{entity.ErrAIResponse, nil}, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := WithRetry(context.Background(), policy, func(ctx context.Context) (string, error) {
				err := tt.errs[calls]
				calls++
				if err != nil {
					return "", err
				}
				return "ok", nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", got)
		})
	}
}

func TestWithRetryDoublesDelay(t *testing.T) {
	var stamps []time.Time
	_, err := WithRetry(context.Background(), RetryPolicy{Retries: 2, BaseDelay: 20 * time.Millisecond}, func(ctx context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, &StatusError{Code: 503}
	})
	require.Error(t, err)
	require.Len(t, stamps, 3)

	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := WithRetry(ctx, RetryPolicy{Retries: 3, BaseDelay: time.Hour}, func(ctx context.Context) (int, error) {
		calls++
		return 0, &StatusError{Code: 429}
	})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, calls)
}

func TestStatusErrorUnwrapsToUnavailable(t *testing.T) {
	err := error(&StatusError{Code: 500, Message: "boom"})
	assert.ErrorIs(t, err, entity.ErrAIUnavailable)
	assert.Contains(t, err.Error(), "boom")
}
