package ai

import (
	"fmt"
	"net/http"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
)

// StatusError is a non-success reply from the inference API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ai api error (%d)", e.Code)
	}
	return fmt.Sprintf("ai api error (%d): %s", e.Code, e.Message)
}

// Unwrap lets callers match any API failure with entity.ErrAIUnavailable.
func (e *StatusError) Unwrap() error { return entity.ErrAIUnavailable }

// Temporary reports rate limiting or a temporarily unavailable upstream.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusServiceUnavailable
}
