package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/compositor"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrInvalidCategory), errors.Is(err, compositor.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrItemNotFound), errors.Is(err, entity.ErrOutfitNotFound), errors.Is(err, entity.ErrVisualNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrNotEnoughItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, entity.ErrAIResponse):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrAIUnavailable), errors.Is(err, entity.ErrQueueError):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("request error")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
