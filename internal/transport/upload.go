package transport

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/gin-gonic/gin"
)

// readUpload reads a multipart file field, refusing anything over maxBytes.
func readUpload(c *gin.Context, field string, maxBytes int64) ([]byte, int, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: no %s file provided", entity.ErrInvalidInput, field)
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: %s is larger than %d bytes", entity.ErrInvalidInput, field, maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}
	return data, http.StatusOK, nil
}
