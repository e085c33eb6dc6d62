package transport

import (
	"net/http"

	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/gin-gonic/gin"
)

type ComposeHandler struct {
	service   service.CompositionService
	maxUpload int64
}

func NewComposeHandler(service service.CompositionService, maxUpload int64) *ComposeHandler {
	return &ComposeHandler{service: service, maxUpload: maxUpload}
}

// ComposeUpload renders a flat-lay from two uploaded photos.
func (h *ComposeHandler) ComposeUpload(c *gin.Context) {
	top, status, err := readUpload(c, "top", h.maxUpload)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	bottom, status, err := readUpload(c, "bottom", h.maxUpload)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	out, err := h.service.ComposeBytes(c.Request.Context(), top, bottom)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", out)
}

type composeItemsRequest struct {
	TopID    string `json:"top_id" binding:"required"`
	BottomID string `json:"bottom_id" binding:"required"`
}

func (h *ComposeHandler) ComposeItems(c *gin.Context) {
	var req composeItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top_id and bottom_id are required"})
		return
	}

	out, err := h.service.ComposeItems(c.Request.Context(), req.TopID, req.BottomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", out)
}
