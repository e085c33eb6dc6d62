package transport

import (
	"net/http"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/gin-gonic/gin"
)

type StylistHandler struct {
	service service.StylistService
}

func NewStylistHandler(service service.StylistService) *StylistHandler {
	return &StylistHandler{service: service}
}

type recommendRequest struct {
	Occasion string `json:"occasion" binding:"required"`
}

func (h *StylistHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occasion is required"})
		return
	}

	rec, err := h.service.Recommend(c.Request.Context(), req.Occasion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *StylistHandler) SaveOutfit(c *gin.Context) {
	var rec entity.OutfitRecommendation
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outfit, err := h.service.SaveOutfit(c.Request.Context(), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outfit)
}

func (h *StylistHandler) ListHistory(c *gin.Context) {
	history, err := h.service.ListHistory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if history == nil {
		history = []entity.SavedOutfit{}
	}
	c.JSON(http.StatusOK, history)
}

func (h *StylistHandler) DeleteOutfit(c *gin.Context) {
	if err := h.service.DeleteOutfit(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Outfit deleted successfully"})
}

func (h *StylistHandler) GetVisual(c *gin.Context) {
	blob, err := h.service.GetVisual(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, blob.MIMEType, blob.Data)
}
