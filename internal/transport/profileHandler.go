package transport

import (
	"net/http"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	service   service.ProfileService
	maxUpload int64
}

func NewProfileHandler(service service.ProfileService, maxUpload int64) *ProfileHandler {
	return &ProfileHandler{service: service, maxUpload: maxUpload}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetProfile(c.Request.Context()))
}

func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	var profile entity.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.service.SaveProfile(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ProfileHandler) SaveAvatar(c *gin.Context) {
	data, status, err := readUpload(c, "image", h.maxUpload)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.SaveAvatar(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) GetAvatar(c *gin.Context) {
	blob, err := h.service.GetAvatar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, blob.MIMEType, blob.Data)
}
