package transport

import (
	"net/http"
	"strconv"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/gin-gonic/gin"
)

type WardrobeHandler struct {
	service   service.WardrobeService
	maxUpload int64
}

func NewWardrobeHandler(service service.WardrobeService, maxUpload int64) *WardrobeHandler {
	return &WardrobeHandler{service: service, maxUpload: maxUpload}
}

func (h *WardrobeHandler) AddItem(c *gin.Context) {
	data, status, err := readUpload(c, "image", h.maxUpload)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	removeBackground, _ := strconv.ParseBool(c.PostForm("remove_background"))
	item, err := h.service.AddItem(c.Request.Context(), &service.AddItemRequest{
		Image:            data,
		Category:         c.PostForm("category"),
		RemoveBackground: removeBackground,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if item.AnalysisStatus == entity.AnalysisPending {
		c.JSON(http.StatusAccepted, item)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *WardrobeHandler) ListItems(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []entity.ClothingItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *WardrobeHandler) GetItem(c *gin.Context) {
	item, err := h.service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *WardrobeHandler) GetItemImage(c *gin.Context) {
	blob, err := h.service.GetItemImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, blob.MIMEType, blob.Data)
}

func (h *WardrobeHandler) GetItemThumbnail(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1024 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 1 and 1024"})
			return
		}
		size = n
	}

	blob, err := h.service.GetItemThumbnail(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, blob.MIMEType, blob.Data)
}

func (h *WardrobeHandler) DeleteItem(c *gin.Context) {
	if err := h.service.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

func (h *WardrobeHandler) ReplaceWardrobe(c *gin.Context) {
	var items []entity.ClothingItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ReplaceWardrobe(c.Request.Context(), items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wardrobe replaced", "count": len(items)})
}
