package transport

import (
	"net/http"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func() error

type Handlers struct {
	Wardrobe *WardrobeHandler
	Profile  *ProfileHandler
	Stylist  *StylistHandler
	Compose  *ComposeHandler
	Health   map[string]HealthCheck
}

func InitRoutes(h *Handlers, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	api := router.Group("/api/v1")
	{
		items := api.Group("/items")
		{
			items.POST("", h.Wardrobe.AddItem)
			items.GET("", h.Wardrobe.ListItems)
			items.PUT("", h.Wardrobe.ReplaceWardrobe)
			items.GET("/:id", h.Wardrobe.GetItem)
			items.GET("/:id/image", h.Wardrobe.GetItemImage)
			items.GET("/:id/thumbnail", h.Wardrobe.GetItemThumbnail)
			items.DELETE("/:id", h.Wardrobe.DeleteItem)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", h.Profile.GetProfile)
			profile.PUT("", h.Profile.SaveProfile)
			profile.GET("/avatar", h.Profile.GetAvatar)
			profile.PUT("/avatar", h.Profile.SaveAvatar)
		}

		api.POST("/stylist/recommend", h.Stylist.Recommend)
		api.GET("/visuals/:id", h.Stylist.GetVisual)

		history := api.Group("/history")
		{
			history.GET("", h.Stylist.ListHistory)
			history.POST("", h.Stylist.SaveOutfit)
			history.DELETE("/:id", h.Stylist.DeleteOutfit)
		}

		compose := api.Group("/compose")
		{
			compose.POST("", h.Compose.ComposeUpload)
			compose.POST("/items", h.Compose.ComposeItems)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		status, checks := http.StatusOK, gin.H{}
		for name, check := range h.Health {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"service": "smart-wardrobe",
			"checks":  checks,
		})
	})

	return router
}
