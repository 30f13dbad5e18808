package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the daemon's HTTP routing table.
func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.GET("/status", h.getStatus)
		v1.GET("/messages", h.listMessages)
		v1.POST("/messages", h.sendMessage)
		v1.POST("/attachments", h.uploadAttachment)
		v1.POST("/location", h.shareLocation)
	}

	return r
}
