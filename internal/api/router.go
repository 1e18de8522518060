// Package api is the HTTP surface over crawling, transcription and trends.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trendcrawl/pkg/logger"
)

// NewRouter mounts every route. metrics may be nil to leave /metrics out.
func NewRouter(h *Handler, metrics http.Handler, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(logger.OrNop(log)))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	crawl := router.Group("/crawl")
	crawl.POST("", h.CrawlSite)
	crawl.POST("/page", h.ExtractPage)
	crawl.POST("/batch", h.CrawlBatch)
	crawl.POST("/upload", h.CrawlUpload)

	router.GET("/trends", h.Trends)
	router.GET("/trends/last-update", h.LastUpdate)

	router.POST("/media/transcribe", h.Transcribe)
	router.POST("/media/segment", h.Segment)

	return router
}

func ginLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infof("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
