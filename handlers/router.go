package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger logs one line per request through zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// SetupRouter wires the API routes onto a new gin engine
func SetupRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.Logger))
	if h.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = h.MaxUploadBytes
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	})

	api := router.Group("/api")
	{
		api.POST("/upload", h.Upload)

		api.GET("/results/:resultId", h.GetResult)
		api.GET("/results/:resultId/sql", h.DownloadSQL)
		api.GET("/results/:resultId/distribution/:section", h.GetSectionDistribution)

		api.GET("/ping", h.Ping)
	}

	router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	return router
}
