package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"listwise/server/config"
	"listwise/server/internal/queue"
	"listwise/server/internal/storage"
)

func SetupRoutes(router *gin.Engine, store storage.Store, recordQueue *queue.RecordQueue, cfg *config.Config, logger *logrus.Logger) {
	handler := NewHandler(store, recordQueue, cfg, logger)

	router.Use(RequestID(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.POST("/normalize", handler.NormalizeBatch)
	router.GET("/health", handler.GetHealth)
	router.GET("/stats", handler.GetListingStats)
}
