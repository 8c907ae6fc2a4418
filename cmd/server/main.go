package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"listwise/server/config"
	"listwise/server/internal/api"
	"listwise/server/internal/processor"
	"listwise/server/internal/queue"
	"listwise/server/internal/storage"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := config.LoadCityCenters(cfg.CityCentersPath); err != nil {
		logger.WithError(err).Fatal("Failed to load city centers")
	}

	store, err := storage.NewStore(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	logger.Infof("Using storage driver: %s", cfg.Storage.Driver)

	// The persistence pipeline only runs when a real sink is configured.
	var recordQueue *queue.RecordQueue
	var flusher *processor.Flusher
	if cfg.Storage.Driver != "" && cfg.Storage.Driver != "none" {
		recordQueue = queue.NewRecordQueue(cfg.BatchProcessing.QueueSize, logger)
		flusher = processor.NewFlusher(store, recordQueue, cfg, logger)
		flusher.Start()
	}

	if level != logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, store, recordQueue, cfg, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	// Stop accepting requests before draining the persistence queue, so
	// in-flight handlers can still enqueue their batches.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	if flusher != nil {
		flusher.Stop()
	}

	if err := store.Close(); err != nil {
		logger.WithError(err).Error("Failed to close storage")
	}

	logger.Info("Server stopped")
}
