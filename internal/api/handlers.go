package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"listwise/server/config"
	"listwise/server/internal/contracts"
	"listwise/server/internal/features"
	"listwise/server/internal/models"
	"listwise/server/internal/normalizer"
	"listwise/server/internal/queue"
	"listwise/server/internal/storage"
)

// ErrNotObject marks a batch element that is valid JSON but not an object.
var ErrNotObject = errors.New("record is not a JSON object")

type Handler struct {
	deriver *features.Deriver
	store   storage.Store
	queue   *queue.RecordQueue
	config  *config.Config
	logger  *logrus.Logger
}

// NewHandler wires the normalization pipeline to the HTTP boundary. The
// queue may be nil when no storage sink is configured.
func NewHandler(store storage.Store, recordQueue *queue.RecordQueue, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		deriver: features.NewDeriver(features.KeywordPeriodDetector{}),
		store:   store,
		queue:   recordQueue,
		config:  cfg,
		logger:  logger,
	}
}

// NormalizeBatch accepts a JSON array of raw records and returns one
// enriched record per structurally valid element, in input order.
func (h *Handler) NormalizeBatch(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		h.logger.WithError(err).Error("Failed to parse request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON array of records"})
		return
	}

	if len(elements) > h.config.Server.MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("batch of %d records exceeds the limit of %d", len(elements), h.config.Server.MaxBatchSize),
		})
		return
	}

	reference, err := parseReference(c.Query("reference"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference must be an RFC 3339 timestamp"})
		return
	}

	response := models.NormalizeResponse{
		Results: make([]models.EnrichedRecord, 0, len(elements)),
		Errors:  []models.RecordError{},
	}

	for i, element := range elements {
		if err := contracts.ValidateRawRecord(element); err != nil {
			response.Errors = append(response.Errors, models.RecordError{Index: i, Message: ErrNotObject.Error()})
			continue
		}

		var raw models.RawRecord
		if err := json.Unmarshal(element, &raw); err != nil {
			response.Errors = append(response.Errors, models.RecordError{Index: i, Message: ErrNotObject.Error()})
			continue
		}

		canonical := normalizer.Normalize(raw)
		response.Results = append(response.Results, h.deriver.Derive(raw, canonical, reference))
	}

	c.JSON(http.StatusOK, response)

	// Persistence happens after the response; a full queue drops the batch
	// from storage, never from the reply.
	h.enqueue(response.Results)
}

func (h *Handler) enqueue(records []models.EnrichedRecord) {
	if h.queue == nil || len(records) == 0 {
		return
	}

	if err := h.queue.Push(records); err != nil {
		h.logger.WithFields(logrus.Fields{
			"records": len(records),
		}).WithError(err).Warn("Dropping records from the persistence queue")
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"storage": h.config.Storage.Driver,
	})
}

func (h *Handler) GetListingStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		if errors.Is(err, storage.ErrStatsUnsupported) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats not supported by the configured storage driver"})
			return
		}

		h.logger.WithError(err).Error("Failed to get listing stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func parseReference(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	ref, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
