package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"listwise/server/config"
	"listwise/server/internal/features"
	"listwise/server/internal/models"
	"listwise/server/internal/normalizer"
	"listwise/server/internal/queue"
	"listwise/server/internal/storage"
)

func setupTestStore(t *testing.T) storage.Store {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "listings.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func enrichedListing(fingerprint, category string, price int, living float64) models.EnrichedRecord {
	rec := models.EnrichedRecord{
		CanonicalRecord: models.CanonicalRecord{
			ID:               "id-" + fingerprint[:8],
			Platform:         "homegate",
			PropertyCategory: category,
			Price:            price,
			LivingSpace:      living,
			City:             "zurich",
			Canton:           "ZH",
		},
		Fingerprint: fingerprint,
	}
	if price > 0 && living > 0 {
		perSqm := float64(price) / living
		rec.PricePerSqm = &perSqm
	}
	return rec
}

func TestFlushingIntegration(t *testing.T) {
	// Setup
	store := setupTestStore(t)
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxRetries = 3
	cfg.BatchProcessing.QueueSize = 100
	logger := logrus.New()

	// Create components
	recordQueue := queue.NewRecordQueue(cfg.BatchProcessing.QueueSize, logger)
	flusher := NewFlusher(store, recordQueue, cfg, logger)

	// Start flusher
	flusher.Start()

	// Push a batch of records
	batch := []models.EnrichedRecord{
		enrichedListing(fmt.Sprintf("%064x", 1), "apartment", 500000, 100),
		enrichedListing(fmt.Sprintf("%064x", 2), "house", 600000, 120),
	}
	require.NoError(t, recordQueue.Push(batch))

	// Stop drains the queue, so the batch is persisted once it returns
	flusher.Stop()

	// Verify records were stored
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalListings)
	assert.Len(t, stats.Categories, 2)
	for _, cat := range stats.Categories {
		assert.Equal(t, 1, cat.Count)
	}
}

func TestFlushingIntegrationUpsert(t *testing.T) {
	// Setup
	store := setupTestStore(t)
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxRetries = 3
	cfg.BatchProcessing.QueueSize = 10
	logger := logrus.New()

	recordQueue := queue.NewRecordQueue(cfg.BatchProcessing.QueueSize, logger)
	flusher := NewFlusher(store, recordQueue, cfg, logger)
	flusher.Start()

	// Push the same listing twice with a price change in between
	fingerprint := fmt.Sprintf("%064x", 42)
	require.NoError(t, recordQueue.Push([]models.EnrichedRecord{
		enrichedListing(fingerprint, "apartment", 500000, 100),
	}))
	require.NoError(t, recordQueue.Push([]models.EnrichedRecord{
		enrichedListing(fingerprint, "apartment", 550000, 100),
	}))

	flusher.Stop()

	// Verify the second write updated the row instead of duplicating it
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalListings)
	require.Len(t, stats.Categories, 1)
	assert.Equal(t, 550000, stats.Categories[0].MinPrice)
	assert.Equal(t, 550000, stats.Categories[0].MaxPrice)
}

func TestFlushingIntegrationWithConcurrency(t *testing.T) {
	// Setup
	store := setupTestStore(t)
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxRetries = 3
	cfg.BatchProcessing.QueueSize = 50
	logger := logrus.New()

	// Create components
	recordQueue := queue.NewRecordQueue(cfg.BatchProcessing.QueueSize, logger)
	flusher := NewFlusher(store, recordQueue, cfg, logger)

	// Start flusher
	flusher.Start()

	// Create large test dataset
	testBatches := make([][]models.EnrichedRecord, 5)
	for i := range testBatches {
		batch := make([]models.EnrichedRecord, 20)
		for j := range batch {
			batch[j] = enrichedListing(
				fmt.Sprintf("%064x", i*20+j),
				"apartment",
				500000+(i*100000)+(j*1000),
				80+float64(j),
			)
		}
		testBatches[i] = batch
	}

	// Push batches concurrently
	var wg sync.WaitGroup
	for _, batch := range testBatches {
		wg.Add(1)
		go func(records []models.EnrichedRecord) {
			defer wg.Done()
			assert.NoError(t, recordQueue.Push(records))
		}(batch)
	}

	// Wait for all pushes to complete, then drain
	wg.Wait()
	flusher.Stop()

	// Verify all records were stored
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, stats.TotalListings) // 5 batches * 20 records
}

func TestPipelineFromRawRecords(t *testing.T) {
	// Setup
	store := setupTestStore(t)
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxRetries = 3
	logger := logrus.New()

	recordQueue := queue.NewRecordQueue(10, logger)
	flusher := NewFlusher(store, recordQueue, cfg, logger)
	flusher.Start()

	// Run raw crawler records through the whole pipeline
	rawBatch := []models.RawRecord{
		{
			"id":                "obj-1",
			"price":             "CHF 1'250'000",
			"living_space":      "125 m²",
			"property_category": "Eigentumswohnung",
			"property_location": map[string]any{
				"city":   "Zürich",
				"canton": "zh",
			},
		},
		{
			"id":                "obj-2",
			"price":             980000.0,
			"living_space":      140.0,
			"property_category": "Einfamilienhaus",
		},
	}

	deriver := features.NewDeriver(features.KeywordPeriodDetector{})
	enrichedBatch := make([]models.EnrichedRecord, 0, len(rawBatch))
	for _, raw := range rawBatch {
		canonical := normalizer.Normalize(raw)
		enrichedBatch = append(enrichedBatch, deriver.Derive(raw, canonical, nil))
	}

	require.NoError(t, recordQueue.Push(enrichedBatch))
	flusher.Stop()

	// Assert the normalized values survived into the sink
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalListings)
	require.Len(t, stats.Categories, 2)

	byCategory := make(map[string]models.CategoryStats, len(stats.Categories))
	for _, cat := range stats.Categories {
		byCategory[cat.Category] = cat
	}

	apartment, ok := byCategory["apartment"]
	require.True(t, ok)
	assert.Equal(t, 1250000, apartment.MaxPrice)
	assert.InDelta(t, 10000.0, apartment.AvgPricePerSqm, 0.01)

	house, ok := byCategory["house"]
	require.True(t, ok)
	assert.Equal(t, 980000, house.MinPrice)
}

func TestFlushingErrorRecovery(t *testing.T) {
	// Setup with a store that fails twice before accepting the batch
	mockStore := &MockStore{}
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxRetries = 3
	cfg.BatchProcessing.RetryDelay = 0
	logger := logrus.New()

	recordQueue := queue.NewRecordQueue(10, logger)
	flusher := NewFlusher(mockStore, recordQueue, cfg, logger)

	mockStore.On("SaveBatch", mock.Anything, mock.Anything).Return(errors.New("temporary error")).Twice()
	mockStore.On("SaveBatch", mock.Anything, mock.Anything).Return(nil).Once()

	// Start flusher
	flusher.Start()

	// Push test batch
	require.NoError(t, recordQueue.Push(testBatch(1)))

	// Stop returns after the batch has been flushed
	flusher.Stop()

	// Verify the number of attempts
	mockStore.AssertNumberOfCalls(t, "SaveBatch", 3)
	mockStore.AssertExpectations(t)
}
