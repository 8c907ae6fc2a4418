package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"listwise/server/config"
	"listwise/server/internal/models"
	"listwise/server/internal/queue"
	"listwise/server/internal/storage"
)

// Flusher moves enriched-record batches from the queue into the configured
// store, retrying failed batches before giving up.
type Flusher struct {
	store  storage.Store
	logger *logrus.Logger
	config *config.Config
	queue  *queue.RecordQueue
	ctx    context.Context
	cancel context.CancelFunc
}

// NewFlusher creates a new flusher instance.
func NewFlusher(store storage.Store, queue *queue.RecordQueue, config *config.Config, logger *logrus.Logger) *Flusher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Flusher{
		store:  store,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the flusher to the queue and begins dispatching.
func (f *Flusher) Start() {
	f.queue.Subscribe(f.flushBatch)
	f.queue.Start()
}

// Stop closes the queue, which flushes every batch accepted before the
// close, then cancels in-flight store operations.
func (f *Flusher) Stop() {
	f.queue.Close()
	f.cancel()
}

// flushBatch persists a single batch with retry logic.
func (f *Flusher) flushBatch(batch []models.EnrichedRecord) error {
	var err error
	for attempt := 0; attempt <= f.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Infof("Retrying batch flush, attempt %d of %d", attempt, f.config.BatchProcessing.MaxRetries)
			select {
			case <-f.ctx.Done():
				return f.ctx.Err()
			case <-time.After(time.Duration(f.config.BatchProcessing.RetryDelay) * time.Second):
			}
		}

		err = f.store.SaveBatch(f.ctx, batch)
		if err == nil {
			f.logger.Infof("Successfully flushed batch of %d records", len(batch))
			return nil
		}

		f.logger.Errorf("Batch flush failed: %v", err)
	}

	return fmt.Errorf("failed to flush batch after %d attempts: %w", f.config.BatchProcessing.MaxRetries, err)
}
