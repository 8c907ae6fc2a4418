package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"listwise/server/config"
	"listwise/server/internal/models"
)

// ErrStatsUnsupported is returned by sinks that cannot aggregate listings.
var ErrStatsUnsupported = errors.New("stats not supported by this storage driver")

// Store persists enriched records. SaveBatch is called from the background
// flusher, so implementations must be safe for concurrent use.
type Store interface {
	SaveBatch(ctx context.Context, records []models.EnrichedRecord) error
	Stats(ctx context.Context) (*models.ListingStats, error)
	Close() error
}

// NewStore selects a sink from the configured driver name.
func NewStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case "", "none":
		return NoopStore{}, nil
	case "sqlite":
		return NewSQLiteStore(cfg.Storage.SQLitePath, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Storage.PostgresDSN, logger)
	case "jsonl":
		return NewJSONLStore(cfg.Storage.JSONLPath)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// NoopStore drops every batch. Used when persistence is disabled.
type NoopStore struct{}

func (NoopStore) SaveBatch(context.Context, []models.EnrichedRecord) error { return nil }

func (NoopStore) Stats(context.Context) (*models.ListingStats, error) {
	return nil, ErrStatsUnsupported
}

func (NoopStore) Close() error { return nil }
