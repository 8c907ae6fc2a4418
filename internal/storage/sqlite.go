package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	_ "github.com/mattn/go-sqlite3"

	"listwise/server/internal/models"
)

// StoredListing is the SQLite row form of an enriched record. Fingerprint is
// the primary key, so re-submitting a listing updates the existing row.
type StoredListing struct {
	Fingerprint        string `gorm:"primaryKey;size:64"`
	ListingID          string `gorm:"column:listing_id;index"`
	Platform           string `gorm:"index"`
	SaleType           string
	PropertyCategory   string `gorm:"index"`
	Price              int
	PricePerSqm        *float64
	LivingSpace        float64
	PlotArea           float64
	Rooms              float64
	Floor              int
	BuildYear          int
	Age                *int
	DaysSincePublished *int
	HasParking         bool
	Zip                string
	City               string `gorm:"index"`
	Canton             string
	Latitude           *float64
	Longitude          *float64
	DistanceToCenterKm *float64
	Title              string
	PublishedAt        *time.Time
	CrawledAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func newStoredListing(rec models.EnrichedRecord) StoredListing {
	return StoredListing{
		Fingerprint:        rec.Fingerprint,
		ListingID:          rec.ID,
		Platform:           rec.Platform,
		SaleType:           rec.SaleType,
		PropertyCategory:   rec.PropertyCategory,
		Price:              rec.Price,
		PricePerSqm:        rec.PricePerSqm,
		LivingSpace:        rec.LivingSpace,
		PlotArea:           rec.PlotArea,
		Rooms:              rec.Rooms,
		Floor:              rec.Floor,
		BuildYear:          rec.BuildYear,
		Age:                rec.Age,
		DaysSincePublished: rec.DaysSincePublished,
		HasParking:         rec.HasParking,
		Zip:                rec.Zip,
		City:               rec.City,
		Canton:             rec.Canton,
		Latitude:           rec.Latitude,
		Longitude:          rec.Longitude,
		DistanceToCenterKm: rec.DistanceToCenterKm,
		Title:              rec.Title,
		PublishedAt:        rec.PublishedAt,
		CrawledAt:          rec.CrawledAt,
	}
}

// SQLiteStore writes through gorm and aggregates through a raw handle on the
// same file. Category stats only consider rows with a positive price.
type SQLiteStore struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	logger *logrus.Logger
}

func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&StoredListing{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats connection: %w", err)
	}
	// Two handles write and read the same file.
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db, sqlDB: sqlDB, logger: logger}, nil
}

func (s *SQLiteStore) SaveBatch(ctx context.Context, records []models.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]StoredListing, len(records))
	for i, rec := range records {
		rows[i] = newStoredListing(rec)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Chunked so large batches stay under the sqlite parameter limit.
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 100).Error
		if err != nil {
			return fmt.Errorf("failed to upsert listings batch: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Stats(ctx context.Context) (*models.ListingStats, error) {
	stats := &models.ListingStats{Categories: []models.CategoryStats{}}

	err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM stored_listings").Scan(&stats.TotalListings)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	query := `
        WITH priced AS (
            SELECT
                property_category,
                price,
                CASE
                    WHEN living_space > 0 THEN CAST(price AS FLOAT) / living_space
                END AS price_per_sqm
            FROM stored_listings
            WHERE price > 0
        )
        SELECT
            property_category,
            COUNT(*) AS listing_count,
            COALESCE(AVG(price), 0) AS average_price,
            COALESCE(MIN(price), 0) AS min_price,
            COALESCE(MAX(price), 0) AS max_price,
            COALESCE(AVG(price_per_sqm), 0) AS avg_price_per_sqm
        FROM priced
        GROUP BY property_category
        ORDER BY listing_count DESC
    `
	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs models.CategoryStats
		err := rows.Scan(
			&cs.Category,
			&cs.Count,
			&cs.AveragePrice,
			&cs.MinPrice,
			&cs.MaxPrice,
			&cs.AvgPricePerSqm,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats.Categories = append(stats.Categories, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}

	return stats, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.sqlDB.Close(); err != nil {
		return err
	}
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
