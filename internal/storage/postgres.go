package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"listwise/server/internal/models"
)

const postgresSchema = `
    CREATE TABLE IF NOT EXISTS listings (
        fingerprint           CHAR(64) PRIMARY KEY,
        listing_id            TEXT NOT NULL DEFAULT '',
        platform              TEXT NOT NULL DEFAULT '',
        sale_type             TEXT NOT NULL DEFAULT '',
        property_category     TEXT NOT NULL DEFAULT 'other',
        price                 BIGINT NOT NULL DEFAULT 0,
        price_per_sqm         DOUBLE PRECISION,
        living_space          DOUBLE PRECISION NOT NULL DEFAULT 0,
        plot_area             DOUBLE PRECISION NOT NULL DEFAULT 0,
        rooms                 DOUBLE PRECISION NOT NULL DEFAULT 0,
        floor                 INTEGER NOT NULL DEFAULT 0,
        build_year            INTEGER NOT NULL DEFAULT 0,
        age                   INTEGER,
        days_since_published  INTEGER,
        has_parking           BOOLEAN NOT NULL DEFAULT FALSE,
        zip                   TEXT NOT NULL DEFAULT '',
        city                  TEXT NOT NULL DEFAULT '',
        canton                TEXT NOT NULL DEFAULT '',
        latitude              DOUBLE PRECISION,
        longitude             DOUBLE PRECISION,
        distance_to_center_km DOUBLE PRECISION,
        title                 TEXT NOT NULL DEFAULT '',
        published_at          TIMESTAMPTZ,
        crawled_at            TIMESTAMPTZ,
        updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(property_category);
    CREATE INDEX IF NOT EXISTS idx_listings_city     ON listings(city);
`

const upsertListing = `
    INSERT INTO listings (
        fingerprint, listing_id, platform, sale_type, property_category,
        price, price_per_sqm, living_space, plot_area, rooms, floor,
        build_year, age, days_since_published, has_parking,
        zip, city, canton, latitude, longitude, distance_to_center_km,
        title, published_at, crawled_at, updated_at
    ) VALUES (
        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
        $16, $17, $18, $19, $20, $21, $22, $23, $24, NOW()
    )
    ON CONFLICT (fingerprint) DO UPDATE SET
        price                = EXCLUDED.price,
        price_per_sqm        = EXCLUDED.price_per_sqm,
        days_since_published = EXCLUDED.days_since_published,
        published_at         = EXCLUDED.published_at,
        crawled_at           = EXCLUDED.crawled_at,
        title                = EXCLUDED.title,
        updated_at           = NOW()
`

// PostgresStore persists enriched records through a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewPostgresStore(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) SaveBatch(ctx context.Context, records []models.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertListing,
			rec.Fingerprint, rec.ID, rec.Platform, rec.SaleType, rec.PropertyCategory,
			rec.Price, rec.PricePerSqm, rec.LivingSpace, rec.PlotArea, rec.Rooms, rec.Floor,
			rec.BuildYear, rec.Age, rec.DaysSincePublished, rec.HasParking,
			rec.Zip, rec.City, rec.Canton, rec.Latitude, rec.Longitude, rec.DistanceToCenterKm,
			rec.Title, rec.PublishedAt, rec.CrawledAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to upsert listing: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch results: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Stats(ctx context.Context) (*models.ListingStats, error) {
	stats := &models.ListingStats{Categories: []models.CategoryStats{}}

	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM listings").Scan(&stats.TotalListings)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	query := `
        WITH priced AS (
            SELECT
                property_category,
                price,
                CASE
                    WHEN living_space > 0 THEN price::FLOAT / living_space
                END AS price_per_sqm
            FROM listings
            WHERE price > 0
        )
        SELECT
            property_category,
            COUNT(*) AS listing_count,
            COALESCE(AVG(price), 0)::FLOAT AS average_price,
            COALESCE(MIN(price), 0) AS min_price,
            COALESCE(MAX(price), 0) AS max_price,
            COALESCE(AVG(price_per_sqm), 0) AS avg_price_per_sqm
        FROM priced
        GROUP BY property_category
        ORDER BY listing_count DESC
    `
	rows, err := s.pool.Query(ctx, query)
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

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
