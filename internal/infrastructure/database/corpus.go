// Package database provides the Postgres access layer for the historical
// listing corpus the rebuild job aggregates.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/listingguard/risk-engine/internal/domain/errors"
	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// Connect opens a pgx pool against the corpus database and verifies it
// with a ping.
func Connect(ctx context.Context, url string, maxConns int, connMaxLifetime time.Duration, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	if connMaxLifetime > 0 {
		cfg.MaxConnLifetime = connMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewExternalError("postgres", "ping failed").WithCause(err)
	}

	logger.Info("corpus database connected",
		zap.Int32("max_conns", cfg.MaxConns))
	return pool, nil
}

// CorpusRepository reads historical listings for snapshot rebuilds.
type CorpusRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewCorpusRepository(pool *pgxpool.Pool, logger *zap.Logger) *CorpusRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorpusRepository{pool: pool, logger: logger}
}

const corpusQuery = `
SELECT id, title, description, price, currency, condition, publish_date
FROM listings
WHERE price IS NOT NULL
  AND publish_date >= $1
ORDER BY publish_date`

// FetchSince streams the corpus rows published on or after the cutoff.
// Rows with NULL optional fields come through as nil pointers, matching
// the collector contract.
func (r *CorpusRepository) FetchSince(ctx context.Context, cutoff time.Time) ([]listing.ListingRecord, error) {
	rows, err := r.pool.Query(ctx, corpusQuery, cutoff)
	if err != nil {
		return nil, errors.NewExternalError("postgres", "corpus query failed").WithCause(err)
	}
	defer rows.Close()

	var records []listing.ListingRecord
	for rows.Next() {
		var (
			rec         listing.ListingRecord
			price       *float64
			currency    *string
			condition   *string
			publishDate *time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &price, &currency, &condition, &publishDate); err != nil {
			return nil, errors.NewExternalError("postgres", "corpus row scan failed").WithCause(err)
		}
		if price != nil {
			d := decimal.NewFromFloat(*price)
			rec.Price = &d
		}
		if currency != nil {
			rec.Currency = *currency
		}
		rec.Condition = condition
		rec.PublishDate = publishDate
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewExternalError("postgres", "corpus row iteration failed").WithCause(err)
	}

	r.logger.Info("corpus fetched",
		zap.Int("rows", len(records)),
		zap.Time("cutoff", cutoff))
	return records, nil
}
