package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trendsight/trendsight-go/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// QueryRepository persists trend query metadata. Writes are best-effort:
// callers log and continue on failure.
type QueryRepository struct {
	pool DatabasePool
}

// NewQueryRepository creates a new query metadata repository.
func NewQueryRepository(pool DatabasePool) *QueryRepository {
	return &QueryRepository{pool: pool}
}

// Insert records one executed trend query.
func (r *QueryRepository) Insert(ctx context.Context, rec *models.TrendQueryRecord) error {
	query := `
		INSERT INTO trend_queries (keyword, region, window_days, baseline_days, trend_score, cache_hit, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		rec.Keyword, rec.Region, rec.WindowDays, rec.BaselineDays,
		rec.TrendScore, rec.CacheHit, rec.RequestID,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert trend query record: %w", err)
	}
	return nil
}

// Recent returns the latest query records, newest first.
func (r *QueryRepository) Recent(ctx context.Context, limit int) ([]models.TrendQueryRecord, error) {
	query := `
		SELECT id, keyword, region, window_days, baseline_days, trend_score, cache_hit, request_id, created_at
		FROM trend_queries
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend query records: %w", err)
	}
	defer rows.Close()

	var records []models.TrendQueryRecord
	for rows.Next() {
		var rec models.TrendQueryRecord
		if err := rows.Scan(
			&rec.ID, &rec.Keyword, &rec.Region, &rec.WindowDays, &rec.BaselineDays,
			&rec.TrendScore, &rec.CacheHit, &rec.RequestID, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trend query record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trend query records: %w", err)
	}
	return records, nil
}
