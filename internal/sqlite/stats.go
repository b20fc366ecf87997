package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
	"github.com/phil-jonesQ/app-ruuner/internal/repository"
)

var _ stats.Repository = (*StatsRepository)(nil)

// StatsRepository implements stats.Repository for SQLite
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// IncrementLaunch adds one to a project's launch counter in a single
// statement and returns the new value.
func (r *StatsRepository) IncrementLaunch(ctx context.Context, projectID string) (uint64, error) {
	query := `
		INSERT INTO launch_counters (project_id, count, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			count = launch_counters.count + 1,
			updated_at = excluded.updated_at
		RETURNING count
	`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, projectID, time.Now().UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment launch counter: %w", err)
	}
	return uint64(count), nil
}

// SetLaunchCount replaces a project's launch counter
func (r *StatsRepository) SetLaunchCount(ctx context.Context, projectID string, count uint64) error {
	query := `
		INSERT INTO launch_counters (project_id, count, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			count = excluded.count,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, projectID, int64(count), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set launch counter: %w", err)
	}
	return nil
}

// AppendRating inserts a rating sample and returns the project's sample count
func (r *StatsRepository) AppendRating(ctx context.Context, projectID string, value float64) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ratings (project_id, value, created_at) VALUES (?, ?, ?)`,
		projectID, value, time.Now().UTC())
	if err != nil {
		if isCheckViolation(err) {
			return 0, fmt.Errorf("%w: rating %v", repository.ErrConstraint, value)
		}
		return 0, fmt.Errorf("failed to insert rating: %w", err)
	}

	var count int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ratings WHERE project_id = ?`, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rating: %w", err)
	}
	return uint64(count), nil
}

// LaunchCounts returns every launch counter keyed by project id
func (r *StatsRepository) LaunchCounts(ctx context.Context) (map[string]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT project_id, count FROM launch_counters`)
	if err != nil {
		return nil, fmt.Errorf("failed to query launch counters: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var id string
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan launch counter: %w", err)
		}
		counts[id] = uint64(count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating launch counters: %w", err)
	}
	return counts, nil
}

// RatingSummaries returns the average and sample count per project
func (r *StatsRepository) RatingSummaries(ctx context.Context) (map[string]stats.RatingSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT project_id, AVG(value), COUNT(*)
		FROM ratings
		GROUP BY project_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	summaries := make(map[string]stats.RatingSummary)
	for rows.Next() {
		var id string
		var avg float64
		var count int64
		if err := rows.Scan(&id, &avg, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating summary: %w", err)
		}
		summaries[id] = stats.RatingSummary{Average: avg, Count: uint64(count)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating summaries: %w", err)
	}
	return summaries, nil
}
