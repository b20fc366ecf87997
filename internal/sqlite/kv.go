package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/phil-jonesQ/app-ruuner/internal/repository"
)

// KVRepository stores schema markers in schema_kv
type KVRepository struct {
	db *DB
}

// NewKVRepository creates a new KVRepository
func NewKVRepository(db *DB) *KVRepository {
	return &KVRepository{db: db}
}

// GetValue returns the value stored under key
func (r *KVRepository) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM schema_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// SetValue stores value under key, replacing any previous value
func (r *KVRepository) SetValue(ctx context.Context, key, value string) error {
	if err := setValue(ctx, r.db, key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
