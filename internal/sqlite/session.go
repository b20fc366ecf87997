package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/repository"
)

var _ session.Repository = (*SessionRepository)(nil)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert opens a session row, reopening it if the id was seen before
func (r *SessionRepository) Upsert(ctx context.Context, sess *session.Session) error {
	meta, err := encodeMeta(sess.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, connected_at, disconnected_at, meta) VALUES (?, ?, NULL, ?)
		ON CONFLICT(id) DO UPDATE SET
			connected_at = excluded.connected_at,
			disconnected_at = NULL,
			meta = excluded.meta
	`
	if _, err := r.db.ExecContext(ctx, query, sess.ID, sess.ConnectedAt.UTC(), meta); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// UpdateMeta replaces a session's metadata
func (r *SessionRepository) UpdateMeta(ctx context.Context, id string, meta map[string]string) error {
	encoded, err := encodeMeta(meta)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET meta = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update session meta: %w", err)
	}
	return requireAffected(result)
}

// Close marks an open session disconnected. Returns repository.ErrNotFound
// if the session is unknown or already closed.
func (r *SessionRepository) Close(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET disconnected_at = ? WHERE id = ? AND disconnected_at IS NULL`,
		at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return requireAffected(result)
}

// CountOpen counts sessions that have not disconnected
func (r *SessionRepository) CountOpen(ctx context.Context) (uint64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE disconnected_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open sessions: %w", err)
	}
	return uint64(count), nil
}

// CloseAllOpen closes every open session and returns how many were closed
func (r *SessionRepository) CloseAllOpen(ctx context.Context, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET disconnected_at = ? WHERE disconnected_at IS NULL`, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to close open sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// ListRecent returns sessions ordered by connection time, newest first
func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]session.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, connected_at, disconnected_at, meta
		FROM sessions
		ORDER BY connected_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var sess session.Session
		var disconnectedAt sql.NullTime
		var meta sql.NullString
		if err := rows.Scan(&sess.ID, &sess.ConnectedAt, &disconnectedAt, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if disconnectedAt.Valid {
			t := disconnectedAt.Time
			sess.DisconnectedAt = &t
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &sess.Meta); err != nil {
				return nil, fmt.Errorf("failed to decode meta for session %s: %w", sess.ID, err)
			}
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

func encodeMeta(meta map[string]string) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode session meta: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
