package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresViewStateRepository stores view state in the view_states table.
// Expired rows read as not found and are removed by PurgeExpired.
type PostgresViewStateRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresViewStateRepository creates a new instance of PostgresViewStateRepository
func NewPostgresViewStateRepository(db *sql.DB, ttl time.Duration) *PostgresViewStateRepository {
	return &PostgresViewStateRepository{db: db, ttl: ttl}
}

// Load decodes the state stored under key into dst using parameterized queries
func (r *PostgresViewStateRepository) Load(ctx context.Context, key string, dst interface{}) error {
	query := `
		SELECT payload
		FROM view_states
		WHERE key = $1 AND expires_at > NOW()
	`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrViewStateNotFound
		}
		return fmt.Errorf("failed to load view state: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode view state: %w", err)
	}
	return nil
}

// Save upserts value under key and pushes its expiry forward
func (r *PostgresViewStateRepository) Save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view state: %w", err)
	}

	query := `
		INSERT INTO view_states (key, payload, expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, key, payload, time.Now().Add(r.ttl))
	if err != nil {
		return fmt.Errorf("failed to save view state: %w", err)
	}
	return nil
}

// Delete removes the state stored under key
func (r *PostgresViewStateRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM view_states WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete view state: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed
func (r *PostgresViewStateRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM view_states WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge view states: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
