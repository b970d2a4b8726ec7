package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// KVRepository implements port.KVStore on the kv_records table.
// A zero ttl keeps records until deleted.
type KVRepository struct {
	db     *sql.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewKVRepository creates a new key/value repository
func NewKVRepository(db *sql.DB, ttl time.Duration, logger *zap.Logger) *KVRepository {
	return &KVRepository{
		db:     db,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the stored value, or nil when the key is missing or expired
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt sql.NullTime
	)
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv_records WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to read kv record", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read kv record: %w", err)
	}

	if expiresAt.Valid && !r.now().Before(expiresAt.Time) {
		if err := r.Delete(ctx, key); err != nil {
			r.logger.Warn("Failed to purge expired kv record", zap.String("key", key), zap.Error(err))
		}
		return nil, nil
	}
	return value, nil
}

// Put stores value under key, replacing any previous value
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	now := r.now().UTC()
	var expiresAt interface{}
	if r.ttl > 0 {
		expiresAt = now.Add(r.ttl)
	}

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO kv_records (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, value, expiresAt, now)
	if err != nil {
		r.logger.Error("Failed to write kv record", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write kv record: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM kv_records WHERE key = ?`, key); err != nil {
		r.logger.Error("Failed to delete kv record", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete kv record: %w", err)
	}
	return nil
}

var _ port.KVStore = (*KVRepository)(nil)
