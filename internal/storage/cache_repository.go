package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrCacheMiss is returned by CacheRepository.Load when the key holds no value.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository is a key/value table holding serialized snapshots for offline use.
type CacheRepository struct {
	BaseRepository
}

// NewCacheRepository creates a new cache repository.
func NewCacheRepository(db *DB) *CacheRepository {
	return &CacheRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Load returns the value stored under key, or ErrCacheMiss.
func (r *CacheRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.DB().QueryRowContext(ctx, "SELECT value FROM cache_entries WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("loading cache entry %s: %w", key, err)
	}
	return value, nil
}

// Save stores value under key, replacing any previous value.
func (r *CacheRepository) Save(ctx context.Context, key string, value []byte) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, r.Now())
	if err != nil {
		return fmt.Errorf("saving cache entry %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.DB().ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes every key starting with prefix. An empty prefix clears the table.
func (r *CacheRepository) Clear(ctx context.Context, prefix string) error {
	_, err := r.DB().ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return fmt.Errorf("clearing cache entries: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
