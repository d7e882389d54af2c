package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/cache"
)

// ResponseCache is a persistent cache.Cache[string] keyed on the full request text.
type ResponseCache struct {
	store *SQLiteStorage
	ttl   time.Duration
}

var _ cache.Cache[string] = (*ResponseCache)(nil)

// ResponseCache returns a cache view with the given entry lifetime.
func (s *SQLiteStorage) ResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &ResponseCache{store: s, ttl: ttl}
}

type cacheRow struct {
	ExpiresAt   time.Time `db:"expires_at"`
	RequestText string    `db:"request_text"`
	Response    string    `db:"response"`
}

// keyHash indexes the request text; lookups still compare the full text.
func keyHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached response for key if it has not expired.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	var row cacheRow
	err := c.store.db.GetContext(ctx, &row,
		`SELECT request_text, response, expires_at FROM response_cache WHERE key_hash = ?`, keyHash(key))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.store.logger.Warn("Response cache read failed", "error", err)
		}
		return "", false
	}

	if row.RequestText != key || !c.store.now().Before(row.ExpiresAt) {
		return "", false
	}
	return row.Response, true
}

// Set stores value under key until the TTL elapses.
func (c *ResponseCache) Set(ctx context.Context, key, value string) {
	now := c.store.now().UTC()
	_, err := c.store.db.ExecContext(ctx,
		`INSERT INTO response_cache (key_hash, request_text, response, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key_hash) DO UPDATE SET
			request_text = excluded.request_text,
			response = excluded.response,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		keyHash(key), key, value, now, now.Add(c.ttl))
	if err != nil {
		c.store.logger.Warn("Response cache write failed", "error", err)
	}
}

// Purge deletes expired cache rows and reports how many were removed.
func (s *SQLiteStorage) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge response cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}
	return n, nil
}

// PurgeAll empties the response cache.
func (s *SQLiteStorage) PurgeAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM response_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear response cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}
	return n, nil
}
