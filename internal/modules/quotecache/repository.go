// Package quotecache provides persistent caching for external API client
// responses. Values are stored as msgpack blobs with expiration timestamps
// for cache-first behavior.
package quotecache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache TTLs per service. Quotes go stale within the refresh interval;
// exchange rates move slowly enough for a day.
const (
	TTLQuote        = 30 * time.Minute
	TTLExchangeRate = 24 * time.Hour
	TTLHistory      = 6 * time.Hour
)

// Service namespaces within the cache table.
const (
	ServiceQuote        = "quote"
	ServiceExchangeRate = "exchangerate"
	ServiceHistory      = "history"
)

// Repository provides cache operations over the quote_cache table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new quote cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Store saves a value with expiration = now + ttl, upserting on
// (service, key).
func (r *Repository) Store(service, key string, value interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO quote_cache (service, key, value, expires_at) VALUES (?, ?, ?, ?)",
		service, key, blob, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s/%s: %w", service, key, err)
	}
	return nil
}

// GetIfFresh decodes the value into out only if it has not expired.
// Returns false if the key is missing or stale. Use Get to read stale
// entries as a fallback when the upstream API fails.
func (r *Repository) GetIfFresh(service, key string, out interface{}) (bool, error) {
	return r.get(service, key, out, true)
}

// Get decodes the value into out regardless of expiration. Stale data is
// better than no data when the upstream is down.
func (r *Repository) Get(service, key string, out interface{}) (bool, error) {
	return r.get(service, key, out, false)
}

func (r *Repository) get(service, key string, out interface{}, freshOnly bool) (bool, error) {
	query := "SELECT value FROM quote_cache WHERE service = ? AND key = ?"
	args := []interface{}{service, key}
	if freshOnly {
		query += " AND expires_at > ?"
		args = append(args, time.Now().Unix())
	}

	var blob []byte
	err := r.db.QueryRow(query, args...).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s/%s: %w", service, key, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry %s/%s: %w", service, key, err)
	}
	return true, nil
}

// Delete removes one entry.
func (r *Repository) Delete(service, key string) error {
	if _, err := r.db.Exec("DELETE FROM quote_cache WHERE service = ? AND key = ?", service, key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s/%s: %w", service, key, err)
	}
	return nil
}

// DeleteExpired removes all stale rows across services. Returns the
// number of rows deleted. Run periodically by the scheduler.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM quote_cache WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}
