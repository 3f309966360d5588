package quotecache

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCacheDB(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE quote_cache (
			service TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (service, key)
		)
	`)
	require.NoError(t, err)

	return NewRepository(db)
}

type cachedQuote struct {
	Price    float64
	Currency string
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := setupCacheDB(t)

	require.NoError(t, repo.Store(ServiceQuote, "INFY.NS", cachedQuote{Price: 1500.5, Currency: "INR"}, time.Hour))

	var out cachedQuote
	found, err := repo.GetIfFresh(ServiceQuote, "INFY.NS", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1500.5, out.Price)
	assert.Equal(t, "INR", out.Currency)
}

func TestGetIfFresh_MissingKey(t *testing.T) {
	repo := setupCacheDB(t)

	var out cachedQuote
	found, err := repo.GetIfFresh(ServiceQuote, "NOPE.NS", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetIfFresh_ExpiredEntryIsStale(t *testing.T) {
	repo := setupCacheDB(t)

	require.NoError(t, repo.Store(ServiceQuote, "INFY.NS", cachedQuote{Price: 1400}, -time.Minute))

	var out cachedQuote
	found, err := repo.GetIfFresh(ServiceQuote, "INFY.NS", &out)
	require.NoError(t, err)
	assert.False(t, found, "expired entry must not count as fresh")

	// Get still returns it as a fallback
	found, err = repo.Get(ServiceQuote, "INFY.NS", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1400.0, out.Price)
}

func TestStore_Upserts(t *testing.T) {
	repo := setupCacheDB(t)

	require.NoError(t, repo.Store(ServiceExchangeRate, "USD:INR", 83.0, time.Hour))
	require.NoError(t, repo.Store(ServiceExchangeRate, "USD:INR", 84.5, time.Hour))

	var rate float64
	found, err := repo.GetIfFresh(ServiceExchangeRate, "USD:INR", &rate)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 84.5, rate)
}

func TestServicesAreIsolated(t *testing.T) {
	repo := setupCacheDB(t)

	require.NoError(t, repo.Store(ServiceQuote, "KEY", 1.0, time.Hour))
	require.NoError(t, repo.Store(ServiceExchangeRate, "KEY", 2.0, time.Hour))

	var v float64
	found, err := repo.GetIfFresh(ServiceQuote, "KEY", &v)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1.0, v)

	found, err = repo.GetIfFresh(ServiceExchangeRate, "KEY", &v)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2.0, v)
}

func TestDeleteExpired(t *testing.T) {
	repo := setupCacheDB(t)

	require.NoError(t, repo.Store(ServiceQuote, "FRESH", 1.0, time.Hour))
	require.NoError(t, repo.Store(ServiceQuote, "STALE1", 1.0, -time.Minute))
	require.NoError(t, repo.Store(ServiceHistory, "STALE2", 1.0, -time.Minute))

	deleted, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var v float64
	found, err := repo.GetIfFresh(ServiceQuote, "FRESH", &v)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDelete(t *testing.T) {
	repo := setupCacheDB(t)

	require.NoError(t, repo.Store(ServiceQuote, "KEY", 1.0, time.Hour))
	require.NoError(t, repo.Delete(ServiceQuote, "KEY"))

	var v float64
	found, err := repo.Get(ServiceQuote, "KEY", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
