package exchangerate

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivekn/networth/internal/modules/quotecache"
)

func testCacheRepo(t *testing.T) *quotecache.Repository {
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

	return quotecache.NewRepository(db)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cache *quotecache.Repository) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(cache, zerolog.New(nil).Level(zerolog.Disabled))
	client.baseURL = server.URL
	return client
}

func TestGetRate_SameCurrency(t *testing.T) {
	client := NewClient(nil, zerolog.New(nil).Level(zerolog.Disabled))
	rate, err := client.GetRate("INR", "INR")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestGetRate_FetchesFromAPI(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "USD")
		w.Write([]byte(`{"rates": {"INR": 83.25, "EUR": 0.92}}`))
	}, nil)

	rate, err := client.GetRate("USD", "INR")
	require.NoError(t, err)
	assert.Equal(t, 83.25, rate)
}

func TestGetRate_MissingTargetCurrency(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates": {"EUR": 0.92}}`))
	}, nil)

	_, err := client.GetRate("USD", "XYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate not found")
}

func TestGetRate_CacheHitSkipsNetwork(t *testing.T) {
	cache := testCacheRepo(t)
	require.NoError(t, cache.Store(quotecache.ServiceExchangeRate, "USD:INR", 83.0, time.Hour))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("network should not be hit on a fresh cache entry")
	}, cache)

	rate, err := client.GetRate("USD", "INR")
	require.NoError(t, err)
	assert.Equal(t, 83.0, rate)
}

func TestGetRate_StaleFallbackOnAPIFailure(t *testing.T) {
	cache := testCacheRepo(t)
	require.NoError(t, cache.Store(quotecache.ServiceExchangeRate, "GBP:INR", 105.5, -time.Minute))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, cache)

	rate, err := client.GetRate("GBP", "INR")
	require.NoError(t, err)
	assert.Equal(t, 105.5, rate)
}

func TestGetRate_ErrorWithoutFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	_, err := client.GetRate("GBP", "INR")
	require.Error(t, err)
}
