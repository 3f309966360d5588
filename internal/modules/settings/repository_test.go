package settings

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			description TEXT,
			updated_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestGetMissingReturnsNil(t *testing.T) {
	repo := setupRepo(t)

	value, err := repo.Get("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestSetAndGet(t *testing.T) {
	repo := setupRepo(t)

	desc := "report delivery time"
	require.NoError(t, repo.Set(KeyReportTime, "18:30", &desc))

	value, err := repo.Get(KeyReportTime)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "18:30", *value)

	// Overwrite
	require.NoError(t, repo.Set(KeyReportTime, "09:00", nil))
	value, err = repo.Get(KeyReportTime)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "09:00", *value)
}

func TestGetBool(t *testing.T) {
	repo := setupRepo(t)

	tests := []struct {
		name         string
		stored       *string
		defaultValue bool
		want         bool
	}{
		{"missing uses default", nil, true, true},
		{"true", strPtr("true"), false, true},
		{"false", strPtr("false"), true, false},
		{"unparsable uses default", strPtr("yes please"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "bool_" + tt.name
			if tt.stored != nil {
				require.NoError(t, repo.Set(key, *tt.stored, nil))
			}
			got, err := repo.GetBool(key, tt.defaultValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetString(t *testing.T) {
	repo := setupRepo(t)

	got, err := repo.GetString(KeyGotifyURL, "http://fallback")
	require.NoError(t, err)
	assert.Equal(t, "http://fallback", got, "missing key uses default")

	require.NoError(t, repo.Set(KeyGotifyURL, "", nil))
	got, err = repo.GetString(KeyGotifyURL, "http://fallback")
	require.NoError(t, err)
	assert.Equal(t, "http://fallback", got, "empty value uses default")

	require.NoError(t, repo.Set(KeyGotifyURL, "http://gotify.local", nil))
	got, err = repo.GetString(KeyGotifyURL, "http://fallback")
	require.NoError(t, err)
	assert.Equal(t, "http://gotify.local", got)
}

func TestSetBool(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.SetBool(KeyGotifyEnabled, true))
	got, err := repo.GetBool(KeyGotifyEnabled, false)
	require.NoError(t, err)
	assert.True(t, got)
}

func strPtr(s string) *string { return &s }
