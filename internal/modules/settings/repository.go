// Package settings provides the repository for runtime application settings.
// Settings are key-value pairs stored in the database (report schedule,
// notification endpoints) and take precedence over environment variables,
// so they can be changed without restarting the process.
package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Well-known setting keys.
const (
	KeyReportEnabled = "report_enabled"
	KeyReportTime    = "report_time"     // HH:MM, local time
	KeyLastReportRun = "last_report_run" // YYYY-MM-DD
	KeyGotifyURL     = "gotify_url"
	KeyGotifyToken   = "gotify_token"
	KeyGotifyEnabled = "gotify_enabled"
)

// Repository handles settings database operations.
// Settings are stored as strings and converted to appropriate types
// (int, float, bool) when retrieved.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// Set sets a setting value.
// Uses INSERT OR REPLACE to handle both insert and update in a single operation.
func (r *Repository) Set(key string, value string, description *string) error {
	now := time.Now().Unix()

	var desc sql.NullString
	if description != nil {
		desc = sql.NullString{String: *description, Valid: true}
	}

	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO settings (key, value, description, updated_at) VALUES (?, ?, ?, ?)",
		key, value, desc, now,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	r.log.Debug().Str("key", key).Msg("Setting updated")
	return nil
}

// GetBool retrieves a setting as a boolean, with a default for missing
// or unparsable values.
func (r *Repository) GetBool(key string, defaultValue bool) (bool, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(*value)
	if err != nil {
		return defaultValue, nil
	}
	return parsed, nil
}

// GetString retrieves a setting with a default for missing values.
func (r *Repository) GetString(key string, defaultValue string) (string, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil || *value == "" {
		return defaultValue, nil
	}
	return *value, nil
}

// SetBool sets a boolean setting.
func (r *Repository) SetBool(key string, value bool) error {
	return r.Set(key, strconv.FormatBool(value), nil)
}
