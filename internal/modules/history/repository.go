// Package history stores the daily portfolio value time series.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Point is one recorded portfolio value for one day.
type Point struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	TotalValue float64 `json:"total_value"`
}

// Repository handles portfolio history database operations.
// One row per calendar day; recording again on the same day overwrites.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// Record upserts today's portfolio value.
func (r *Repository) Record(totalValue float64) error {
	return r.RecordOn(time.Now(), totalValue)
}

// RecordOn upserts the portfolio value for a specific day.
func (r *Repository) RecordOn(day time.Time, totalValue float64) error {
	date := day.Format("2006-01-02")
	_, err := r.db.Exec(`
		INSERT INTO portfolio_history (date, total_value) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET total_value = excluded.total_value`,
		date, totalValue,
	)
	if err != nil {
		return fmt.Errorf("failed to record portfolio value for %s: %w", date, err)
	}

	r.log.Debug().Str("date", date).Float64("total_value", totalValue).Msg("Portfolio value recorded")
	return nil
}

// GetAll returns the full series, oldest first
func (r *Repository) GetAll() ([]Point, error) {
	return r.query("SELECT date, total_value FROM portfolio_history ORDER BY date")
}

// GetRecent returns the most recent n points, oldest first
func (r *Repository) GetRecent(n int) ([]Point, error) {
	points, err := r.query(fmt.Sprintf(
		"SELECT date, total_value FROM (SELECT date, total_value FROM portfolio_history ORDER BY date DESC LIMIT %d) ORDER BY date", n))
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (r *Repository) query(q string) ([]Point, error) {
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio history: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Date, &p.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan history point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history points: %w", err)
	}

	return points, nil
}
