package report

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/history"
	"github.com/vivekn/networth/internal/modules/settings"
	"github.com/vivekn/networth/internal/modules/transactions"
)

type recordingPusher struct {
	sent []string
}

func (p *recordingPusher) Send(serverURL, token, title, message string, priority int) error {
	p.sent = append(p.sent, message)
	return nil
}

func setupReportTest(t *testing.T) (*Service, *recordingPusher, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE assets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			name TEXT NOT NULL,
			dp_name TEXT,
			asset_type TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'INR',
			quantity REAL NOT NULL,
			unit_price REAL NOT NULL,
			isin TEXT,
			symbol TEXT,
			last_updated INTEGER,
			original_currency TEXT,
			original_unit_price REAL,
			daily_change_pct REAL,
			avg_buy_price REAL,
			price_30d REAL
		);
		CREATE TABLE investment_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			asset_name TEXT NOT NULL,
			symbol TEXT,
			transaction_type TEXT NOT NULL DEFAULT 'BUY',
			quantity_change REAL NOT NULL,
			price_per_unit REAL NOT NULL,
			total_amount REAL NOT NULL,
			owner TEXT NOT NULL
		);
		CREATE TABLE portfolio_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL UNIQUE,
			total_value REAL NOT NULL
		);
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			description TEXT,
			updated_at INTEGER
		);
	`)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	pusher := &recordingPusher{}
	svc := NewService(
		assets.NewRepository(db, log),
		transactions.NewRepository(db, log),
		history.NewRepository(db, log),
		settings.NewRepository(db, log),
		pusher,
		log,
	)
	return svc, pusher, db
}

func enableReporting(t *testing.T, db *sql.DB, reportTime string) *settings.Repository {
	t.Helper()
	repo := settings.NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, repo.SetBool(settings.KeyReportEnabled, true))
	require.NoError(t, repo.Set(settings.KeyReportTime, reportTime, nil))
	require.NoError(t, repo.Set(settings.KeyGotifyURL, "http://gotify.local", nil))
	require.NoError(t, repo.Set(settings.KeyGotifyToken, "token", nil))
	return repo
}

func TestRunIfDue_SendsOncePerDay(t *testing.T) {
	svc, pusher, db := setupReportTest(t)
	enableReporting(t, db, "09:00")

	at := time.Date(2026, 8, 29, 9, 30, 0, 0, time.Local)
	require.NoError(t, svc.RunIfDue(at))
	require.Len(t, pusher.sent, 1)

	// Same day, later minute: already done
	require.NoError(t, svc.RunIfDue(at.Add(time.Hour)))
	assert.Len(t, pusher.sent, 1)

	// Next day it fires again
	require.NoError(t, svc.RunIfDue(at.AddDate(0, 0, 1)))
	assert.Len(t, pusher.sent, 2)
}

func TestRunIfDue_BeforeScheduledTime(t *testing.T) {
	svc, pusher, db := setupReportTest(t)
	enableReporting(t, db, "18:00")

	require.NoError(t, svc.RunIfDue(time.Date(2026, 8, 29, 9, 0, 0, 0, time.Local)))
	assert.Empty(t, pusher.sent)
}

func TestRunIfDue_Disabled(t *testing.T) {
	svc, pusher, _ := setupReportTest(t)

	require.NoError(t, svc.RunIfDue(time.Now()))
	assert.Empty(t, pusher.sent)
}

func TestGenerate_SummarizesHoldingsAndMovers(t *testing.T) {
	svc, _, db := setupReportTest(t)

	insert := func(name, symbol string, qty, price float64, pct interface{}) {
		_, err := db.Exec(`
			INSERT INTO assets (owner, name, asset_type, quantity, unit_price, symbol, daily_change_pct)
			VALUES ('vivek', ?, 'Stock', ?, ?, ?, ?)`, name, qty, price, symbol, pct)
		require.NoError(t, err)
	}
	insert("Infosys", "INFY.NS", 10, 1500, 2.5)
	insert("Wipro", "WIPRO.NS", 20, 450, -3.1)
	insert("Titan", "TITAN.NS", 5, 3200, 0.4)
	insert("Cipla", "CIPLA.NS", 8, 1450, 1.2)
	insert("Unlisted Fund", "", 100, 50, nil)

	msg, err := svc.Generate()
	require.NoError(t, err)

	assert.Contains(t, msg, "Total: ₹")
	assert.Contains(t, msg, "Holdings: 5")
	assert.Contains(t, msg, "Top movers:")
	// Top three by magnitude: WIPRO, INFY, CIPLA; TITAN misses the cut
	assert.Contains(t, msg, "WIPRO.NS -3.10%")
	assert.Contains(t, msg, "INFY.NS +2.50%")
	assert.Contains(t, msg, "CIPLA.NS +1.20%")
	assert.NotContains(t, msg, "TITAN.NS")
}

func TestGenerate_IncludesSeriesStats(t *testing.T) {
	svc, _, db := setupReportTest(t)

	// Rising series: current value sits above its average
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 35; i++ {
		_, err := db.Exec(
			"INSERT INTO portfolio_history (date, total_value) VALUES (?, ?)",
			base.AddDate(0, 0, i).Format("2006-01-02"), 100000+float64(i)*500)
		require.NoError(t, err)
	}

	msg, err := svc.Generate()
	require.NoError(t, err)
	assert.Contains(t, msg, "Trend: above 30-day average")
	assert.Contains(t, msg, "Volatility:")
}

func TestGenerate_IncludesLatestMonthInvestment(t *testing.T) {
	svc, _, db := setupReportTest(t)

	_, err := db.Exec(`
		INSERT INTO investment_transactions
		(date, asset_name, transaction_type, quantity_change, price_per_unit, total_amount, owner)
		VALUES
		('2026-07-15', 'Infosys', 'BUY', 10, 1500, 15000, 'vivek'),
		('2026-08-10', 'Wipro', 'BUY', 20, 450, 9000, 'vivek'),
		('2026-08-20', 'Titan', 'BUY', 2, 3200, 6400, 'anita')`)
	require.NoError(t, err)

	msg, err := svc.Generate()
	require.NoError(t, err)
	assert.Contains(t, msg, "Invested in 2026-08: ₹15400")
}

func TestGenerate_EmptyPortfolio(t *testing.T) {
	svc, _, _ := setupReportTest(t)

	msg, err := svc.Generate()
	require.NoError(t, err)
	assert.Contains(t, msg, "Holdings: 0")
	assert.NotContains(t, msg, "Trend:")
}
