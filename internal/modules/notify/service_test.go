package notify

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/settings"
)

type recordingPusher struct {
	sent []string
	err  error
}

func (p *recordingPusher) Send(serverURL, token, title, message string, priority int) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, message)
	return nil
}

func setupNotifyTest(t *testing.T) (*Service, *recordingPusher, *sql.DB) {
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
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			description TEXT,
			updated_at INTEGER
		);
	`)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	assetRepo := assets.NewRepository(db, log)
	settingsRepo := settings.NewRepository(db, log)
	pusher := &recordingPusher{}

	require.NoError(t, settingsRepo.SetBool(settings.KeyGotifyEnabled, true))
	require.NoError(t, settingsRepo.Set(settings.KeyGotifyURL, "http://gotify.local", nil))
	require.NoError(t, settingsRepo.Set(settings.KeyGotifyToken, "token123", nil))

	return NewService(assetRepo, settingsRepo, pusher, log), pusher, db
}

func insertAsset(t *testing.T, db *sql.DB, name, symbol string, qty, price float64, changePct *float64) {
	t.Helper()
	var pct sql.NullFloat64
	if changePct != nil {
		pct = sql.NullFloat64{Float64: *changePct, Valid: true}
	}
	_, err := db.Exec(`
		INSERT INTO assets (owner, name, asset_type, quantity, unit_price, symbol, daily_change_pct)
		VALUES ('vivek', ?, 'Stock', ?, ?, ?, ?)`,
		name, qty, price, symbol, pct)
	require.NoError(t, err)
}

func pctPtr(v float64) *float64 { return &v }

func TestCheckAndNotify_QuietDayStaysSilent(t *testing.T) {
	svc, pusher, db := setupNotifyTest(t)
	insertAsset(t, db, "Infosys", "INFY.NS", 10, 1500, pctPtr(0.1))
	insertAsset(t, db, "Wipro", "WIPRO.NS", 20, 450, pctPtr(-0.2))

	require.NoError(t, svc.CheckAndNotify())
	assert.Empty(t, pusher.sent)
}

func TestCheckAndNotify_SingleAssetMoverTriggers(t *testing.T) {
	svc, pusher, db := setupNotifyTest(t)
	insertAsset(t, db, "Infosys", "INFY.NS", 10, 1500, pctPtr(0.1))
	insertAsset(t, db, "Natco Pharma", "NATCOPHARM.NS", 50, 900, pctPtr(3.4))

	require.NoError(t, svc.CheckAndNotify())
	require.Len(t, pusher.sent, 1)
	assert.Contains(t, pusher.sent[0], "NATCOPHARM.NS: +3.40%")
}

func TestCheckAndNotify_PortfolioMoveTriggers(t *testing.T) {
	svc, pusher, db := setupNotifyTest(t)
	// Both under the 2% single-asset bar, but the whole book is up ~1%
	insertAsset(t, db, "Infosys", "INFY.NS", 10, 1500, pctPtr(1.0))
	insertAsset(t, db, "Wipro", "WIPRO.NS", 20, 450, pctPtr(1.1))

	require.NoError(t, svc.CheckAndNotify())
	require.Len(t, pusher.sent, 1)
	assert.Contains(t, pusher.sent[0], "Portfolio:")
}

func TestCheckAndNotify_DedupesUnchangedState(t *testing.T) {
	svc, pusher, db := setupNotifyTest(t)
	insertAsset(t, db, "Natco Pharma", "NATCOPHARM.NS", 50, 900, pctPtr(3.4))

	require.NoError(t, svc.CheckAndNotify())
	require.NoError(t, svc.CheckAndNotify())
	assert.Len(t, pusher.sent, 1, "identical state must not be re-sent")

	// State changes: a new alert goes out
	_, err := db.Exec("UPDATE assets SET daily_change_pct = 4.1")
	require.NoError(t, err)
	require.NoError(t, svc.CheckAndNotify())
	assert.Len(t, pusher.sent, 2)
}

func TestCheckAndNotify_DisabledIsNoop(t *testing.T) {
	svc, pusher, db := setupNotifyTest(t)
	insertAsset(t, db, "Natco Pharma", "NATCOPHARM.NS", 50, 900, pctPtr(5.0))

	settingsRepo := settings.NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, settingsRepo.SetBool(settings.KeyGotifyEnabled, false))

	require.NoError(t, svc.CheckAndNotify())
	assert.Empty(t, pusher.sent)
}

func TestEvaluate_UnpricedHoldingsAreUnchanged(t *testing.T) {
	svc, _, db := setupNotifyTest(t)
	insertAsset(t, db, "Unlisted Fund", "", 100, 50, nil)
	insertAsset(t, db, "Infosys", "INFY.NS", 10, 1500, pctPtr(2.5))

	alert, err := svc.Evaluate()
	require.NoError(t, err)

	assert.Equal(t, 100*50+10*1500.0, alert.TotalValue)
	require.Len(t, alert.Movers, 1)
	assert.Equal(t, "INFY.NS", alert.Movers[0].Symbol)
	// Portfolio change only reflects the priced holding
	assert.Greater(t, alert.PortfolioChangePct, 0.0)
	assert.Less(t, alert.PortfolioChangePct, 2.5)
}

func TestAlertTriggered(t *testing.T) {
	assert.False(t, Alert{PortfolioChangePct: 0.3}.Triggered())
	assert.True(t, Alert{PortfolioChangePct: 0.6}.Triggered())
	assert.True(t, Alert{PortfolioChangePct: -0.6}.Triggered())
	assert.True(t, Alert{Movers: []Mover{{}}}.Triggered())
}
