package assets

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles asset database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new asset repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "assets").Logger(),
	}
}

const holdingColumns = `id, owner, name, dp_name, asset_type, currency, quantity,
	unit_price, isin, symbol, last_updated, original_currency,
	original_unit_price, daily_change_pct, avg_buy_price, price_30d`

// GetAll returns all holdings across every owner
func (r *Repository) GetAll() ([]Holding, error) {
	return r.query("SELECT "+holdingColumns+" FROM assets ORDER BY owner, name", nil)
}

// GetByOwner returns all holdings for one owner
func (r *Repository) GetByOwner(owner string) ([]Holding, error) {
	return r.query("SELECT "+holdingColumns+" FROM assets WHERE owner = ? ORDER BY name", []interface{}{owner})
}

// GetByOwnerTx is GetByOwner inside an existing transaction. The import
// pipeline reads prior state and replaces it in one atomic unit of work.
func (r *Repository) GetByOwnerTx(tx *sql.Tx, owner string) ([]Holding, error) {
	rows, err := tx.Query("SELECT "+holdingColumns+" FROM assets WHERE owner = ?", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for owner %s: %w", owner, err)
	}
	return scanHoldings(rows)
}

// GetWithSymbols returns every holding with a non-empty symbol, across owners.
// Used by the price refresher.
func (r *Repository) GetWithSymbols() ([]Holding, error) {
	return r.query("SELECT "+holdingColumns+" FROM assets WHERE symbol IS NOT NULL AND symbol != ''", nil)
}

// GetMissingSymbols returns holdings without a symbol but with an ISIN.
// Used by the remote symbol resolution pass.
func (r *Repository) GetMissingSymbols() ([]Holding, error) {
	return r.query(`SELECT `+holdingColumns+` FROM assets
		WHERE (symbol IS NULL OR symbol = '') AND isin IS NOT NULL AND isin != ''`, nil)
}

// DeleteByOwnerTx removes all holdings for an owner inside a transaction.
// Returns the number of rows removed.
func (r *Repository) DeleteByOwnerTx(tx *sql.Tx, owner string) (int64, error) {
	result, err := tx.Exec("DELETE FROM assets WHERE owner = ?", owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete holdings for owner %s: %w", owner, err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// InsertTx inserts one holding inside a transaction.
func (r *Repository) InsertTx(tx *sql.Tx, h Holding) error {
	if h.Currency == "" {
		h.Currency = "INR"
	}

	var lastUpdated sql.NullInt64
	if h.LastUpdated != nil {
		lastUpdated = sql.NullInt64{Int64: *h.LastUpdated, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO assets
		(owner, name, dp_name, asset_type, currency, quantity, unit_price,
		 isin, symbol, last_updated, original_currency, original_unit_price,
		 daily_change_pct, avg_buy_price, price_30d)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Owner,
		h.Name,
		nullString(h.DPName),
		h.AssetType,
		h.Currency,
		h.Quantity,
		h.UnitPrice,
		nullString(h.ISIN),
		nullString(h.Symbol),
		lastUpdated,
		nullString(h.OriginalCurrency),
		nullFloat64(h.OriginalUnitPrice),
		nullFloat64Ptr(h.DailyChangePct),
		nullFloat64Ptr(h.AvgBuyPrice),
		nullFloat64Ptr(h.Price30D),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding %s: %w", h.Name, err)
	}
	return nil
}

// UpdatePrice applies one quote refresh result to a holding.
// Only price fields are touched; the import pipeline owns everything else.
func (r *Repository) UpdatePrice(id int64, upd PriceUpdate) error {
	now := time.Now().Unix()

	_, err := r.db.Exec(`
		UPDATE assets SET
			unit_price = ?,
			original_unit_price = ?,
			original_currency = ?,
			daily_change_pct = ?,
			price_30d = COALESCE(?, price_30d),
			last_updated = ?
		WHERE id = ?`,
		upd.UnitPrice,
		nullFloat64(upd.OriginalUnitPrice),
		nullString(upd.OriginalCurrency),
		nullFloat64Ptr(upd.DailyChangePct),
		nullFloat64Ptr(upd.Price30D),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update price for asset %d: %w", id, err)
	}
	return nil
}

// ClearLastUpdated blanks the refresh timestamp after a failed quote fetch,
// so stale prices are visible as stale.
func (r *Repository) ClearLastUpdated(id int64) error {
	if _, err := r.db.Exec("UPDATE assets SET last_updated = NULL WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to clear last_updated for asset %d: %w", id, err)
	}
	return nil
}

// UpdateSymbol sets the symbol on one holding (remote resolution pass).
func (r *Repository) UpdateSymbol(id int64, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if _, err := r.db.Exec("UPDATE assets SET symbol = ? WHERE id = ?", symbol, id); err != nil {
		return fmt.Errorf("failed to update symbol for asset %d: %w", id, err)
	}
	return nil
}

// GetTotalValue returns the total portfolio value across all owners in INR
func (r *Repository) GetTotalValue() (float64, error) {
	var total float64
	err := r.db.QueryRow("SELECT COALESCE(SUM(quantity * unit_price), 0) FROM assets").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to get total value: %w", err)
	}
	return total, nil
}

// GetCount returns the total number of holdings
func (r *Repository) GetCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM assets").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get asset count: %w", err)
	}
	return count, nil
}

func (r *Repository) query(q string, args []interface{}) ([]Holding, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	return scanHoldings(rows)
}

func scanHoldings(rows *sql.Rows) ([]Holding, error) {
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var h Holding
		var dpName, isin, symbol, origCurrency sql.NullString
		var lastUpdated sql.NullInt64
		var origPrice, dailyChange, avgBuy, price30d sql.NullFloat64

		err := rows.Scan(
			&h.ID,
			&h.Owner,
			&h.Name,
			&dpName,
			&h.AssetType,
			&h.Currency,
			&h.Quantity,
			&h.UnitPrice,
			&isin,
			&symbol,
			&lastUpdated,
			&origCurrency,
			&origPrice,
			&dailyChange,
			&avgBuy,
			&price30d,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		h.DPName = dpName.String
		h.ISIN = strings.TrimSpace(isin.String)
		h.Symbol = strings.TrimSpace(symbol.String)
		h.OriginalCurrency = origCurrency.String
		if lastUpdated.Valid {
			h.LastUpdated = &lastUpdated.Int64
		}
		if origPrice.Valid {
			h.OriginalUnitPrice = origPrice.Float64
		}
		if dailyChange.Valid {
			h.DailyChangePct = &dailyChange.Float64
		}
		if avgBuy.Valid {
			h.AvgBuyPrice = &avgBuy.Float64
		}
		if price30d.Valid {
			h.Price30D = &price30d.Float64
		}

		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// Helper functions for nullable types

func nullFloat64(val float64) sql.NullFloat64 {
	if val == 0 {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: val, Valid: true}
}

func nullFloat64Ptr(val *float64) sql.NullFloat64 {
	if val == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *val, Valid: true}
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: val, Valid: true}
}
