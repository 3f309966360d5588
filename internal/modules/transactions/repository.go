package transactions

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles transaction log database operations.
// Inserts only happen inside the import transaction; rows are never
// updated or deleted afterwards.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "transactions").Logger(),
	}
}

// InsertTx appends one transaction inside an existing transaction.
func (r *Repository) InsertTx(tx *sql.Tx, t Transaction) error {
	if t.Type == "" {
		t.Type = TypeBuy
	}

	var symbol sql.NullString
	if t.Symbol != "" {
		symbol = sql.NullString{String: t.Symbol, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO investment_transactions
		(date, asset_name, symbol, transaction_type, quantity_change,
		 price_per_unit, total_amount, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date,
		t.AssetName,
		symbol,
		t.Type,
		t.QuantityChange,
		t.PricePerUnit,
		t.TotalAmount,
		t.Owner,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction for %s: %w", t.AssetName, err)
	}
	return nil
}

// GetAll returns all transactions, newest first
func (r *Repository) GetAll() ([]Transaction, error) {
	return r.query(`SELECT id, date, asset_name, symbol, transaction_type,
		quantity_change, price_per_unit, total_amount, owner
		FROM investment_transactions ORDER BY date DESC, id DESC`, nil)
}

// GetByOwner returns all transactions for one owner, newest first
func (r *Repository) GetByOwner(owner string) ([]Transaction, error) {
	return r.query(`SELECT id, date, asset_name, symbol, transaction_type,
		quantity_change, price_per_unit, total_amount, owner
		FROM investment_transactions WHERE owner = ? ORDER BY date DESC, id DESC`,
		[]interface{}{owner})
}

// CountByOwner returns the number of transactions recorded for an owner
func (r *Repository) CountByOwner(owner string) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM investment_transactions WHERE owner = ?", owner,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions for owner %s: %w", owner, err)
	}
	return count, nil
}

// GetMonthlyBuyTotals returns the invested amount per calendar month,
// oldest first. Only BUY entries count.
func (r *Repository) GetMonthlyBuyTotals(owner string) ([]MonthlyTotal, error) {
	query := `SELECT substr(date, 1, 7) AS month, SUM(total_amount)
		FROM investment_transactions
		WHERE transaction_type = 'BUY'`
	args := []interface{}{}
	if owner != "" {
		query += " AND owner = ?"
		args = append(args, owner)
	}
	query += " GROUP BY month ORDER BY month"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	var totals []MonthlyTotal
	for rows.Next() {
		var mt MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		totals = append(totals, mt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly totals: %w", err)
	}

	return totals, nil
}

func (r *Repository) query(q string, args []interface{}) ([]Transaction, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		var t Transaction
		var symbol sql.NullString
		err := rows.Scan(
			&t.ID,
			&t.Date,
			&t.AssetName,
			&symbol,
			&t.Type,
			&t.QuantityChange,
			&t.PricePerUnit,
			&t.TotalAmount,
			&t.Owner,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Symbol = symbol.String
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return result, nil
}
