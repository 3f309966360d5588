package importer

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vivekn/networth/internal/database"
	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/transactions"
)

// Backuper takes a best-effort copy of the persisted store before a
// destructive operation. Failure is logged, never fatal.
type Backuper interface {
	Backup() (string, error)
}

// Service runs the import pipeline end to end.
type Service struct {
	db        *sql.DB
	assetRepo *assets.Repository
	txRepo    *transactions.Repository
	backup    Backuper
	log       zerolog.Logger
}

// NewService creates a new import service. backup may be nil.
func NewService(
	db *sql.DB,
	assetRepo *assets.Repository,
	txRepo *transactions.Repository,
	backup Backuper,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:        db,
		assetRepo: assetRepo,
		txRepo:    txRepo,
		backup:    backup,
		log:       log.With().Str("service", "importer").Logger(),
	}
}

// Import ingests one snapshot document for an owner.
//
// The owner's stored holdings are fully replaced by the snapshot's
// aggregated holdings, and a BUY transaction is recorded for every net
// quantity increase versus the prior state. The replace and the
// transaction inserts happen in one database transaction: a failure
// rolls everything back and is returned to the caller.
//
// Top-level JSON parse failures and persistence failures are the only
// fatal outcomes. Malformed individual items degrade to dropped items;
// symbol resolution misses degrade to an unset symbol.
func (s *Service) Import(raw []byte, owner string, autoResolve bool) (Result, error) {
	if owner == "" {
		return Result{}, fmt.Errorf("owner is required")
	}

	// Best-effort backup before touching the store.
	if s.backup != nil {
		if id, err := s.backup.Backup(); err != nil {
			s.log.Warn().Err(err).Msg("Backup failed, proceeding with import")
		} else {
			s.log.Info().Str("backup", id).Msg("Backup created")
		}
	}

	items, err := Normalize(raw)
	if err != nil {
		return Result{}, err
	}

	agg := Aggregate(items)

	var result Result
	now := time.Now()
	today := now.Format("2006-01-02")
	nowUnix := now.Unix()

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		// Fetch prior state before deletion so the diff still works.
		existing, err := s.assetRepo.GetByOwnerTx(tx, owner)
		if err != nil {
			return err
		}
		prior := BuildPriorState(existing)

		deleted, err := s.assetRepo.DeleteByOwnerTx(tx, owner)
		if err != nil {
			return err
		}
		s.log.Debug().Str("owner", owner).Int64("deleted", deleted).Msg("Cleared existing holdings")

		for _, key := range sortedKeys(agg) {
			entry := agg[key]
			unitPrice := entry.UnitPrice()

			prevQty, prevSymbol := prior.Lookup(entry)

			// Symbol continuity: a previously known symbol always wins
			// over the resolver's guess.
			symbol := prevSymbol
			if symbol == "" && autoResolve {
				symbol = ResolveSymbol(entry)
			}
			entry.Symbol = symbol

			delta := QuantityDelta(entry.Quantity, prevQty)
			if ShouldRecordBuy(delta) {
				if err := s.txRepo.InsertTx(tx, transactions.Transaction{
					Date:           today,
					AssetName:      entry.Name,
					Symbol:         symbol,
					Type:           transactions.TypeBuy,
					QuantityChange: delta,
					PricePerUnit:   unitPrice,
					TotalAmount:    delta * unitPrice,
					Owner:          owner,
				}); err != nil {
					return err
				}
				result.Transactions++
			}

			lastUpdated := nowUnix
			if err := s.assetRepo.InsertTx(tx, assets.Holding{
				Owner:       owner,
				Name:        entry.Name,
				DPName:      entry.SubAccount,
				AssetType:   entry.AssetType,
				Currency:    "INR",
				Quantity:    entry.Quantity,
				UnitPrice:   unitPrice,
				ISIN:        entry.ISIN,
				Symbol:      symbol,
				LastUpdated: &lastUpdated,
			}); err != nil {
				return err
			}
			result.Assets++
		}

		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner).Msg("Import failed, rolled back")
		return Result{}, err
	}

	result.Message = fmt.Sprintf("Assets (Aggregated): %d, Transactions Logged: %d",
		result.Assets, result.Transactions)

	s.log.Info().
		Str("owner", owner).
		Int("assets", result.Assets).
		Int("transactions", result.Transactions).
		Msg("Import completed")

	return result, nil
}
