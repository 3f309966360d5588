// Package refresher updates stored holdings with live market prices.
package refresher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vivekn/networth/internal/clients/yahoo"
	"github.com/vivekn/networth/internal/modules/assets"
)

// QuoteSource provides market quotes. Satisfied by the Yahoo client.
type QuoteSource interface {
	GetQuote(symbol string) (*yahoo.Quote, error)
}

// RateSource provides currency conversion rates.
type RateSource interface {
	GetRate(fromCurrency, toCurrency string) (float64, error)
}

// Stats summarizes one refresh run.
type Stats struct {
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Service refreshes holding prices from the quote source, converting
// foreign quotes to INR. Each holding fails independently: a bad symbol
// gets its freshness timestamp cleared and the run continues.
type Service struct {
	assetRepo *assets.Repository
	quotes    QuoteSource
	rates     RateSource
	log       zerolog.Logger
}

// NewService creates a new price refresh service.
func NewService(assetRepo *assets.Repository, quotes QuoteSource, rates RateSource, log zerolog.Logger) *Service {
	return &Service{
		assetRepo: assetRepo,
		quotes:    quotes,
		rates:     rates,
		log:       log.With().Str("service", "refresher").Logger(),
	}
}

// RefreshAll updates every holding that has a symbol. Returns an error
// only when the holdings can't be listed; individual quote failures are
// counted in Stats.Failed.
func (s *Service) RefreshAll(ctx context.Context) (Stats, error) {
	holdings, err := s.assetRepo.GetWithSymbols()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list holdings for refresh: %w", err)
	}

	var stats Stats
	for _, h := range holdings {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if err := s.refreshOne(h); err != nil {
			stats.Failed++
			s.log.Warn().
				Err(err).
				Str("symbol", h.Symbol).
				Str("name", h.Name).
				Msg("Price refresh failed")

			// Make the staleness visible instead of keeping a
			// misleading timestamp.
			if clearErr := s.assetRepo.ClearLastUpdated(h.ID); clearErr != nil {
				s.log.Error().Err(clearErr).Int64("id", h.ID).Msg("Failed to clear freshness timestamp")
			}
			continue
		}
		stats.Refreshed++
	}

	s.log.Info().
		Int("refreshed", stats.Refreshed).
		Int("failed", stats.Failed).
		Msg("Price refresh completed")

	return stats, nil
}

func (s *Service) refreshOne(h assets.Holding) error {
	quote, err := s.quotes.GetQuote(h.Symbol)
	if err != nil {
		return err
	}

	priceINR := quote.Price
	if quote.Currency != "" && quote.Currency != "INR" {
		rate, err := s.rates.GetRate(quote.Currency, "INR")
		if err != nil {
			return fmt.Errorf("conversion %s->INR failed: %w", quote.Currency, err)
		}
		priceINR = quote.Price * rate
	}

	upd := assets.PriceUpdate{
		UnitPrice:         priceINR,
		OriginalUnitPrice: quote.Price,
		OriginalCurrency:  quote.Currency,
	}
	if quote.PreviousClose > 0 {
		pct := quote.DailyChangePct
		upd.DailyChangePct = &pct
	}
	if len(quote.Closes) > 0 {
		oldest := quote.Closes[0]
		upd.Price30D = &oldest
	}

	return s.assetRepo.UpdatePrice(h.ID, upd)
}
