// Package yahoo fetches market quotes from the Yahoo Finance chart API.
package yahoo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/vivekn/networth/internal/modules/quotecache"
)

// Quote is one symbol's current market state plus a trailing daily close
// series for trend calculations. Prices are in the quote currency; pence
// quotes (GBp) are already converted to pounds.
type Quote struct {
	Symbol         string
	Price          float64
	PreviousClose  float64
	Currency       string
	Closes         []float64 // Daily closes, oldest first, up to ~30 entries
	DailyChangePct float64
}

// Client for the Yahoo Finance v8 chart endpoint.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *quotecache.Repository
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *quotecache.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
		client:    &http.Client{Timeout: 5 * time.Second},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
	}
}

// chartResponse mirrors the subset of the chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current quote and one month of daily closes for a
// symbol. Fresh cache entries short-circuit the network call; when the
// API fails, a stale cached quote is returned instead of an error.
func (c *Client) GetQuote(symbol string) (*Quote, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	if c.cacheRepo != nil {
		var cached Quote
		found, err := c.cacheRepo.GetIfFresh(quotecache.ServiceQuote, symbol, &cached)
		if err == nil && found {
			c.log.Debug().Str("symbol", symbol).Float64("price", cached.Price).Msg("Cache hit")
			return &cached, nil
		}
	}

	quote, err := c.fetch(symbol)
	if err != nil {
		if stale, ok := c.getStaleFromCache(symbol); ok {
			c.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Float64("price", stale.Price).
				Msg("API failed, using stale cached quote")
			return stale, nil
		}
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(quotecache.ServiceQuote, symbol, quote, quotecache.TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", quote.Price).
		Str("currency", quote.Currency).
		Msg("Fetched quote")

	return quote, nil
}

func (c *Client) fetch(symbol string) (*Quote, error) {
	reqURL := fmt.Sprintf("%s/%s?range=1mo&interval=1d", c.baseURL, url.PathEscape(symbol))

	resp, err := c.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("quote request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API returned status %d for %s", resp.StatusCode, symbol)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse quote response for %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("quote API error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	result := payload.Chart.Result[0]
	quote := &Quote{
		Symbol:        symbol,
		Price:         result.Meta.RegularMarketPrice,
		PreviousClose: result.Meta.PreviousClose,
		Currency:      result.Meta.Currency,
	}

	if len(result.Indicators.Quote) > 0 {
		for _, close := range result.Indicators.Quote[0].Close {
			if close != nil {
				quote.Closes = append(quote.Closes, *close)
			}
		}
	}

	// London quotes come back in pence
	if quote.Currency == "GBp" {
		quote.Currency = "GBP"
		quote.Price /= 100
		quote.PreviousClose /= 100
		for i := range quote.Closes {
			quote.Closes[i] /= 100
		}
	}

	if quote.Price <= 0 {
		return nil, fmt.Errorf("no usable price for %s", symbol)
	}

	if quote.PreviousClose > 0 {
		quote.DailyChangePct = (quote.Price - quote.PreviousClose) / quote.PreviousClose * 100
	}

	return quote, nil
}

// getStaleFromCache retrieves a cached quote even if expired.
func (c *Client) getStaleFromCache(symbol string) (*Quote, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var cached Quote
	found, err := c.cacheRepo.Get(quotecache.ServiceQuote, symbol, &cached)
	if err != nil || !found {
		return nil, false
	}
	return &cached, true
}
