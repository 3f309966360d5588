// Package exchangerate provides currency exchange rate fetching and caching.
package exchangerate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vivekn/networth/internal/modules/quotecache"
)

// Client for exchangerate-api.com
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *quotecache.Repository
}

// NewClient creates a new exchangerate-api.com client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *quotecache.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.exchangerate-api.com/v4/latest",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "exchangerate-api").Logger(),
		cacheRepo: cacheRepo,
	}
}

// GetRate fetches the fromCurrency -> toCurrency rate with cache.
// If the API fails, returns stale cached data if available.
func (c *Client) GetRate(fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	cacheKey := fromCurrency + ":" + toCurrency

	if c.cacheRepo != nil {
		var rate float64
		found, err := c.cacheRepo.GetIfFresh(quotecache.ServiceExchangeRate, cacheKey, &rate)
		if err == nil && found {
			c.log.Debug().
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", rate).
				Msg("Cache hit")
			return rate, nil
		}
	}

	rate, err := c.fetch(fromCurrency, toCurrency)
	if err != nil {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Err(err).
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", staleRate).
				Msg("API failed, using stale cached rate")
			return staleRate, nil
		}
		return 0, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(quotecache.ServiceExchangeRate, cacheKey, rate, quotecache.TTLExchangeRate); err != nil {
			c.log.Warn().Err(err).Str("pair", cacheKey).Msg("Failed to cache exchange rate")
		}
	}

	c.log.Info().
		Str("from", fromCurrency).
		Str("to", toCurrency).
		Float64("rate", rate).
		Msg("Fetched rate")

	return rate, nil
}

func (c *Client) fetch(fromCurrency, toCurrency string) (float64, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, fromCurrency)

	resp, err := c.client.Get(url)
	if err != nil {
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, exists := result.Rates[toCurrency]
	if !exists {
		return 0, fmt.Errorf("rate not found for %s->%s", fromCurrency, toCurrency)
	}

	return rate, nil
}

// getStaleFromCache retrieves a cached rate even if expired.
func (c *Client) getStaleFromCache(cacheKey string) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}

	var rate float64
	found, err := c.cacheRepo.Get(quotecache.ServiceExchangeRate, cacheKey, &rate)
	if err != nil || !found {
		return 0, false
	}
	return rate, true
}
