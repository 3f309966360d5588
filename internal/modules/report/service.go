// Package report generates the scheduled daily portfolio summary.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	talib "github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/history"
	"github.com/vivekn/networth/internal/modules/settings"
	"github.com/vivekn/networth/internal/modules/transactions"
)

const (
	trendWindow = 30
	topMovers   = 3
)

// Pusher delivers the report. Same contract as the alert pusher.
type Pusher interface {
	Send(serverURL, token, title, message string, priority int) error
}

// Service builds and delivers the daily summary. The scheduler calls
// RunIfDue every minute; the settings table gates whether and when a
// report actually goes out, and the last-run date prevents double sends
// within a day.
type Service struct {
	assetRepo    *assets.Repository
	txRepo       *transactions.Repository
	historyRepo  *history.Repository
	settingsRepo *settings.Repository
	pusher       Pusher
	log          zerolog.Logger
}

// NewService creates a new report service.
func NewService(
	assetRepo *assets.Repository,
	txRepo *transactions.Repository,
	historyRepo *history.Repository,
	settingsRepo *settings.Repository,
	pusher Pusher,
	log zerolog.Logger,
) *Service {
	return &Service{
		assetRepo:    assetRepo,
		txRepo:       txRepo,
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		pusher:       pusher,
		log:          log.With().Str("service", "report").Logger(),
	}
}

// RunIfDue sends today's report if reporting is enabled, the configured
// time has passed, and no report has gone out today.
func (s *Service) RunIfDue(now time.Time) error {
	enabled, err := s.settingsRepo.GetBool(settings.KeyReportEnabled, false)
	if err != nil {
		return fmt.Errorf("failed to read report settings: %w", err)
	}
	if !enabled {
		return nil
	}

	today := now.Format("2006-01-02")
	lastRun, err := s.settingsRepo.GetString(settings.KeyLastReportRun, "")
	if err != nil {
		return err
	}
	if lastRun == today {
		return nil
	}

	reportTime, err := s.settingsRepo.GetString(settings.KeyReportTime, "09:00")
	if err != nil {
		return err
	}
	if now.Format("15:04") < reportTime {
		return nil
	}

	message, err := s.Generate()
	if err != nil {
		return err
	}

	serverURL, err := s.settingsRepo.GetString(settings.KeyGotifyURL, "")
	if err != nil {
		return err
	}
	token, err := s.settingsRepo.GetString(settings.KeyGotifyToken, "")
	if err != nil {
		return err
	}

	if err := s.pusher.Send(serverURL, token, "Daily Portfolio Report", message, 4); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}

	// Mark done only after a successful send so a failure retries next
	// minute.
	if err := s.settingsRepo.Set(settings.KeyLastReportRun, today, nil); err != nil {
		return err
	}

	s.log.Info().Str("date", today).Msg("Daily report sent")
	return nil
}

// Generate builds the report body from current holdings and the value
// history.
func (s *Service) Generate() (string, error) {
	holdings, err := s.assetRepo.GetAll()
	if err != nil {
		return "", fmt.Errorf("failed to load holdings: %w", err)
	}

	var total, prevTotal float64
	var movers []assets.Holding
	for _, h := range holdings {
		value := h.Quantity * h.UnitPrice
		total += value
		if h.DailyChangePct != nil {
			prevTotal += value / (1 + *h.DailyChangePct/100)
			movers = append(movers, h)
		} else {
			prevTotal += value
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total: ₹%.0f", total)
	if prevTotal > 0 {
		fmt.Fprintf(&b, " (%+.2f%% today)", (total-prevTotal)/prevTotal*100)
	}
	fmt.Fprintf(&b, "\nHoldings: %d", len(holdings))

	sort.Slice(movers, func(i, j int) bool {
		return abs(*movers[i].DailyChangePct) > abs(*movers[j].DailyChangePct)
	})
	if len(movers) > topMovers {
		movers = movers[:topMovers]
	}
	if len(movers) > 0 {
		b.WriteString("\nTop movers:")
		for _, m := range movers {
			label := m.Symbol
			if label == "" {
				label = m.Name
			}
			fmt.Fprintf(&b, "\n  %s %+.2f%%", label, *m.DailyChangePct)
		}
	}

	if trend, vol, ok := s.seriesStats(); ok {
		fmt.Fprintf(&b, "\nTrend: %s %d-day average", trend, trendWindow)
		fmt.Fprintf(&b, "\nVolatility: %.2f%% daily", vol)
	}

	if totals, err := s.txRepo.GetMonthlyBuyTotals(""); err == nil && len(totals) > 0 {
		latest := totals[len(totals)-1]
		fmt.Fprintf(&b, "\nInvested in %s: ₹%.0f", latest.Month, latest.TotalAmount)
	}

	return b.String(), nil
}

// seriesStats derives trend and volatility from the recorded value
// series. Needs at least two points; the trend additionally needs a full
// window.
func (s *Service) seriesStats() (trend string, volatilityPct float64, ok bool) {
	points, err := s.historyRepo.GetRecent(trendWindow + 1)
	if err != nil || len(points) < 2 {
		return "", 0, false
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.TotalValue
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1])
		}
	}
	// Sample standard deviation needs at least two returns
	if len(returns) < 2 {
		return "", 0, false
	}
	volatilityPct = stat.StdDev(returns, nil) * 100

	trend = "near"
	if len(values) >= trendWindow {
		sma := talib.Sma(values, trendWindow)
		avg := sma[len(sma)-1]
		current := values[len(values)-1]
		switch {
		case current > avg*1.001:
			trend = "above"
		case current < avg*0.999:
			trend = "below"
		}
	} else {
		// Not enough history for the full window; compare against the
		// simple mean of what we have.
		avg := stat.Mean(values, nil)
		switch {
		case values[len(values)-1] > avg*1.001:
			trend = "above"
		case values[len(values)-1] < avg*0.999:
			trend = "below"
		}
	}

	return trend, volatilityPct, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
