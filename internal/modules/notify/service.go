package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/settings"
)

// Alert thresholds, in percent. The portfolio threshold is deliberately
// tighter than the single-asset one: a broad move matters at a smaller
// magnitude than one stock jumping around.
const (
	portfolioAlertPct = 0.5
	assetAlertPct     = 2.0
)

// Pusher delivers a notification. Satisfied by GotifyClient via SendTo.
type Pusher interface {
	Send(serverURL, token, title, message string, priority int) error
}

// Mover is one holding whose daily move crossed the asset threshold.
type Mover struct {
	Name      string
	Symbol    string
	ChangePct float64
}

// Alert is the evaluated movement state for one check.
type Alert struct {
	TotalValue         float64
	PortfolioChangePct float64
	Movers             []Mover
}

// Triggered reports whether this state warrants a notification.
func (a Alert) Triggered() bool {
	if a.PortfolioChangePct >= portfolioAlertPct || a.PortfolioChangePct <= -portfolioAlertPct {
		return true
	}
	return len(a.Movers) > 0
}

// Service evaluates daily movement after each price refresh and pushes
// an alert when thresholds are crossed. The last sent fingerprint is
// kept in memory so an unchanged state is not re-sent every hour; a
// restart resending one alert is acceptable.
type Service struct {
	assetRepo    *assets.Repository
	settingsRepo *settings.Repository
	pusher       Pusher
	log          zerolog.Logger

	mu       sync.Mutex
	lastSent string
}

// NewService creates a new notification service.
func NewService(assetRepo *assets.Repository, settingsRepo *settings.Repository, pusher Pusher, log zerolog.Logger) *Service {
	return &Service{
		assetRepo:    assetRepo,
		settingsRepo: settingsRepo,
		pusher:       pusher,
		log:          log.With().Str("service", "notify").Logger(),
	}
}

// CheckAndNotify evaluates current movement and pushes an alert if
// warranted. A no-op when notifications are disabled in settings.
func (s *Service) CheckAndNotify() error {
	enabled, err := s.settingsRepo.GetBool(settings.KeyGotifyEnabled, false)
	if err != nil {
		return fmt.Errorf("failed to read notification settings: %w", err)
	}
	if !enabled {
		return nil
	}

	alert, err := s.Evaluate()
	if err != nil {
		return err
	}
	if !alert.Triggered() {
		return nil
	}

	message := formatAlert(alert)

	s.mu.Lock()
	if message == s.lastSent {
		s.mu.Unlock()
		s.log.Debug().Msg("Alert unchanged since last send, skipping")
		return nil
	}
	s.mu.Unlock()

	serverURL, err := s.settingsRepo.GetString(settings.KeyGotifyURL, "")
	if err != nil {
		return err
	}
	token, err := s.settingsRepo.GetString(settings.KeyGotifyToken, "")
	if err != nil {
		return err
	}

	if err := s.pusher.Send(serverURL, token, "Portfolio Alert", message, 5); err != nil {
		return fmt.Errorf("failed to push alert: %w", err)
	}

	s.mu.Lock()
	s.lastSent = message
	s.mu.Unlock()

	s.log.Info().
		Float64("portfolio_change_pct", alert.PortfolioChangePct).
		Int("movers", len(alert.Movers)).
		Msg("Alert sent")

	return nil
}

// Evaluate computes the current movement state from stored holdings.
// Holdings without a daily change are treated as unchanged.
func (s *Service) Evaluate() (Alert, error) {
	holdings, err := s.assetRepo.GetAll()
	if err != nil {
		return Alert{}, fmt.Errorf("failed to load holdings: %w", err)
	}

	var alert Alert
	var prevTotal float64

	for _, h := range holdings {
		value := h.Quantity * h.UnitPrice
		alert.TotalValue += value

		if h.DailyChangePct == nil {
			prevTotal += value
			continue
		}

		pct := *h.DailyChangePct
		prevTotal += value / (1 + pct/100)

		if pct >= assetAlertPct || pct <= -assetAlertPct {
			alert.Movers = append(alert.Movers, Mover{
				Name:      h.Name,
				Symbol:    h.Symbol,
				ChangePct: pct,
			})
		}
	}

	if prevTotal > 0 {
		alert.PortfolioChangePct = (alert.TotalValue - prevTotal) / prevTotal * 100
	}

	return alert, nil
}

func formatAlert(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio: ₹%.0f (%+.2f%%)", a.TotalValue, a.PortfolioChangePct)
	for _, m := range a.Movers {
		label := m.Symbol
		if label == "" {
			label = m.Name
		}
		fmt.Fprintf(&b, "\n%s: %+.2f%%", label, m.ChangePct)
	}
	return b.String()
}
