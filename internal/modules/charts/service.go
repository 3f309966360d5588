// Package charts provides chart data and rendered images for the
// portfolio value history.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vivekn/networth/internal/modules/history"
)

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"`  // YYYY-MM-DD format
	Value float64 `json:"value"` // Portfolio value in INR
}

// Service provides chart data operations over the value history.
type Service struct {
	historyRepo *history.Repository
	log         zerolog.Logger
}

// NewService creates a new charts service
func NewService(historyRepo *history.Repository, log zerolog.Logger) *Service {
	return &Service{
		historyRepo: historyRepo,
		log:         log.With().Str("service", "charts").Logger(),
	}
}

// GetValueSeries returns the portfolio value series for a period,
// aggregated to keep point counts sane: daily for 1M/3M, weekly for 1Y,
// monthly for ALL. Aggregation keeps the last value of each bucket.
func (s *Service) GetValueSeries(period string) ([]ChartDataPoint, error) {
	var since string
	var bucket func(date string) string

	identity := func(date string) string { return date }
	weekly := func(date string) string {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return date
		}
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	monthly := func(date string) string {
		if len(date) >= 7 {
			return date[:7]
		}
		return date
	}

	now := time.Now()
	switch period {
	case "1M":
		since = now.AddDate(0, -1, 0).Format("2006-01-02")
		bucket = identity
	case "3M":
		since = now.AddDate(0, -3, 0).Format("2006-01-02")
		bucket = identity
	case "1Y":
		since = now.AddDate(-1, 0, 0).Format("2006-01-02")
		bucket = weekly
	case "ALL":
		since = ""
		bucket = monthly
	default:
		return nil, fmt.Errorf("invalid period: %s (must be 1M, 3M, 1Y or ALL)", period)
	}

	points, err := s.historyRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var result []ChartDataPoint
	lastBucket := ""
	for _, p := range points {
		if since != "" && p.Date < since {
			continue
		}
		key := bucket(p.Date)
		point := ChartDataPoint{Time: p.Date, Value: p.TotalValue}
		if key == lastBucket && len(result) > 0 {
			// Same bucket: keep the latest value
			result[len(result)-1] = point
			continue
		}
		result = append(result, point)
		lastBucket = key
	}

	return result, nil
}

// RenderHistoryPNG renders the value history as a PNG line chart.
// Returns raw PNG bytes.
func (s *Service) RenderHistoryPNG(period string) ([]byte, error) {
	points, err := s.GetValueSeries(period)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	yValues := make([]float64, len(points))
	for i, p := range points {
		t, err := time.Parse("2006-01-02", p.Time)
		if err != nil {
			return nil, fmt.Errorf("bad date in history: %s", p.Time)
		}
		xValues[i] = t
		yValues[i] = p.Value
	}

	series := chart.TimeSeries{
		Name: "Portfolio Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Portfolio Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("₹%.1fL", f/100000)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
