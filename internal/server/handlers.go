package server

import (
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vivekn/networth/internal/database"
	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/charts"
	"github.com/vivekn/networth/internal/modules/history"
	"github.com/vivekn/networth/internal/modules/importer"
	"github.com/vivekn/networth/internal/modules/refresher"
	"github.com/vivekn/networth/internal/modules/settings"
	"github.com/vivekn/networth/internal/modules/transactions"
	"github.com/vivekn/networth/internal/reliability"
)

// Snapshot uploads are small JSON documents; cap the body to keep a
// misbehaving client from holding memory.
const maxSnapshotBytes = 10 << 20

// Handlers carries the service dependencies for all API endpoints.
type Handlers struct {
	log         zerolog.Logger
	db          *database.DB
	assetRepo   *assets.Repository
	txRepo      *transactions.Repository
	historyRepo *history.Repository
	settings    *settings.Repository
	importer    *importer.Service
	refresher   *refresher.Service
	charts      *charts.Service
	backup      *reliability.BackupService
	startedAt   time.Time
}

// NewHandlers creates the handler set from the server config.
func NewHandlers(cfg Config) *Handlers {
	return &Handlers{
		log:         cfg.Log.With().Str("component", "handlers").Logger(),
		db:          cfg.DB,
		assetRepo:   cfg.AssetRepo,
		txRepo:      cfg.TxRepo,
		historyRepo: cfg.HistoryRepo,
		settings:    cfg.Settings,
		importer:    cfg.Importer,
		refresher:   cfg.Refresher,
		charts:      cfg.Charts,
		backup:      cfg.Backup,
		startedAt:   time.Now(),
	}
}

// ImportSnapshot handles POST /api/import/{owner}. The body is the raw
// snapshot document; ?auto_resolve=false disables symbol resolution.
func (h *Handlers) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	autoResolve := true
	if v := r.URL.Query().Get("auto_resolve"); v == "false" || v == "0" {
		autoResolve = false
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(raw) == 0 {
		h.writeError(w, http.StatusBadRequest, "empty snapshot")
		return
	}

	result, err := h.importer.Import(raw, owner, autoResolve)
	if err != nil {
		if strings.Contains(err.Error(), "invalid snapshot JSON") {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("owner", owner).Msg("Import failed")
		h.writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetHoldings handles GET /api/holdings
func (h *Handlers) GetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.assetRepo.GetAll()
	if err != nil {
		h.serverError(w, err, "Failed to load holdings")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"holdings": holdings})
}

// GetHoldingsByOwner handles GET /api/holdings/{owner}
func (h *Handlers) GetHoldingsByOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	holdings, err := h.assetRepo.GetByOwner(owner)
	if err != nil {
		h.serverError(w, err, "Failed to load holdings")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"owner": owner, "holdings": holdings})
}

// GetSummary handles GET /api/summary
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	total, err := h.assetRepo.GetTotalValue()
	if err != nil {
		h.serverError(w, err, "Failed to compute total value")
		return
	}
	count, err := h.assetRepo.GetCount()
	if err != nil {
		h.serverError(w, err, "Failed to count holdings")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_value": total,
		"holdings":    count,
	})
}

// GetTransactions handles GET /api/transactions?owner=
func (h *Handlers) GetTransactions(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")

	var (
		txs []transactions.Transaction
		err error
	)
	if owner == "" {
		txs, err = h.txRepo.GetAll()
	} else {
		txs, err = h.txRepo.GetByOwner(owner)
	}
	if err != nil {
		h.serverError(w, err, "Failed to load transactions")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// GetMonthlyTotals handles GET /api/transactions/monthly?owner=
func (h *Handlers) GetMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.txRepo.GetMonthlyBuyTotals(r.URL.Query().Get("owner"))
	if err != nil {
		h.serverError(w, err, "Failed to load monthly totals")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"months": totals})
}

// GetHistory handles GET /api/history?period=
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "ALL"
	}

	points, err := h.charts.GetValueSeries(period)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"points": points})
}

// GetHistoryChart handles GET /api/history/chart.png?period=
func (h *Handlers) GetHistoryChart(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "3M"
	}

	png, err := h.charts.RenderHistoryPNG(period)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// RefreshPrices handles POST /api/refresh
func (h *Handlers) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	stats, err := h.refresher.RefreshAll(r.Context())
	if err != nil {
		h.serverError(w, err, "Price refresh failed")
		return
	}

	total, err := h.assetRepo.GetTotalValue()
	if err == nil && total > 0 {
		if recErr := h.historyRepo.Record(total); recErr != nil {
			h.log.Warn().Err(recErr).Msg("Failed to record portfolio value")
		}
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// CreateBackup handles POST /api/backup
func (h *Handlers) CreateBackup(w http.ResponseWriter, r *http.Request) {
	filename, err := h.backup.Backup()
	if err != nil {
		h.serverError(w, err, "Backup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"backup": filename})
}

// ListBackups handles GET /api/backups
func (h *Handlers) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backup.List()
	if err != nil {
		h.serverError(w, err, "Failed to list backups")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"backups": backups})
}

// GetSettings handles GET /api/settings: returns the well-known keys,
// with secrets masked.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	keys := []string{
		settings.KeyReportEnabled,
		settings.KeyReportTime,
		settings.KeyGotifyURL,
		settings.KeyGotifyEnabled,
	}

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		value, err := h.settings.Get(key)
		if err != nil {
			h.serverError(w, err, "Failed to load settings")
			return
		}
		if value != nil {
			values[key] = *value
		}
	}

	if token, err := h.settings.Get(settings.KeyGotifyToken); err == nil && token != nil && *token != "" {
		values[settings.KeyGotifyToken] = "********"
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"settings": values})
}

// PutSetting handles PUT /api/settings/{key} with body {"value": "..."}
func (h *Handlers) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.settings.Set(key, body.Value, nil); err != nil {
		h.serverError(w, err, "Failed to save setting")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": body.Value})
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SystemInfo handles GET /api/system
func (h *Handlers) SystemInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		info["cpu_percent"] = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		info["memory_used_percent"] = memStat.UsedPercent
		info["memory_total_bytes"] = memStat.Total
	}
	if dbStats, err := h.db.GetStats(); err == nil {
		info["database"] = dbStats
	}

	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handlers) serverError(w http.ResponseWriter, err error, message string) {
	h.log.Error().Err(err).Msg(message)
	h.writeError(w, http.StatusInternalServerError, message)
}
