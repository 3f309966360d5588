package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/history"
	"github.com/vivekn/networth/internal/modules/notify"
	"github.com/vivekn/networth/internal/modules/refresher"
	"github.com/vivekn/networth/internal/modules/report"
	"github.com/vivekn/networth/internal/reliability"
)

// RefreshPricesJob refreshes quotes, records the daily portfolio value,
// and evaluates movement alerts. Runs hourly.
type RefreshPricesJob struct {
	refresher   *refresher.Service
	assetRepo   *assets.Repository
	historyRepo *history.Repository
	notifier    *notify.Service
	log         zerolog.Logger
}

// NewRefreshPricesJob creates the hourly refresh job.
func NewRefreshPricesJob(
	refresherSvc *refresher.Service,
	assetRepo *assets.Repository,
	historyRepo *history.Repository,
	notifier *notify.Service,
	log zerolog.Logger,
) *RefreshPricesJob {
	return &RefreshPricesJob{
		refresher:   refresherSvc,
		assetRepo:   assetRepo,
		historyRepo: historyRepo,
		notifier:    notifier,
		log:         log.With().Str("job", "refresh_prices").Logger(),
	}
}

// Run executes one refresh cycle.
func (j *RefreshPricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := j.refresher.RefreshAll(ctx); err != nil {
		return err
	}

	total, err := j.assetRepo.GetTotalValue()
	if err != nil {
		return err
	}
	if total > 0 {
		if err := j.historyRepo.Record(total); err != nil {
			j.log.Warn().Err(err).Msg("Failed to record portfolio value")
		}
	}

	if err := j.notifier.CheckAndNotify(); err != nil {
		j.log.Warn().Err(err).Msg("Alert check failed")
	}

	return nil
}

// Name returns the job name for the scheduler.
func (j *RefreshPricesJob) Name() string { return "refresh_prices" }

// ReportCheckJob asks the report service whether the daily summary is
// due. Runs every minute; the service itself decides whether to send.
type ReportCheckJob struct {
	report *report.Service
}

// NewReportCheckJob creates the per-minute report gate job.
func NewReportCheckJob(reportSvc *report.Service) *ReportCheckJob {
	return &ReportCheckJob{report: reportSvc}
}

// Run checks whether the daily report is due and sends it if so.
func (j *ReportCheckJob) Run() error {
	return j.report.RunIfDue(time.Now())
}

// Name returns the job name for the scheduler.
func (j *ReportCheckJob) Name() string { return "report_check" }

// MaintenanceJob runs the nightly housekeeping pass.
type MaintenanceJob struct {
	maintenance *reliability.MaintenanceService
}

// NewMaintenanceJob creates the nightly maintenance job.
func NewMaintenanceJob(maintenance *reliability.MaintenanceService) *MaintenanceJob {
	return &MaintenanceJob{maintenance: maintenance}
}

// Run executes the maintenance pass.
func (j *MaintenanceJob) Run() error {
	return j.maintenance.RunDaily()
}

// Name returns the job name for the scheduler.
func (j *MaintenanceJob) Name() string { return "daily_maintenance" }
