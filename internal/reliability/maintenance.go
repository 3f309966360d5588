package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/vivekn/networth/internal/database"
	"github.com/vivekn/networth/internal/modules/quotecache"
)

// Disk space thresholds for the data directory.
const (
	diskWarnPercent     = 80.0
	diskCriticalPercent = 95.0
)

// MaintenanceService performs the nightly housekeeping pass: integrity
// check, WAL checkpoint, cache cleanup, backup, and a disk space check.
type MaintenanceService struct {
	db        *database.DB
	cacheRepo *quotecache.Repository
	backup    *BackupService
	dataDir   string
	log       zerolog.Logger
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(
	db *database.DB,
	cacheRepo *quotecache.Repository,
	backup *BackupService,
	dataDir string,
	log zerolog.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		db:        db,
		cacheRepo: cacheRepo,
		backup:    backup,
		dataDir:   dataDir,
		log:       log.With().Str("service", "maintenance").Logger(),
	}
}

// RunDaily executes the maintenance pass. Only an integrity failure or
// a critically full disk is fatal; everything else logs and continues.
func (s *MaintenanceService) RunDaily() error {
	s.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}

	if err := s.db.WALCheckpoint("TRUNCATE"); err != nil {
		s.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if deleted, err := s.cacheRepo.DeleteExpired(); err != nil {
		s.log.Warn().Err(err).Msg("Cache cleanup failed")
	} else if deleted > 0 {
		s.log.Debug().Int64("deleted", deleted).Msg("Expired cache entries removed")
	}

	if _, err := s.backup.Backup(); err != nil {
		s.log.Error().Err(err).Msg("Scheduled backup failed")
	}

	if err := s.checkDiskSpace(); err != nil {
		return err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed")

	return nil
}

// checkDiskSpace halts further writes only when the data directory's
// filesystem is critically full.
func (s *MaintenanceService) checkDiskSpace() error {
	usage, err := disk.Usage(s.dataDir)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to check disk space")
		return nil
	}

	switch {
	case usage.UsedPercent >= diskCriticalPercent:
		return fmt.Errorf("disk critically full: %.1f%% used", usage.UsedPercent)
	case usage.UsedPercent >= diskWarnPercent:
		s.log.Warn().
			Float64("used_percent", usage.UsedPercent).
			Uint64("free_bytes", usage.Free).
			Msg("Disk space running low")
	}

	return nil
}
