// Package main is the entry point for the networth portfolio tracker.
// It wires the SQLite store, the snapshot import pipeline, the price
// refresher, and the HTTP API, then runs until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vivekn/networth/internal/clients/exchangerate"
	"github.com/vivekn/networth/internal/clients/yahoo"
	"github.com/vivekn/networth/internal/config"
	"github.com/vivekn/networth/internal/database"
	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/charts"
	"github.com/vivekn/networth/internal/modules/history"
	"github.com/vivekn/networth/internal/modules/importer"
	"github.com/vivekn/networth/internal/modules/notify"
	"github.com/vivekn/networth/internal/modules/quotecache"
	"github.com/vivekn/networth/internal/modules/refresher"
	"github.com/vivekn/networth/internal/modules/report"
	"github.com/vivekn/networth/internal/modules/settings"
	"github.com/vivekn/networth/internal/modules/transactions"
	"github.com/vivekn/networth/internal/reliability"
	"github.com/vivekn/networth/internal/scheduler"
	"github.com/vivekn/networth/internal/server"
	"github.com/vivekn/networth/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	log.Info().Str("db", cfg.DBFile).Msg("Starting networth")

	db, err := database.New(database.Config{Path: cfg.DBFile})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Repositories
	assetRepo := assets.NewRepository(db.Conn(), log)
	txRepo := transactions.NewRepository(db.Conn(), log)
	historyRepo := history.NewRepository(db.Conn(), log)
	settingsRepo := settings.NewRepository(db.Conn(), log)
	cacheRepo := quotecache.NewRepository(db.Conn())

	// Backup, with optional S3 upload
	var uploader reliability.Uploader
	if cfg.S3.Enabled() {
		s3Client, err := reliability.NewS3Client(
			context.Background(),
			cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket,
			cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Prefix,
			log,
		)
		if err != nil {
			log.Warn().Err(err).Msg("S3 backup disabled: client setup failed")
		} else {
			uploader = s3Client
		}
	}
	backupSvc := reliability.NewBackupService(
		cfg.DBFile,
		filepath.Join(cfg.DataDir, "backups"),
		cfg.BackupKeep,
		uploader,
		log,
	)

	// Clients and services
	quoteClient := yahoo.NewClient(cacheRepo, log)
	rateClient := exchangerate.NewClient(cacheRepo, log)
	gotify := notify.NewGotifyClient(log)

	importSvc := importer.NewService(db.Conn(), assetRepo, txRepo, backupSvc, log)
	refreshSvc := refresher.NewService(assetRepo, quoteClient, rateClient, log)
	notifySvc := notify.NewService(assetRepo, settingsRepo, gotify, log)
	reportSvc := report.NewService(assetRepo, txRepo, historyRepo, settingsRepo, gotify, log)
	chartsSvc := charts.NewService(historyRepo, log)
	maintenanceSvc := reliability.NewMaintenanceService(db, cacheRepo, backupSvc, cfg.DataDir, log)

	// Background jobs
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshPricesJob(refreshSvc, assetRepo, historyRepo, notifySvc, log)
	if err := sched.AddJob("@hourly", refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	if err := sched.AddJob("* * * * *", scheduler.NewReportCheckJob(reportSvc)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register report job")
	}
	if err := sched.AddJob("30 2 * * *", scheduler.NewMaintenanceJob(maintenanceSvc)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP API
	srv := server.New(server.Config{
		Log:         log,
		DB:          db,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		AssetRepo:   assetRepo,
		TxRepo:      txRepo,
		HistoryRepo: historyRepo,
		Settings:    settingsRepo,
		Importer:    importSvc,
		Refresher:   refreshSvc,
		Charts:      chartsSvc,
		Backup:      backupSvc,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Refresh once shortly after startup so a fresh deployment has
	// prices without waiting for the hour.
	go func() {
		time.Sleep(5 * time.Second)
		if err := sched.RunNow(refreshJob); err != nil {
			log.Warn().Err(err).Msg("Startup refresh failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Stopped")
}
