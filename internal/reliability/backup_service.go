// Package reliability handles database backups and periodic maintenance.
package reliability

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BackupInfo describes one local backup file.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// Uploader pushes a backup file to remote storage. Satisfied by S3Client.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) error
}

// BackupService copies the database file aside before destructive
// operations and on schedule. Backups are plain file copies; SQLite in
// WAL mode keeps the main file consistent enough for this household
// workload, and the import path additionally checkpoints first.
type BackupService struct {
	dbPath    string
	backupDir string
	keep      int
	uploader  Uploader
	log       zerolog.Logger
}

// NewBackupService creates a backup service. uploader is optional - if
// nil, backups stay local only.
func NewBackupService(dbPath, backupDir string, keep int, uploader Uploader, log zerolog.Logger) *BackupService {
	if keep <= 0 {
		keep = 10
	}
	return &BackupService{
		dbPath:    dbPath,
		backupDir: backupDir,
		keep:      keep,
		uploader:  uploader,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// Backup copies the database file to the backup directory and prunes
// old copies. Returns the backup filename. The remote upload is
// best-effort: a failed upload logs a warning but the local backup
// still counts.
func (s *BackupService) Backup() (string, error) {
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	shortID := uuid.New().String()[:8]
	filename := fmt.Sprintf("networth-backup-%s-%s.db", timestamp, shortID)
	dest := filepath.Join(s.backupDir, filename)

	size, err := copyFile(s.dbPath, dest)
	if err != nil {
		return "", fmt.Errorf("failed to copy database: %w", err)
	}

	s.log.Info().
		Str("backup", filename).
		Int64("size_bytes", size).
		Msg("Backup created")

	if err := s.prune(); err != nil {
		s.log.Warn().Err(err).Msg("Backup pruning failed")
	}

	if s.uploader != nil {
		if err := s.upload(filename, dest, size); err != nil {
			s.log.Warn().Err(err).Str("backup", filename).Msg("Remote upload failed")
		}
	}

	return filename, nil
}

// List returns local backups, newest first.
func (s *BackupService) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "networth-backup-") || !strings.HasSuffix(name, ".db") {
			continue
		}

		ts, ok := parseBackupTimestamp(name)
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:  name,
			Timestamp: ts,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// prune removes the oldest backups beyond the retention count.
func (s *BackupService) prune() error {
	backups, err := s.List()
	if err != nil {
		return err
	}
	if len(backups) <= s.keep {
		return nil
	}

	for _, old := range backups[s.keep:] {
		path := filepath.Join(s.backupDir, old.Filename)
		if err := os.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("backup", old.Filename).Msg("Failed to remove old backup")
			continue
		}
		s.log.Debug().Str("backup", old.Filename).Msg("Pruned old backup")
	}

	return nil
}

func (s *BackupService) upload(filename, path string, size int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.uploader.Upload(ctx, filename, file, size); err != nil {
		return err
	}

	s.log.Info().Str("backup", filename).Msg("Backup uploaded")
	return nil
}

// parseBackupTimestamp extracts the timestamp from
// networth-backup-2026-08-29-143022-a1b2c3d4.db
func parseBackupTimestamp(filename string) (time.Time, bool) {
	trimmed := strings.TrimPrefix(filename, "networth-backup-")
	trimmed = strings.TrimSuffix(trimmed, ".db")
	if idx := strings.LastIndex(trimmed, "-"); idx > 0 {
		trimmed = trimmed[:idx]
	}
	ts, err := time.Parse("2006-01-02-150405", trimmed)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dest)
		return 0, err
	}

	if err := out.Close(); err != nil {
		return 0, err
	}
	return size, nil
}
