// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the database and local backups (always absolute)
	DBFile   string // SQLite database file path (inside DataDir unless overridden)
	LogLevel string
	Port     int
	DevMode  bool

	// Local backup retention
	BackupKeep int // Number of timestamped .bak copies to keep

	// Optional S3-compatible backup upload (disabled when bucket is empty)
	S3 *S3Config
}

// S3Config holds settings for uploading database backups to
// S3-compatible object storage (AWS S3, Cloudflare R2, MinIO).
type S3Config struct {
	Endpoint  string // Custom endpoint URL; empty for AWS S3
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string // Object key prefix, e.g. "networth/backups"
}

// Enabled reports whether S3 backup upload is configured.
func (s *S3Config) Enabled() bool {
	return s != nil && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. NETWORTH_DATA_DIR environment variable
	// 2. ./data next to the working directory
	// Always resolved to an absolute path, created if missing.
	dataDir := getEnv("NETWORTH_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbFile := getEnv("DB_FILE_PATH", "")
	if dbFile == "" {
		dbFile = filepath.Join(absDataDir, "networth.db")
	}

	cfg := &Config{
		DataDir:    absDataDir,
		DBFile:     dbFile,
		Port:       getEnvAsInt("PORT", 8000),
		DevMode:    getEnvAsBool("DEV_MODE", false),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		BackupKeep: getEnvAsInt("BACKUP_KEEP", 10),
		S3: &S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "auto"),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Prefix:    getEnv("S3_PREFIX", "networth/backups"),
		},
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
