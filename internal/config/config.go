// Package config centralizes environment-variable configuration for the
// worker, scheduler, photo-admin and seed entrypoints, loading an optional .env
// file via godotenv the way the teacher's cmd/server/main.go does.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable named in spec.md section 6. Required fields
// have no default and Load returns an error if they're missing; the rest
// fall back to the values spec.md documents.
type Config struct {
	DatabaseURL      string
	EmbedderURL      string
	RedisAddr        string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKeyID    string
	S3SecretKey      string
	SourceClientID   string
	SourceClientSecret string

	MaxFileSize       int64 // default 50 MiB
	DriveMax          int64 // default 512 MiB
	ZipContainerMax   int64 // default 5 GiB
	BatchSize         int   // default 50, cap 100
	MaxAttempts       int   // default 5
	SearchProbes      int   // default 100
	ClusterThreshold  float64 // default 0.86
	ClusterCandidates int     // default 600
	EmbedDim          int     // default 512

	Debug bool // enables human-readable, source-annotated logging
}

const (
	defaultMaxFileSize       = 50 * 1024 * 1024
	defaultDriveMax          = 512 * 1024 * 1024
	defaultZipContainerMax   = 5 * 1024 * 1024 * 1024
	defaultBatchSize         = 50
	maxBatchSize             = 100
	defaultMaxAttempts       = 5
	defaultSearchProbes      = 100
	defaultClusterThreshold  = 0.86
	defaultClusterCandidates = 600
	defaultEmbedDim          = 512
)

// Load reads .env (if present, silently ignored if absent) and then the
// process environment, returning an error if a required variable is
// unset or a tunable fails to parse.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		MaxFileSize:       defaultMaxFileSize,
		DriveMax:          defaultDriveMax,
		ZipContainerMax:   defaultZipContainerMax,
		BatchSize:         defaultBatchSize,
		MaxAttempts:       defaultMaxAttempts,
		SearchProbes:      defaultSearchProbes,
		ClusterThreshold:  defaultClusterThreshold,
		ClusterCandidates: defaultClusterCandidates,
		EmbedDim:          defaultEmbedDim,
	}

	var missing []string
	required := func(name string) string {
		v := os.Getenv(name)
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.EmbedderURL = required("EMBEDDER_URL")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR") // optional: queue degrades to no-op
	cfg.S3Bucket = required("S3_BUCKET")
	cfg.S3Region = required("S3_REGION")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = required("S3_ACCESS_KEY_ID")
	cfg.S3SecretKey = required("S3_SECRET_ACCESS_KEY")
	cfg.SourceClientID = required("SOURCE_OAUTH_CLIENT_ID")
	cfg.SourceClientSecret = required("SOURCE_OAUTH_CLIENT_SECRET")

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if err := overlayInt64(&cfg.MaxFileSize, "MAX_FILE_SIZE"); err != nil {
		return nil, err
	}
	if err := overlayInt64(&cfg.DriveMax, "DRIVE_MAX"); err != nil {
		return nil, err
	}
	if err := overlayInt64(&cfg.ZipContainerMax, "ZIP_CONTAINER_MAX"); err != nil {
		return nil, err
	}
	if err := overlayInt(&cfg.BatchSize, "BATCH_SIZE"); err != nil {
		return nil, err
	}
	if cfg.BatchSize > maxBatchSize {
		cfg.BatchSize = maxBatchSize
	}
	if err := overlayInt(&cfg.MaxAttempts, "MAX_ATTEMPTS"); err != nil {
		return nil, err
	}
	if err := overlayInt(&cfg.SearchProbes, "SEARCH_PROBES"); err != nil {
		return nil, err
	}
	if err := overlayFloat(&cfg.ClusterThreshold, "CLUSTER_THRESHOLD"); err != nil {
		return nil, err
	}
	if err := overlayInt(&cfg.ClusterCandidates, "CLUSTER_CANDIDATES"); err != nil {
		return nil, err
	}
	if err := overlayInt(&cfg.EmbedDim, "EMBED_DIM"); err != nil {
		return nil, err
	}
	cfg.Debug = os.Getenv("DEBUG") == "true"

	return cfg, nil
}

func overlayInt64(dst *int64, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

func overlayInt(dst *int, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

func overlayFloat(dst *float64, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}
