// photo-admin provides CLI tools for photo library maintenance.
// Commands:
//   - regenerate: Regenerate thumbnails for photos
//   - reap: Permanently delete an owner's stale duplicate photos (C14)
//   - report: Show storage usage report by owner
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/config"
	"github.com/justraqib/semantic-photo/internal/domain/dedup"
	"github.com/justraqib/semantic-photo/internal/infra/imageutil"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/internal/infra/storage"
	"github.com/justraqib/semantic-photo/internal/logging"
)

// logger is shared across every subcommand; photo-admin is a short-lived
// CLI invocation, not a long-running process, so a single package-level
// logger (rather than one threaded through every function) matches how
// small a footprint this binary has.
var logger = logging.New(os.Getenv("DEBUG") == "true")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "regenerate":
		regenerateCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)
		ownerID := regenerateCmd.String("owner", "", "Owner (user) ID (optional, all owners if not specified)")
		photoID := regenerateCmd.String("photo", "", "Single photo ID (optional)")
		dryRun := regenerateCmd.Bool("dry-run", false, "Preview changes without executing")
		if err := regenerateCmd.Parse(os.Args[2:]); err != nil {
			logger.Error("parse flags", "error", err)
			os.Exit(1)
		}
		runRegenerate(*ownerID, *photoID, *dryRun)

	case "reap":
		reapCmd := flag.NewFlagSet("reap", flag.ExitOnError)
		ownerID := reapCmd.String("owner", "", "Owner (user) ID (required)")
		if err := reapCmd.Parse(os.Args[2:]); err != nil {
			logger.Error("parse flags", "error", err)
			os.Exit(1)
		}
		runReap(*ownerID)

	case "report":
		runReport()

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`photo-admin - Photo library maintenance CLI

Usage:
  photo-admin <command> [options]

Commands:
  regenerate    Regenerate thumbnails for photos
    --owner       Owner (user) ID (optional, regenerates all if not specified)
    --photo       Single photo ID (optional)
    --dry-run     Preview changes without executing

  reap          Permanently delete stale copies in an owner's duplicate groups
    --owner       Owner (user) ID (required)

  report        Show storage usage report by owner

  help          Show this help message

Environment:
  DATABASE_URL, S3_BUCKET, S3_REGION, S3_ENDPOINT,
  S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY   (see internal/config)

Examples:
  # Regenerate all thumbnails
  photo-admin regenerate

  # Regenerate thumbnails for one owner
  photo-admin regenerate --owner 01234567-89ab-cdef-0123-456789abcdef

  # Hard-delete an owner's stale duplicate copies
  photo-admin reap --owner 01234567-89ab-cdef-0123-456789abcdef

  # View storage usage
  photo-admin report`)
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func mustConnect(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	return pool
}

func mustStore(ctx context.Context, cfg *config.Config) storage.Store {
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretKey,
	})
	if err != nil {
		logger.Error("failed to init object storage", "error", err)
		os.Exit(1)
	}
	return store
}

// runRegenerate re-derives each matching photo's thumbnail from its
// stored original, for cases where the thumbnail pipeline's config
// (dimensions, format) changes after photos are already ingested.
func runRegenerate(ownerID, photoID string, dryRun bool) {
	ctx := context.Background()
	cfg := mustLoadConfig()

	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	store := mustStore(ctx, cfg)
	thumbCfg := imageutil.DefaultConfig()

	query := `SELECT id, storage_key, thumbnail_key, mime FROM photos WHERE is_deleted = false`
	var args []any
	argNum := 1

	if ownerID != "" {
		oID, err := uuid.Parse(ownerID)
		if err != nil {
			logger.Error("invalid owner ID", "error", err)
			os.Exit(1)
		}
		query += fmt.Sprintf(" AND owner_id = $%d", argNum)
		args = append(args, oID)
		argNum++
	}
	if photoID != "" {
		pID, err := uuid.Parse(photoID)
		if err != nil {
			logger.Error("invalid photo ID", "error", err)
			os.Exit(1)
		}
		query += fmt.Sprintf(" AND id = $%d", argNum)
		args = append(args, pID)
		argNum++
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("failed to query photos", "error", err)
		os.Exit(1)
	}
	defer rows.Close()

	var successCount, errorCount int

	for rows.Next() {
		var id uuid.UUID
		var storageKey, thumbnailKey, mime string

		if err := rows.Scan(&id, &storageKey, &thumbnailKey, &mime); err != nil {
			logger.Error("error scanning row", "error", err)
			errorCount++
			continue
		}

		if dryRun {
			fmt.Printf("[dry-run] would regenerate: %s -> %s\n", storageKey, thumbnailKey)
			successCount++
			continue
		}

		if err := regenerateOne(ctx, store, thumbCfg, storageKey, thumbnailKey); err != nil {
			logger.Error("error regenerating", "photo_id", id, "error", err)
			errorCount++
			continue
		}

		fmt.Printf("regenerated: %s\n", id)
		successCount++
	}

	fmt.Printf("\ncompleted: %d successful, %d errors\n", successCount, errorCount)
}

func regenerateOne(ctx context.Context, store storage.Store, thumbCfg imageutil.Config, storageKey, thumbnailKey string) error {
	r, err := store.Get(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("fetch original: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}

	thumb, err := imageutil.MakeThumbnail(data, thumbCfg)
	if err != nil {
		return fmt.Errorf("make thumbnail: %w", err)
	}

	if err := store.Put(ctx, thumbnailKey, bytes.NewReader(thumb), int64(len(thumb)), "image/webp"); err != nil {
		return fmt.Errorf("put thumbnail: %w", err)
	}
	return nil
}

// runReap drives dedup.Reaper.DeleteAll (C14) for one owner directly:
// every duplicate group's stale copies (all but the newest photo) are
// hard-deleted, operator-triggered rather than waiting on a client
// request.
func runReap(ownerID string) {
	if ownerID == "" {
		logger.Error("reap requires --owner")
		os.Exit(1)
	}
	oID, err := uuid.Parse(ownerID)
	if err != nil {
		logger.Error("invalid owner ID", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	cfg := mustLoadConfig()

	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	store := mustStore(ctx, cfg)
	photoRepo := postgres.NewPhotoRepository(pool)
	albumRepo := postgres.NewAlbumRepository(pool)

	reaper := dedup.NewReaper(photoRepo, albumRepo, store)
	result, err := reaper.DeleteAll(ctx, oID)
	if err != nil {
		logger.Error("reap failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("deleted %d photos across %d duplicate groups\n", result.PhotosDeleted, result.GroupsProcessed)
}

func runReport() {
	ctx := context.Background()
	cfg := mustLoadConfig()

	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	rows, err := pool.Query(ctx, `
		SELECT
			u.id,
			u.display_name,
			COUNT(p.id) FILTER (WHERE NOT p.is_deleted) AS photo_count,
			COALESCE(SUM(p.size_bytes) FILTER (WHERE NOT p.is_deleted), 0) AS total_size
		FROM users u
		LEFT JOIN photos p ON p.owner_id = u.id
		GROUP BY u.id, u.display_name
		ORDER BY total_size DESC
	`)
	if err != nil {
		logger.Error("failed to query storage", "error", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Println("Storage Usage Report")
	fmt.Println("====================")
	fmt.Println()
	fmt.Printf("%-40s %-12s %s\n", "Owner", "Photos", "Size")
	fmt.Println(strings.Repeat("-", 70))

	var totalPhotos int64
	var totalSize int64

	for rows.Next() {
		var ownerID uuid.UUID
		var name string
		var photoCount, size int64

		if err := rows.Scan(&ownerID, &name, &photoCount, &size); err != nil {
			continue
		}

		if len(name) > 38 {
			name = name[:35] + "..."
		}

		fmt.Printf("%-40s %-12d %.2f MB\n", name, photoCount, float64(size)/(1024*1024))
		totalPhotos += photoCount
		totalSize += size
	}

	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("%-40s %-12d %.2f MB\n", "TOTAL", totalPhotos, float64(totalSize)/(1024*1024))
}
