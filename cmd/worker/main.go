package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/config"
	"github.com/justraqib/semantic-photo/internal/domain/ingest"
	"github.com/justraqib/semantic-photo/internal/domain/peoplecluster"
	"github.com/justraqib/semantic-photo/internal/domain/syncrunner"
	"github.com/justraqib/semantic-photo/internal/infra/embedder"
	"github.com/justraqib/semantic-photo/internal/infra/googledrive"
	"github.com/justraqib/semantic-photo/internal/infra/imageutil"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
	"github.com/justraqib/semantic-photo/internal/infra/storage"
	"github.com/justraqib/semantic-photo/internal/logging"
	"github.com/justraqib/semantic-photo/internal/worker"
)

// cmd/worker runs the two long-running queue consumers spec.md §4.9 and
// §4.8 describe: the Embedding Worker over embedding_jobs and the Sync
// Job Runner's consumer over drive_sync_jobs. Both pop-and-process in
// their own goroutine off the same Redis connection.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.New(false)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	logger = logging.New(cfg.Debug)

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	q := queue.New(cfg.RedisAddr)

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

	photoRepo := postgres.NewPhotoRepository(dbPool)
	embedClient := embedder.New(cfg.EmbedderURL)
	clusterer := peoplecluster.NewClusterer(photoRepo)

	embedWorker := worker.NewEmbedWorker(q, photoRepo, store, embedClient, clusterer, logger)

	tx := postgres.NewTxManager(dbPool)
	jobRepo := postgres.NewDriveSyncJobRepository(dbPool)
	stateRepo := postgres.NewDriveSyncStateRepository(dbPool)
	fileRepo := postgres.NewDriveSyncFileRepository(dbPool)
	checkpointRepo := postgres.NewDriveSyncCheckpointRepository(dbPool)
	oauthLinkRepo := postgres.NewOAuthLinkRepository(dbPool)
	source := googledrive.New(cfg.SourceClientID, cfg.SourceClientSecret, "")
	ingestor := ingest.NewIngestor(store, photoRepo, q, imageutil.DefaultConfig(), os.TempDir())

	runner := syncrunner.NewRunner(
		jobRepo, stateRepo, fileRepo, checkpointRepo, oauthLinkRepo,
		source, ingestor, q, tx, os.TempDir(), syncrunner.NoopPublisher{},
	)
	syncWorker := worker.NewSyncWorker(q, runner, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","worker":"running"}`)
	})

	healthServer := &http.Server{
		Addr:    ":8081",
		Handler: healthMux,
	}

	go func() {
		logger.Info("health check server starting", "addr", ":8081")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health check server error", "error", err)
		}
	}()

	go func() {
		logger.Info("embed worker started, waiting for jobs")
		embedWorker.Run(ctx)
	}()

	go func() {
		logger.Info("sync worker started, waiting for jobs")
		syncWorker.Run(ctx)
	}()

	<-sigChan
	logger.Info("shutdown signal received, stopping workers")

	cancel()
	embedWorker.Stop()
	syncWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", "error", err)
	}

	logger.Info("worker stopped")
}
