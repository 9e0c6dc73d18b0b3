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
	"github.com/justraqib/semantic-photo/internal/domain/memory"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
	"github.com/justraqib/semantic-photo/internal/jobs"
	"github.com/justraqib/semantic-photo/internal/logging"
)

// cmd/scheduler runs spec.md §4.13's periodic dispatch: every 30 minutes
// it fans a sync job out to every owner with drive sync enabled, and
// once a day it regenerates "on this day" memories.
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
	logger.Info("connected to database successfully")

	q := queue.New(cfg.RedisAddr)

	stateRepo := postgres.NewDriveSyncStateRepository(dbPool)
	jobRepo := postgres.NewDriveSyncJobRepository(dbPool)
	driveSyncDispatcher := jobs.NewDriveSyncDispatcher(stateRepo, jobRepo, q, logger)

	memoryRepo := postgres.NewMemoryRepository(dbPool)
	memoryGen := memory.NewGenerator(memoryRepo)
	memoryDispatcher := jobs.NewMemoryDispatcher(memoryGen, logger)

	schedulerConfig := jobs.DefaultSchedulerConfig(cfg.RedisAddr)
	scheduler := jobs.NewScheduler(schedulerConfig, logger)

	mux := scheduler.RegisterHandlers(driveSyncDispatcher, memoryDispatcher)

	if err := scheduler.RegisterScheduledTasks(); err != nil {
		logger.Error("failed to register scheduled tasks", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","scheduler":"running"}`)
	})

	healthServer := &http.Server{
		Addr:    ":8082",
		Handler: healthMux,
	}

	go func() {
		logger.Info("health check server starting", "addr", ":8082")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health check server error", "error", err)
		}
	}()

	go func() {
		logger.Info("starting job scheduler")
		if err := scheduler.Start(mux); err != nil {
			logger.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("job scheduler started successfully",
		"scheduled_task", "drive_sync_all_users (every 30 min)")
	logger.Info("job scheduler started successfully",
		"scheduled_task", "daily_memories (daily at 8 AM)")

	<-sigChan
	logger.Info("shutdown signal received, stopping scheduler")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", "error", err)
	}

	scheduler.Stop()

	logger.Info("scheduler stopped")
}
