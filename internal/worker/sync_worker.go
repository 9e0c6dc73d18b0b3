package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/syncrunner"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
)

// JobRunner is the narrow surface SyncWorker needs from *syncrunner.Runner.
type JobRunner interface {
	Run(ctx context.Context, jobID uuid.UUID) error
}

// SyncWorker is a long-running consumer over queue.DriveSyncJobs: pop a
// job id, hand it to the Sync Job Runner, and loop. Unlike EmbedWorker
// it never re-enqueues itself on failure — syncrunner.Runner already
// pushes its own retry per job.Start/job.CanRetry (spec.md §4.8 step 6),
// so a second layer of requeueing here would double the retry count.
type SyncWorker struct {
	q      queue.Queue
	runner JobRunner
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}
}

func NewSyncWorker(q queue.Queue, runner JobRunner, logger *slog.Logger) *SyncWorker {
	return &SyncWorker{
		q:      q,
		runner: runner,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (w *SyncWorker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}
		if err := w.tick(ctx); err != nil {
			w.logger.Error("sync worker tick failed", "error", err)
		}
	}
}

func (w *SyncWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *SyncWorker) tick(ctx context.Context) error {
	raw, ok, err := w.q.Pop(ctx, queue.DriveSyncJobs, popTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var payload syncrunner.DriveSyncJobPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		w.logger.Error("sync worker: malformed job payload, dropping", "error", err)
		return nil
	}

	if err := w.runner.Run(ctx, payload.JobID); err != nil {
		w.logger.Error("sync worker: job failed", "job_id", payload.JobID, "error", err)
	}
	return nil
}
