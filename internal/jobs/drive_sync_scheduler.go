package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/justraqib/semantic-photo/internal/domain/drivesync"
	"github.com/justraqib/semantic-photo/internal/domain/syncrunner"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
)

// DriveSyncDispatcher fans a fresh DriveSyncJob out to every owner with
// sync enabled and a folder selected, adapting LoanReminderScheduler's
// scan-and-enqueue shape (internal/jobs/loan_reminders.go in the
// teacher) from "loans due soon" to "owners due for their periodic
// drive sync" per spec.md §4.13's drive_sync_all_users cron.
type DriveSyncDispatcher struct {
	states drivesync.StateRepository
	jobs   drivesync.JobRepository
	q      queue.Queue
	logger *slog.Logger
}

func NewDriveSyncDispatcher(states drivesync.StateRepository, jobRepo drivesync.JobRepository, q queue.Queue, logger *slog.Logger) *DriveSyncDispatcher {
	return &DriveSyncDispatcher{states: states, jobs: jobRepo, q: q, logger: logger}
}

// Dispatch enqueues one DriveSyncJob per owner with sync enabled and a
// selected folder. It does not check for an already-running job: the
// Sync Job Runner's supersede rule (Job.Cancel on a sibling once one
// completes) makes a redundant dispatch harmless rather than forbidden.
func (d *DriveSyncDispatcher) Dispatch(ctx context.Context) error {
	states, err := d.states.ListEnabled(ctx)
	if err != nil {
		return err
	}

	d.logger.Info("drive sync dispatch starting", "owners_enabled", len(states))

	for _, s := range states {
		folderID := s.SelectedFolderID()
		if folderID == nil || *folderID == "" {
			continue
		}

		job, err := drivesync.NewJob(drivesync.NewJobInput{OwnerID: s.OwnerID(), FolderID: *folderID})
		if err != nil {
			d.logger.Error("drive sync dispatch: build job failed", "owner_id", s.OwnerID(), "error", err)
			continue
		}
		if err := d.jobs.Save(ctx, job); err != nil {
			d.logger.Error("drive sync dispatch: save job failed", "owner_id", s.OwnerID(), "error", err)
			continue
		}
		if err := d.q.Push(ctx, queue.DriveSyncJobs, syncrunner.DriveSyncJobPayload{JobID: job.ID()}); err != nil {
			d.logger.Error("drive sync dispatch: enqueue job failed", "job_id", job.ID(), "error", err)
			continue
		}

		d.logger.Info("drive sync dispatch: enqueued job", "job_id", job.ID(), "owner_id", s.OwnerID())
	}

	return nil
}

// ProcessTask is the asynq handler behind TypeDriveSyncDispatch.
func (d *DriveSyncDispatcher) ProcessTask(ctx context.Context, t *asynq.Task) error {
	return d.Dispatch(ctx)
}

// NewDriveSyncDispatchTask creates the periodic task the scheduler
// registers against the drive_sync_all_users cron entry.
func NewDriveSyncDispatchTask() *asynq.Task {
	return asynq.NewTask(TypeDriveSyncDispatch, nil)
}
