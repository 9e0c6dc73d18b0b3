package drivesync

import (
	"context"

	"github.com/google/uuid"
)

// StateRepository persists the one-per-user sync configuration.
type StateRepository interface {
	Save(ctx context.Context, s *State) error
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*State, error)
	ListEnabled(ctx context.Context) ([]*State, error)
}

// JobRepository persists DriveSyncJob rows and the supersede rule.
type JobRepository interface {
	Save(ctx context.Context, j *Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// FindSiblings returns every other job for (owner, folder) still in
	// {queued, running, failed}, the candidate set Complete's supersede
	// step cancels.
	FindSiblings(ctx context.Context, ownerID uuid.UUID, folderID string, excludeJobID uuid.UUID) ([]*Job, error)
}

// FileRepository persists the per-entry ingestion tracking rows keyed
// by (owner, source_file_id, source_entry_id).
type FileRepository interface {
	Save(ctx context.Context, f *File) error
	Find(ctx context.Context, ownerID uuid.UUID, sourceFileID, sourceEntryID string) (*File, error)
	HasCompletionMarker(ctx context.Context, ownerID uuid.UUID, sourceFileID string) (bool, error)
}

// CheckpointRepository persists the single checkpoint row per job.
type CheckpointRepository interface {
	Save(ctx context.Context, c *Checkpoint) error
	FindByJob(ctx context.Context, jobID uuid.UUID) (*Checkpoint, error)
}
