// Package drivesync models the durable, multi-attempt job that walks an
// external source folder, unpacks ZIPs, batches photo inserts, and
// checkpoints progress so a crash mid-run resumes without re-ingesting
// completed entries (spec.md §4.8).
package drivesync

import (
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/shared"
)

// JobStatus is the Sync Job Runner's state machine per spec.md §4.8:
// queued -> running -> {completed, failed, cancelled}. failed may be
// re-enqueued until attempts reach max_attempts.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

const (
	defaultBatchSize   = 50
	maxBatchSize       = 100
	defaultMaxAttempts = 5
)

// State is the one-per-user sync configuration and last-run summary.
type State struct {
	ownerID          uuid.UUID
	selectedFolderID *string
	lastSyncAt       *time.Time
	syncEnabled      bool
	lastError        *string
}

func NewState(ownerID uuid.UUID) (*State, error) {
	if err := shared.ValidateUUID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	return &State{ownerID: ownerID, syncEnabled: false}, nil
}

func ReconstructState(ownerID uuid.UUID, selectedFolderID *string, lastSyncAt *time.Time, syncEnabled bool, lastError *string) *State {
	return &State{
		ownerID:          ownerID,
		selectedFolderID: selectedFolderID,
		lastSyncAt:       lastSyncAt,
		syncEnabled:      syncEnabled,
		lastError:        lastError,
	}
}

func (s *State) OwnerID() uuid.UUID           { return s.ownerID }
func (s *State) SelectedFolderID() *string    { return s.selectedFolderID }
func (s *State) LastSyncAt() *time.Time       { return s.lastSyncAt }
func (s *State) SyncEnabled() bool            { return s.syncEnabled }
func (s *State) LastError() *string           { return s.lastError }

func (s *State) SelectFolder(folderID string) {
	s.selectedFolderID = &folderID
}

func (s *State) Enable()  { s.syncEnabled = true }
func (s *State) Disable() { s.syncEnabled = false }

func (s *State) RecordSuccess(at time.Time) {
	s.lastSyncAt = &at
	s.lastError = nil
}

func (s *State) RecordFailure(msg string) {
	s.lastError = &msg
}

// Job is a single durable sync run for (owner, folder).
type Job struct {
	id               uuid.UUID
	ownerID          uuid.UUID
	folderID         string
	status           JobStatus
	attempts         int
	maxAttempts      int
	batchSize        int
	totalDiscovered  int
	processed        int
	uploaded         int
	skipped          int
	failed           int
	lastError        *string
	createdAt        time.Time
	startedAt        *time.Time
	completedAt      *time.Time
}

type NewJobInput struct {
	OwnerID   uuid.UUID
	FolderID  string
	BatchSize int
}

func NewJob(in NewJobInput) (*Job, error) {
	if err := shared.ValidateUUID(in.OwnerID, "owner_id"); err != nil {
		return nil, err
	}
	if in.FolderID == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "folder_id", "folder id is required")
	}

	batchSize := in.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	return &Job{
		id:          shared.NewUUID(),
		ownerID:     in.OwnerID,
		folderID:    in.FolderID,
		status:      JobStatusQueued,
		maxAttempts: defaultMaxAttempts,
		batchSize:   batchSize,
		createdAt:   time.Now(),
	}, nil
}

func ReconstructJob(
	id, ownerID uuid.UUID,
	folderID string,
	status JobStatus,
	attempts, maxAttempts, batchSize, totalDiscovered, processed, uploaded, skipped, failed int,
	lastError *string,
	createdAt time.Time,
	startedAt, completedAt *time.Time,
) (*Job, error) {
	if !status.valid() {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "status", "unknown job status")
	}
	return &Job{
		id:              id,
		ownerID:         ownerID,
		folderID:        folderID,
		status:          status,
		attempts:        attempts,
		maxAttempts:     maxAttempts,
		batchSize:       batchSize,
		totalDiscovered: totalDiscovered,
		processed:       processed,
		uploaded:        uploaded,
		skipped:         skipped,
		failed:          failed,
		lastError:       lastError,
		createdAt:       createdAt,
		startedAt:       startedAt,
		completedAt:     completedAt,
	}, nil
}

func (j *Job) ID() uuid.UUID              { return j.id }
func (j *Job) OwnerID() uuid.UUID         { return j.ownerID }
func (j *Job) FolderID() string           { return j.folderID }
func (j *Job) Status() JobStatus          { return j.status }
func (j *Job) Attempts() int              { return j.attempts }
func (j *Job) MaxAttempts() int           { return j.maxAttempts }
func (j *Job) BatchSize() int             { return j.batchSize }
func (j *Job) TotalDiscovered() int       { return j.totalDiscovered }
func (j *Job) Processed() int             { return j.processed }
func (j *Job) Uploaded() int              { return j.uploaded }
func (j *Job) Skipped() int               { return j.skipped }
func (j *Job) Failed() int                { return j.failed }
func (j *Job) LastError() *string         { return j.lastError }
func (j *Job) CreatedAt() time.Time       { return j.createdAt }
func (j *Job) StartedAt() *time.Time      { return j.startedAt }
func (j *Job) CompletedAt() *time.Time    { return j.completedAt }

// CanRetry reports whether a failed job may be re-enqueued.
func (j *Job) CanRetry() bool {
	return j.status == JobStatusFailed && j.attempts < j.maxAttempts
}

// Start acquires ownership of a queued (or retryable failed) job:
// increments attempts and transitions to running.
func (j *Job) Start(at time.Time) error {
	if j.status != JobStatusQueued && !j.CanRetry() {
		return ErrInvalidTransition
	}
	j.attempts++
	j.status = JobStatusRunning
	j.startedAt = &at
	j.lastError = nil
	return nil
}

// SetTotalDiscovered records the listing phase's archive+image count.
func (j *Job) SetTotalDiscovered(n int) { j.totalDiscovered = n }

// ApplyBatchResult folds a commit_batch outcome into the job counters.
func (j *Job) ApplyBatchResult(uploaded, skipped, failed int) {
	j.processed += uploaded + skipped + failed
	j.uploaded += uploaded
	j.skipped += skipped
	j.failed += failed
}

func (j *Job) Complete(at time.Time) error {
	if j.status != JobStatusRunning {
		return ErrInvalidTransition
	}
	j.status = JobStatusCompleted
	j.completedAt = &at
	return nil
}

func (j *Job) Fail(msg string, at time.Time) error {
	if j.status != JobStatusRunning {
		return ErrInvalidTransition
	}
	j.status = JobStatusFailed
	j.lastError = &msg
	j.completedAt = &at
	return nil
}

// Cancel supersedes a sibling job still in {queued, running, failed}
// once another job for the same (owner, folder) completes successfully.
func (j *Job) Cancel(note string, at time.Time) error {
	switch j.status {
	case JobStatusQueued, JobStatusRunning, JobStatusFailed:
	default:
		return ErrInvalidTransition
	}
	j.status = JobStatusCancelled
	j.lastError = &note
	j.completedAt = &at
	return nil
}

// FileState is the per-entry ingestion state tracked in DriveSyncFile.
type FileState string

const (
	FileStatePending   FileState = "pending"
	FileStateCompleted FileState = "completed"
	FileStateFailed    FileState = "failed"
	FileStateSkipped   FileState = "skipped"
)

// CompletionMarkerEntryID is the distinguished source_entry_id value
// that marks "this ZIP container has been fully consumed" on restart.
// Deliberately not "" -- entry_id is empty for a plain non-ZIP download,
// and reusing that value here would make HasCompletionMarker report
// true for any completed non-ZIP file. "\x00zip-complete" starts with
// a NUL byte, which no real ZIP entry path can ever contain.
const CompletionMarkerEntryID = "\x00zip-complete"

// File is a (owner, source_file_id, source_entry_id) tracked unit of
// ingestion work; entry_id is empty for non-ZIP sources.
type File struct {
	ownerID      uuid.UUID
	sourceFileID string
	sourceEntryID string
	state        FileState
	batchNo      int
	errMsg       *string
	processedAt  *time.Time
}

func NewFile(ownerID uuid.UUID, sourceFileID, sourceEntryID string) (*File, error) {
	if err := shared.ValidateUUID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	if sourceFileID == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "source_file_id", "source file id is required")
	}
	return &File{
		ownerID:       ownerID,
		sourceFileID:  sourceFileID,
		sourceEntryID: sourceEntryID,
		state:         FileStatePending,
	}, nil
}

func ReconstructFile(ownerID uuid.UUID, sourceFileID, sourceEntryID string, state FileState, batchNo int, errMsg *string, processedAt *time.Time) *File {
	return &File{
		ownerID:       ownerID,
		sourceFileID:  sourceFileID,
		sourceEntryID: sourceEntryID,
		state:         state,
		batchNo:       batchNo,
		errMsg:        errMsg,
		processedAt:   processedAt,
	}
}

func (f *File) OwnerID() uuid.UUID        { return f.ownerID }
func (f *File) SourceFileID() string      { return f.sourceFileID }
func (f *File) SourceEntryID() string     { return f.sourceEntryID }
func (f *File) State() FileState          { return f.state }
func (f *File) BatchNo() int              { return f.batchNo }
func (f *File) Error() *string            { return f.errMsg }
func (f *File) ProcessedAt() *time.Time   { return f.processedAt }
func (f *File) IsCompletionMarker() bool  { return f.sourceEntryID == CompletionMarkerEntryID && f.state == FileStateCompleted }

func (f *File) MarkCompleted(batchNo int, at time.Time) {
	f.state = FileStateCompleted
	f.batchNo = batchNo
	f.processedAt = &at
	f.errMsg = nil
}

func (f *File) MarkFailed(msg string, batchNo int) {
	f.state = FileStateFailed
	f.batchNo = batchNo
	f.errMsg = &msg
}

// Checkpoint is the one-per-job durable marker of how far commit_batch
// progressed, so a crashed run resumes past the last committed batch.
type Checkpoint struct {
	jobID          uuid.UUID
	lastBatchNo    int
	lastSuccessKey string
}

func NewCheckpoint(jobID uuid.UUID) (*Checkpoint, error) {
	if err := shared.ValidateUUID(jobID, "job_id"); err != nil {
		return nil, err
	}
	return &Checkpoint{jobID: jobID}, nil
}

func ReconstructCheckpoint(jobID uuid.UUID, lastBatchNo int, lastSuccessKey string) *Checkpoint {
	return &Checkpoint{jobID: jobID, lastBatchNo: lastBatchNo, lastSuccessKey: lastSuccessKey}
}

func (c *Checkpoint) JobID() uuid.UUID        { return c.jobID }
func (c *Checkpoint) LastBatchNo() int        { return c.lastBatchNo }
func (c *Checkpoint) LastSuccessKey() string  { return c.lastSuccessKey }

func (c *Checkpoint) Advance(batchNo int, successKey string) {
	c.lastBatchNo = batchNo
	c.lastSuccessKey = successKey
}
