package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/domain/drivesync"
)

// DriveSyncStateRepository persists drivesync.State via plain SQL over pgx.
type DriveSyncStateRepository struct {
	pool *pgxpool.Pool
}

func NewDriveSyncStateRepository(pool *pgxpool.Pool) *DriveSyncStateRepository {
	return &DriveSyncStateRepository{pool: pool}
}

func (r *DriveSyncStateRepository) Save(ctx context.Context, s *drivesync.State) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO drive_sync_state (owner_id, selected_folder_id, last_sync_at, sync_enabled, last_error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id) DO UPDATE SET
			selected_folder_id = EXCLUDED.selected_folder_id,
			last_sync_at = EXCLUDED.last_sync_at,
			sync_enabled = EXCLUDED.sync_enabled,
			last_error = EXCLUDED.last_error
	`, s.OwnerID(), s.SelectedFolderID(), s.LastSyncAt(), s.SyncEnabled(), s.LastError())
	return err
}

func (r *DriveSyncStateRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*drivesync.State, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, driveSyncStateColumns+`WHERE owner_id = $1`, ownerID)
	return scanDriveSyncState(row)
}

func (r *DriveSyncStateRepository) ListEnabled(ctx context.Context) ([]*drivesync.State, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, driveSyncStateColumns+`WHERE sync_enabled = true AND selected_folder_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*drivesync.State
	for rows.Next() {
		s, err := scanDriveSyncState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

const driveSyncStateColumns = `
	SELECT owner_id, selected_folder_id, last_sync_at, sync_enabled, last_error
	FROM drive_sync_state
`

func scanDriveSyncState(row pgx.Row) (*drivesync.State, error) {
	var (
		ownerID          uuid.UUID
		selectedFolderID *string
		lastSyncAt       *time.Time
		syncEnabled      bool
		lastError        *string
	)
	err := row.Scan(&ownerID, &selectedFolderID, &lastSyncAt, &syncEnabled, &lastError)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return drivesync.ReconstructState(ownerID, selectedFolderID, lastSyncAt, syncEnabled, lastError), nil
}

// DriveSyncJobRepository persists drivesync.Job via plain SQL over pgx.
type DriveSyncJobRepository struct {
	pool *pgxpool.Pool
}

func NewDriveSyncJobRepository(pool *pgxpool.Pool) *DriveSyncJobRepository {
	return &DriveSyncJobRepository{pool: pool}
}

func (r *DriveSyncJobRepository) Save(ctx context.Context, j *drivesync.Job) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO drive_sync_jobs (
			id, owner_id, folder_id, status, attempts, max_attempts, batch_size,
			total_discovered, processed, uploaded, skipped, failed, last_error,
			created_at, started_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			total_discovered = EXCLUDED.total_discovered,
			processed = EXCLUDED.processed,
			uploaded = EXCLUDED.uploaded,
			skipped = EXCLUDED.skipped,
			failed = EXCLUDED.failed,
			last_error = EXCLUDED.last_error,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`, j.ID(), j.OwnerID(), j.FolderID(), j.Status(), j.Attempts(), j.MaxAttempts(), j.BatchSize(),
		j.TotalDiscovered(), j.Processed(), j.Uploaded(), j.Skipped(), j.Failed(), j.LastError(),
		j.CreatedAt(), j.StartedAt(), j.CompletedAt())
	return err
}

func (r *DriveSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*drivesync.Job, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, driveSyncJobColumns+`WHERE id = $1`, id)
	return scanDriveSyncJob(row)
}

func (r *DriveSyncJobRepository) FindSiblings(ctx context.Context, ownerID uuid.UUID, folderID string, excludeJobID uuid.UUID) ([]*drivesync.Job, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, driveSyncJobColumns+`
		WHERE owner_id = $1 AND folder_id = $2 AND id != $3
			AND status IN ('queued', 'running', 'failed')
	`, ownerID, folderID, excludeJobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*drivesync.Job
	for rows.Next() {
		j, err := scanDriveSyncJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

const driveSyncJobColumns = `
	SELECT id, owner_id, folder_id, status, attempts, max_attempts, batch_size,
		total_discovered, processed, uploaded, skipped, failed, last_error,
		created_at, started_at, completed_at
	FROM drive_sync_jobs
`

func scanDriveSyncJob(row pgx.Row) (*drivesync.Job, error) {
	var (
		id, ownerID                                                     uuid.UUID
		folderID                                                        string
		status                                                          drivesync.JobStatus
		attempts, maxAttempts, batchSize                                int
		totalDiscovered, processed, uploaded, skipped, failed           int
		lastError                                                       *string
		createdAt                                                       time.Time
		startedAt, completedAt                                          *time.Time
	)
	err := row.Scan(&id, &ownerID, &folderID, &status, &attempts, &maxAttempts, &batchSize,
		&totalDiscovered, &processed, &uploaded, &skipped, &failed, &lastError,
		&createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return drivesync.ReconstructJob(id, ownerID, folderID, status, attempts, maxAttempts, batchSize,
		totalDiscovered, processed, uploaded, skipped, failed, lastError, createdAt, startedAt, completedAt)
}

// DriveSyncFileRepository persists drivesync.File via plain SQL over pgx.
type DriveSyncFileRepository struct {
	pool *pgxpool.Pool
}

func NewDriveSyncFileRepository(pool *pgxpool.Pool) *DriveSyncFileRepository {
	return &DriveSyncFileRepository{pool: pool}
}

func (r *DriveSyncFileRepository) Save(ctx context.Context, f *drivesync.File) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO drive_sync_files (owner_id, source_file_id, source_entry_id, state, batch_no, error, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, source_file_id, source_entry_id) DO UPDATE SET
			state = EXCLUDED.state,
			batch_no = EXCLUDED.batch_no,
			error = EXCLUDED.error,
			processed_at = EXCLUDED.processed_at
	`, f.OwnerID(), f.SourceFileID(), f.SourceEntryID(), f.State(), f.BatchNo(), f.Error(), f.ProcessedAt())
	return err
}

func (r *DriveSyncFileRepository) Find(ctx context.Context, ownerID uuid.UUID, sourceFileID, sourceEntryID string) (*drivesync.File, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, `
		SELECT owner_id, source_file_id, source_entry_id, state, batch_no, error, processed_at
		FROM drive_sync_files
		WHERE owner_id = $1 AND source_file_id = $2 AND source_entry_id = $3
	`, ownerID, sourceFileID, sourceEntryID)

	var (
		oid                       uuid.UUID
		sourceFile, sourceEntry   string
		state                     drivesync.FileState
		batchNo                   int
		errMsg                    *string
		processedAt               *time.Time
	)
	err := row.Scan(&oid, &sourceFile, &sourceEntry, &state, &batchNo, &errMsg, &processedAt)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return drivesync.ReconstructFile(oid, sourceFile, sourceEntry, state, batchNo, errMsg, processedAt), nil
}

// HasCompletionMarker checks for the distinguished
// entry_id=drivesync.CompletionMarkerEntryID row in
// state=completed, the idempotency signal for skipping a fully-consumed
// ZIP container on restart (spec.md §4.8 step 4).
func (r *DriveSyncFileRepository) HasCompletionMarker(ctx context.Context, ownerID uuid.UUID, sourceFileID string) (bool, error) {
	db := GetDBTX(ctx, r.pool)
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM drive_sync_files
			WHERE owner_id = $1 AND source_file_id = $2
				AND source_entry_id = $3 AND state = $4
		)
	`, ownerID, sourceFileID, drivesync.CompletionMarkerEntryID, drivesync.FileStateCompleted).Scan(&exists)
	return exists, err
}

// DriveSyncCheckpointRepository persists drivesync.Checkpoint via plain
// SQL over pgx.
type DriveSyncCheckpointRepository struct {
	pool *pgxpool.Pool
}

func NewDriveSyncCheckpointRepository(pool *pgxpool.Pool) *DriveSyncCheckpointRepository {
	return &DriveSyncCheckpointRepository{pool: pool}
}

func (r *DriveSyncCheckpointRepository) Save(ctx context.Context, c *drivesync.Checkpoint) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO drive_sync_checkpoints (job_id, last_batch_no, last_success_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE SET
			last_batch_no = EXCLUDED.last_batch_no,
			last_success_key = EXCLUDED.last_success_key
	`, c.JobID(), c.LastBatchNo(), c.LastSuccessKey())
	return err
}

func (r *DriveSyncCheckpointRepository) FindByJob(ctx context.Context, jobID uuid.UUID) (*drivesync.Checkpoint, error) {
	db := GetDBTX(ctx, r.pool)
	var (
		id             uuid.UUID
		lastBatchNo    int
		lastSuccessKey string
	)
	err := db.QueryRow(ctx, `
		SELECT job_id, last_batch_no, last_success_key
		FROM drive_sync_checkpoints
		WHERE job_id = $1
	`, jobID).Scan(&id, &lastBatchNo, &lastSuccessKey)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return drivesync.ReconstructCheckpoint(id, lastBatchNo, lastSuccessKey), nil
}
