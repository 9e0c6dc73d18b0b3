// Package syncrunner implements the Sync Job Runner (C8): the hardest
// subsystem in spec.md §4.8. It drives one DriveSyncJob from queued to
// completed/failed — OAuth refresh, breadth-first listing, streaming
// ZIP-aware batch ingestion, checkpointing, and the supersede rule —
// grounded in the teacher's long-running-job patterns but adapted from
// a ticker-polled worker pool to a single job's execution protocol.
package syncrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/drivesource"
	"github.com/justraqib/semantic-photo/internal/domain/drivesync"
	"github.com/justraqib/semantic-photo/internal/domain/drivewalk"
	"github.com/justraqib/semantic-photo/internal/domain/ingest"
	"github.com/justraqib/semantic-photo/internal/domain/user"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
	"github.com/justraqib/semantic-photo/internal/infra/zipunpack"
	"github.com/justraqib/semantic-photo/internal/shared"
)

// driveMax is spec.md §6's DRIVE_MAX: the ceiling for a single plain
// image streamed to memory.
const driveMax = 512 * 1024 * 1024

// reportEvery is spec.md §4.8's "download_percent... reported at >=64
// MiB thresholds" for a streaming ZIP download.
const reportEvery = 64 * 1024 * 1024

// DriveSyncJobPayload is what's pushed onto the drive_sync_jobs queue.
type DriveSyncJobPayload struct {
	JobID uuid.UUID `json:"job_id"`
}

// TxRunner wraps a unit of work in a database transaction, rolling back
// on error. *postgres.TxManager satisfies this without either package
// importing the other.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// pendingEntry is one not-yet-committed descriptor in the runner's
// streaming batch: FileID is the source file id, EntryID is "" for a
// plain image or the nested logical name for a ZIP member.
type pendingEntry struct {
	FileID      string
	EntryID     string
	Name        string
	ClaimedMime string
	Data        []byte
}

func (p pendingEntry) sourceID() string {
	if p.EntryID == "" {
		return p.FileID
	}
	return p.FileID + "::" + p.EntryID
}

// Runner executes spec.md §4.8's full protocol for one job at a time.
type Runner struct {
	jobs        drivesync.JobRepository
	states      drivesync.StateRepository
	files       drivesync.FileRepository
	checkpoints drivesync.CheckpointRepository
	oauthLinks  user.OAuthLinkRepository
	source      drivesource.Source
	ingestor    *ingest.Ingestor
	q           queue.Queue
	tx          TxRunner
	tempDir     string
	pub         Publisher
}

func NewRunner(
	jobs drivesync.JobRepository,
	states drivesync.StateRepository,
	files drivesync.FileRepository,
	checkpoints drivesync.CheckpointRepository,
	oauthLinks user.OAuthLinkRepository,
	source drivesource.Source,
	ingestor *ingest.Ingestor,
	q queue.Queue,
	tx TxRunner,
	tempDir string,
	pub Publisher,
) *Runner {
	return &Runner{
		jobs:        jobs,
		states:      states,
		files:       files,
		checkpoints: checkpoints,
		oauthLinks:  oauthLinks,
		source:      source,
		ingestor:    ingestor,
		q:           q,
		tx:          tx,
		tempDir:     tempDir,
		pub:         pub,
	}
}

// Run executes the full protocol for jobID: acquire ownership, refresh
// OAuth, list the source folder, stream-ingest every entry in batches,
// checkpoint as it goes, and complete or fail the job.
func (r *Runner) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := r.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	if err := job.Start(time.Now()); err != nil {
		return err
	}
	if err := r.jobs.Save(ctx, job); err != nil {
		return err
	}

	t := newTracker(r.pub, job.ID(), job.BatchSize())
	t.setPhase(PhaseAuth, "")

	link, err := r.findDriveLink(ctx, job.OwnerID())
	if err != nil {
		return r.failJob(ctx, job, t, "no active drive link: "+err.Error())
	}

	tokenSet, err := r.source.RefreshToken(ctx, link.RefreshToken())
	if err != nil {
		return r.handleAuthFailure(ctx, job, t, link, err)
	}
	link.SetRefreshToken(tokenSet.RefreshToken)
	if err := r.oauthLinks.Save(ctx, link); err != nil {
		return r.failJob(ctx, job, t, err.Error())
	}

	t.setPhase(PhaseListing, "")
	entries, err := drivewalk.Walk(ctx, r.source, tokenSet.AccessToken, job.FolderID())
	if err != nil {
		return r.failJob(ctx, job, t, err.Error())
	}

	var zipTotal int
	for _, e := range entries {
		if e.IsArchive {
			zipTotal++
		}
	}
	job.SetTotalDiscovered(len(entries))
	if err := r.jobs.Save(ctx, job); err != nil {
		return r.failJob(ctx, job, t, err.Error())
	}
	t.setTotals(len(entries), zipTotal, 0)

	var pending []pendingEntry
	batchNo := 0

	for _, e := range entries {
		if e.IsArchive {
			marked, err := r.files.HasCompletionMarker(ctx, job.OwnerID(), e.ID)
			if err != nil {
				return r.failJob(ctx, job, t, err.Error())
			}
			if marked {
				continue
			}

			if len(pending) > 0 {
				batchNo++
				if err := r.commitBatch(ctx, job, t, batchNo, pending); err != nil {
					return r.failJob(ctx, job, t, err.Error())
				}
				pending = nil
			}

			t.setPhase(PhaseDownloadingZip, e.Name)
			if err := r.ingestZipContainer(ctx, job, t, &batchNo, &pending, e, tokenSet.AccessToken); err != nil {
				if shared.IsArchiveInvalid(err) {
					t.recordFailure(e.Name, err.Error())
					continue
				}
				return r.failJob(ctx, job, t, err.Error())
			}

			marker, err := drivesync.NewFile(job.OwnerID(), e.ID, drivesync.CompletionMarkerEntryID)
			if err != nil {
				return r.failJob(ctx, job, t, err.Error())
			}
			marker.MarkCompleted(batchNo, time.Now())
			if err := r.files.Save(ctx, marker); err != nil {
				return r.failJob(ctx, job, t, err.Error())
			}
		} else {
			if e.Size > driveMax {
				t.recordFailure(e.Name, "exceeds DRIVE_MAX")
				continue
			}

			t.setPhase(PhaseImporting, e.Name)
			data, err := r.downloadToMemory(ctx, tokenSet.AccessToken, e.ID)
			if err != nil {
				t.recordFailure(e.Name, err.Error())
				continue
			}

			pending = append(pending, pendingEntry{FileID: e.ID, Name: e.Name, ClaimedMime: e.MimeType, Data: data})
			if len(pending) >= job.BatchSize() {
				batchNo++
				if err := r.commitBatch(ctx, job, t, batchNo, pending); err != nil {
					return r.failJob(ctx, job, t, err.Error())
				}
				pending = nil
			}
		}

		cancelled, err := r.isCancelled(ctx, job.ID())
		if err == nil && cancelled {
			t.setMessage("cancelled")
			return nil
		}
	}

	if len(pending) > 0 {
		batchNo++
		if err := r.commitBatch(ctx, job, t, batchNo, pending); err != nil {
			return r.failJob(ctx, job, t, err.Error())
		}
	}

	if state, err := r.states.FindByOwner(ctx, job.OwnerID()); err == nil {
		state.RecordSuccess(time.Now())
		_ = r.states.Save(ctx, state)
	}

	if err := job.Complete(time.Now()); err != nil {
		return err
	}
	if err := r.jobs.Save(ctx, job); err != nil {
		return err
	}
	t.setPhase(PhaseCompleted, "")

	siblings, err := r.jobs.FindSiblings(ctx, job.OwnerID(), job.FolderID(), job.ID())
	if err == nil {
		for _, sib := range siblings {
			if err := sib.Cancel("superseded", time.Now()); err == nil {
				_ = r.jobs.Save(ctx, sib)
			}
		}
	}

	return nil
}

// downloadToMemory fetches a plain image's bytes, bounding the read at
// driveMax+1 so a source that lies about content-length can't exhaust
// memory.
func (r *Runner) downloadToMemory(ctx context.Context, accessToken, fileID string) ([]byte, error) {
	rc, _, err := r.source.Download(ctx, accessToken, fileID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, driveMax+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > driveMax {
		return nil, fmt.Errorf("exceeds DRIVE_MAX")
	}
	return data, nil
}

// ingestZipContainer streams a ZIP to a temp file, unpacks it, and
// appends every extracted image to *pending, committing whenever the
// batch fills. After extraction, any final partial batch FROM THIS
// CONTAINER is committed before the caller writes the completion
// marker, per spec.md §4.8 step 4.
func (r *Runner) ingestZipContainer(ctx context.Context, job *drivesync.Job, t *tracker, batchNo *int, pending *[]pendingEntry, e drivewalk.Entry, accessToken string) error {
	rc, size, err := r.source.Download(ctx, accessToken, e.ID)
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(r.tempDir, "drivesync-*.zip")
	if err != nil {
		return fmt.Errorf("create temp zip: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := r.streamToFile(tmp, rc, size, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	t.setPhase(PhaseExtracting, e.Name)

	opts := zipunpack.DefaultOptions()
	opts.TempDir = r.tempDir

	var extracted int
	err = zipunpack.ExtractFile(tmpPath, opts, func(entry zipunpack.Entry) error {
		defer os.Remove(entry.Path)
		data, readErr := os.ReadFile(entry.Path)
		if readErr != nil {
			t.recordFailure(entry.LogicalName, readErr.Error())
			return nil
		}

		extracted++
		*pending = append(*pending, pendingEntry{FileID: e.ID, EntryID: entry.LogicalName, Name: entry.LogicalName, ClaimedMime: entry.MimeType, Data: data})
		if len(*pending) >= job.BatchSize() {
			*batchNo++
			if cerr := r.commitBatch(ctx, job, t, *batchNo, *pending); cerr != nil {
				return cerr
			}
			*pending = nil
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(*pending) > 0 {
		*batchNo++
		if err := r.commitBatch(ctx, job, t, *batchNo, *pending); err != nil {
			return err
		}
		*pending = nil
	}

	// pending is guaranteed empty at this point either way (the caller
	// flushes it before calling in, and every append above is matched by
	// a commit), so it can't tell us whether THIS container produced
	// anything. extracted can: zero means the ZIP had no decodeable
	// images at all, per spec.md's boundary case -- count it as one
	// failed unit for the container so job.failed reflects it.
	if extracted == 0 {
		job.ApplyBatchResult(0, 0, 1)
		if err := r.jobs.Save(ctx, job); err != nil {
			return err
		}
		t.recordFailure(e.Name, "zip contained no decodeable images")
	}

	return nil
}

func (r *Runner) streamToFile(dst *os.File, src io.Reader, totalSize int64, t *tracker) error {
	buf := make([]byte, 1<<20)
	var downloaded, nextReport int64 = 0, reportEvery

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			downloaded += int64(n)
			if downloaded >= nextReport {
				t.setDownloadProgress(downloaded/(1024*1024), totalSize/(1024*1024))
				nextReport += reportEvery
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// commitBatch runs spec.md §4.8's commit_batch inside a single
// transaction: upsert tracking rows, ingest new photos, advance the
// checkpoint. Embedding jobs are pushed only after the transaction
// commits, so a rolled-back batch never enqueues photos that don't
// exist.
func (r *Runner) commitBatch(ctx context.Context, job *drivesync.Job, t *tracker, batchNo int, items []pendingEntry) error {
	var uploaded, skipped, failed int
	var newPhotoIDs []uuid.UUID

	err := r.tx.WithTx(ctx, func(ctx context.Context) error {
		uploaded, skipped, failed = 0, 0, 0
		newPhotoIDs = nil

		for _, item := range items {
			existing, err := r.files.Find(ctx, job.OwnerID(), item.FileID, item.EntryID)
			if err != nil && !shared.IsNotFound(err) {
				return err
			}
			if existing != nil && existing.State() == drivesync.FileStateCompleted {
				skipped++
				continue
			}

			photoID, uploadedOne, skippedOne, err := r.ingestor.IngestDriveEntry(ctx, job.OwnerID(), item.sourceID(), item.Name, item.ClaimedMime, item.Data)
			if err != nil {
				return fmt.Errorf("commit batch: %w", err)
			}

			f, err := drivesync.NewFile(job.OwnerID(), item.FileID, item.EntryID)
			if err != nil {
				return err
			}
			switch {
			case uploadedOne:
				f.MarkCompleted(batchNo, time.Now())
				uploaded++
				newPhotoIDs = append(newPhotoIDs, photoID)
			case skippedOne:
				f.MarkCompleted(batchNo, time.Now())
				skipped++
			default:
				f.MarkFailed("ingest failed", batchNo)
				failed++
				t.recordFailure(item.Name, "ingest failed")
			}
			if err := r.files.Save(ctx, f); err != nil {
				return err
			}
		}

		job.ApplyBatchResult(uploaded, skipped, failed)
		if err := r.jobs.Save(ctx, job); err != nil {
			return err
		}

		cp, err := r.checkpoints.FindByJob(ctx, job.ID())
		if err != nil {
			if !shared.IsNotFound(err) {
				return err
			}
			cp, err = drivesync.NewCheckpoint(job.ID())
			if err != nil {
				return err
			}
		}
		lastKey := ""
		if len(items) > 0 {
			lastKey = items[len(items)-1].sourceID()
		}
		cp.Advance(batchNo, lastKey)
		return r.checkpoints.Save(ctx, cp)
	})
	if err != nil {
		return err
	}

	for _, pid := range newPhotoIDs {
		_ = r.q.Push(ctx, queue.EmbeddingJobs, ingest.EmbeddingJobPayload{PhotoID: pid})
	}
	t.addBatchResult(batchNo, uploaded, skipped, failed)
	return nil
}

func (r *Runner) isCancelled(ctx context.Context, jobID uuid.UUID) (bool, error) {
	fresh, err := r.jobs.FindByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	return fresh.Status() == drivesync.JobStatusCancelled, nil
}

func (r *Runner) findDriveLink(ctx context.Context, ownerID uuid.UUID) (*user.OAuthLink, error) {
	links, err := r.oauthLinks.FindByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.Provider() == user.ProviderDrive && !l.IsRevoked() {
			return l, nil
		}
	}
	return nil, errors.New("no active drive link for owner")
}

// failJob transitions job to failed, records the message, re-enqueues
// it when attempts remain, and returns an error describing the cause
// per spec.md §4.8 step 6.
func (r *Runner) failJob(ctx context.Context, job *drivesync.Job, t *tracker, msg string) error {
	if err := job.Fail(msg, time.Now()); err != nil {
		return err
	}
	_ = r.jobs.Save(ctx, job)
	t.setMessage(msg)

	if job.CanRetry() {
		_ = r.q.Push(ctx, queue.DriveSyncJobs, DriveSyncJobPayload{JobID: job.ID()})
	}
	return fmt.Errorf("sync job %s failed: %s", job.ID(), msg)
}

// handleAuthFailure implements spec.md §7's "SourceAuthRevoked disables
// the user's sync flag and records a user-visible last_error".
func (r *Runner) handleAuthFailure(ctx context.Context, job *drivesync.Job, t *tracker, link *user.OAuthLink, cause error) error {
	msg := fmt.Sprintf("source auth refresh failed: %v", cause)
	if err := job.Fail(msg, time.Now()); err != nil {
		return err
	}
	_ = r.jobs.Save(ctx, job)

	if state, err := r.states.FindByOwner(ctx, job.OwnerID()); err == nil {
		state.Disable()
		state.RecordFailure(msg)
		_ = r.states.Save(ctx, state)
	}
	t.setMessage(msg)

	return fmt.Errorf("%w: %v", shared.ErrSourceAuthRevoked, cause)
}
