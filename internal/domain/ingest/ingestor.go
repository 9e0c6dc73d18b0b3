// Package ingest implements the Upload Ingestor (C6): the per-file
// pipeline that turns raw upload bytes (or a ZIP full of them) into
// rows in the Photo Repository and entries on the embedding queue.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/infra/imageutil"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
	"github.com/justraqib/semantic-photo/internal/infra/storage"
	"github.com/justraqib/semantic-photo/internal/infra/zipunpack"
	"github.com/justraqib/semantic-photo/internal/shared"
)

// MaxFileSize is spec.md §4.6's per-entry ceiling: 50 MiB.
const MaxFileSize = 50 * 1024 * 1024

// InputFile is one upload batch entry as the HTTP layer hands it in:
// claimed filename/mime plus its raw bytes (or, for a ZIP, the bytes of
// the container itself).
type InputFile struct {
	Filename    string
	ClaimedMime string
	Data        []byte
}

// Result is the ingestor's contract per spec.md §4.6.
type Result struct {
	Uploaded int
	Skipped  int
	Failed   int
}

// EmbeddingJobPayload is what's pushed onto the embedding_jobs queue.
type EmbeddingJobPayload struct {
	PhotoID uuid.UUID `json:"photo_id"`
}

// Ingestor wires the object store, image utilities, ZIP unpacker, photo
// repository, and job queue into the 8-step pipeline, grounded in the
// teacher's itemphoto.Service.UploadPhoto (validate -> temp file ->
// process -> storage.Save -> row insert -> best-effort enqueue).
type Ingestor struct {
	store      storage.Store
	repo       photo.Repository
	q          queue.Queue
	thumbCfg   imageutil.Config
	tempDir    string
}

func NewIngestor(store storage.Store, repo photo.Repository, q queue.Queue, thumbCfg imageutil.Config, tempDir string) *Ingestor {
	return &Ingestor{store: store, repo: repo, q: q, thumbCfg: thumbCfg, tempDir: tempDir}
}

// Upload runs the full 8-step pipeline over every input file, expanding
// ZIPs into their constituent images first. A storage error aborts the
// whole batch with ErrStorageUnavailable; per-entry decode/hash errors
// are counted as Failed and the batch continues.
func (in *Ingestor) Upload(ctx context.Context, ownerID uuid.UUID, files []InputFile) (Result, error) {
	var result Result

	for _, f := range files {
		if isZip(f.Filename, f.ClaimedMime) {
			zipResult, err := in.ingestZip(ctx, ownerID, f.Data)
			if err != nil {
				return result, err
			}
			result.Uploaded += zipResult.Uploaded
			result.Skipped += zipResult.Skipped
			result.Failed += zipResult.Failed
			continue
		}

		outcome, err := in.ingestOne(ctx, ownerID, f.Filename, f.ClaimedMime, f.Data)
		if err != nil {
			return result, err
		}
		tallyOutcome(&result, outcome)
	}

	return result, nil
}

// Preview performs steps 1-4 (ZIP expansion, magic-byte validation,
// size check, dedup check) without writing anything, and reports the
// counts a real Upload would produce.
func (in *Ingestor) Preview(ctx context.Context, ownerID uuid.UUID, files []InputFile) (Result, error) {
	var result Result

	for _, f := range files {
		if isZip(f.Filename, f.ClaimedMime) {
			zr, err := in.previewZip(ctx, ownerID, f.Data)
			if err != nil {
				return result, err
			}
			result.Uploaded += zr.Uploaded
			result.Skipped += zr.Skipped
			result.Failed += zr.Failed
			continue
		}

		outcome := in.previewEntry(ctx, ownerID, f.Filename, f.ClaimedMime, f.Data)
		tallyOutcome(&result, outcome)
	}

	return result, nil
}

type entryOutcome int

const (
	outcomeUploaded entryOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func tallyOutcome(r *Result, o entryOutcome) {
	switch o {
	case outcomeUploaded:
		r.Uploaded++
	case outcomeSkipped:
		r.Skipped++
	case outcomeFailed:
		r.Failed++
	}
}

func (in *Ingestor) ingestZip(ctx context.Context, ownerID uuid.UUID, data []byte) (Result, error) {
	var result Result

	tmp, err := os.CreateTemp(in.tempDir, "upload-*.zip")
	if err != nil {
		return result, fmt.Errorf("create temp zip: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return result, fmt.Errorf("write temp zip: %w", err)
	}
	tmp.Close()

	opts := zipunpack.DefaultOptions()
	opts.TempDir = in.tempDir

	err = zipunpack.ExtractFile(tmpPath, opts, func(e zipunpack.Entry) error {
		defer os.Remove(e.Path)
		entryData, readErr := os.ReadFile(e.Path)
		if readErr != nil {
			result.Failed++
			return nil
		}
		outcome, uploadErr := in.ingestOne(ctx, ownerID, e.LogicalName, e.MimeType, entryData)
		if uploadErr != nil {
			return uploadErr
		}
		tallyOutcome(&result, outcome)
		return nil
	})
	if err != nil {
		if shared.IsArchiveInvalid(err) {
			result.Failed++
			return result, nil
		}
		return result, err
	}

	return result, nil
}

func (in *Ingestor) previewZip(ctx context.Context, ownerID uuid.UUID, data []byte) (Result, error) {
	var result Result

	tmp, err := os.CreateTemp(in.tempDir, "preview-*.zip")
	if err != nil {
		return result, fmt.Errorf("create temp zip: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return result, fmt.Errorf("write temp zip: %w", err)
	}
	tmp.Close()

	opts := zipunpack.DefaultOptions()
	opts.TempDir = in.tempDir

	err = zipunpack.ExtractFile(tmpPath, opts, func(e zipunpack.Entry) error {
		defer os.Remove(e.Path)
		entryData, readErr := os.ReadFile(e.Path)
		if readErr != nil {
			result.Failed++
			return nil
		}
		tallyOutcome(&result, in.previewEntry(ctx, ownerID, e.LogicalName, e.MimeType, entryData))
		return nil
	})
	if err != nil {
		if shared.IsArchiveInvalid(err) {
			result.Failed++
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// previewEntry runs steps 1-4 only: magic-byte check, size check, phash
// + dedup lookup. No decoding of thumbnail/EXIF, no writes.
func (in *Ingestor) previewEntry(ctx context.Context, ownerID uuid.UUID, filename, claimedMime string, data []byte) entryOutcome {
	if int64(len(data)) > MaxFileSize {
		return outcomeFailed
	}

	actualMime, ok := imageutil.DetectType(filename, data)
	if !ok || (claimedMime != "" && !mimeCompatible(claimedMime, actualMime)) {
		return outcomeFailed
	}

	hash, err := imageutil.PerceptualHash(data)
	if err != nil {
		return outcomeFailed
	}

	dup, err := in.repo.DedupExists(ctx, ownerID, hash)
	if err != nil {
		return outcomeFailed
	}
	if dup {
		return outcomeSkipped
	}

	return outcomeUploaded
}

// ingestOne runs the full 8-step pipeline for a single entry already
// known not to be a ZIP.
func (in *Ingestor) ingestOne(ctx context.Context, ownerID uuid.UUID, filename, claimedMime string, data []byte) (entryOutcome, error) {
	if int64(len(data)) > MaxFileSize {
		return outcomeFailed, nil
	}

	actualMime, ok := imageutil.DetectType(filename, data)
	if !ok {
		return outcomeFailed, nil
	}
	if claimedMime != "" && !mimeCompatible(claimedMime, actualMime) {
		return outcomeFailed, nil
	}

	hash, err := imageutil.PerceptualHash(data)
	if err != nil {
		return outcomeFailed, nil
	}

	dup, err := in.repo.DedupExists(ctx, ownerID, hash)
	if err != nil {
		return outcomeFailed, nil
	}
	if dup {
		return outcomeSkipped, nil
	}

	dims, err := imageutil.GetDimensions(data)
	if err != nil {
		return outcomeFailed, nil
	}

	thumb, err := imageutil.MakeThumbnail(data, in.thumbCfg)
	if err != nil {
		return outcomeFailed, nil
	}
	exif := imageutil.ExtractEXIF(data)

	id := shared.NewUUID()
	originalKey := objectKey(ownerID, id, "photos", extensionFor(actualMime))
	thumbnailKey := objectKey(ownerID, id, "thumbnails", "webp")

	if err := in.store.Put(ctx, originalKey, bytes.NewReader(data), int64(len(data)), actualMime); err != nil {
		return outcomeFailed, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}
	if err := in.store.Put(ctx, thumbnailKey, bytes.NewReader(thumb), int64(len(thumb)), "image/webp"); err != nil {
		return outcomeFailed, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}

	p, err := photo.NewPhoto(photo.NewPhotoInput{
		OwnerID:          ownerID,
		StorageKey:       originalKey,
		ThumbnailKey:     thumbnailKey,
		OriginalFilename: filename,
		SizeBytes:        int64(len(data)),
		Mime:             actualMime,
		Width:            dims.Width,
		Height:           dims.Height,
		TakenAt:          exifTakenAt(exif),
		Source:           photo.SourceManual,
		PerceptualHash:   hash,
		GPSLat:           exifLat(exif),
		GPSLng:           exifLng(exif),
		CameraMake:       exifMake(exif),
	})
	if err != nil {
		return outcomeFailed, nil
	}

	if err := in.repo.InsertPhoto(ctx, p); err != nil {
		return outcomeFailed, nil
	}

	// Best-effort enqueue, mirroring the teacher's asynq enqueue after
	// SetAsynqClient: a queue outage must not fail the upload.
	_ = in.q.Push(ctx, queue.EmbeddingJobs, EmbeddingJobPayload{PhotoID: p.ID()})

	return outcomeUploaded, nil
}

// IngestDriveEntry mirrors ingestOne's pipeline for a single Drive-
// sourced entry: source=drive, source_id is the caller-derived composite
// id (the file id itself, or "<file_id>::<nested_logical_name>" for a
// ZIP member). It does not push to embedding_jobs — the Sync Job
// Runner's commit_batch pushes once per committed batch, not per entry.
// Returns the new photo id on upload; skipped=true for a dedup or
// idempotent-replay hit; uploaded=false with skipped=false is a per-entry
// failure the caller should count and continue past. A non-nil err is
// a storage failure that should abort the whole batch.
func (in *Ingestor) IngestDriveEntry(ctx context.Context, ownerID uuid.UUID, sourceID, filename, claimedMime string, data []byte) (photoID uuid.UUID, uploaded, skipped bool, err error) {
	if int64(len(data)) > MaxFileSize {
		return uuid.Nil, false, false, nil
	}

	actualMime, ok := imageutil.DetectType(filename, data)
	if !ok {
		return uuid.Nil, false, false, nil
	}
	if claimedMime != "" && !mimeCompatible(claimedMime, actualMime) {
		return uuid.Nil, false, false, nil
	}

	exists, err := in.repo.SourceExists(ctx, ownerID, photo.SourceDrive, sourceID)
	if err != nil {
		return uuid.Nil, false, false, nil
	}
	if exists {
		return uuid.Nil, false, true, nil
	}

	hash, err := imageutil.PerceptualHash(data)
	if err != nil {
		return uuid.Nil, false, false, nil
	}

	dup, err := in.repo.DedupExists(ctx, ownerID, hash)
	if err != nil {
		return uuid.Nil, false, false, nil
	}
	if dup {
		return uuid.Nil, false, true, nil
	}

	dims, err := imageutil.GetDimensions(data)
	if err != nil {
		return uuid.Nil, false, false, nil
	}

	thumb, err := imageutil.MakeThumbnail(data, in.thumbCfg)
	if err != nil {
		return uuid.Nil, false, false, nil
	}
	exif := imageutil.ExtractEXIF(data)

	id := shared.NewUUID()
	originalKey := objectKey(ownerID, id, "photos", extensionFor(actualMime))
	thumbnailKey := objectKey(ownerID, id, "thumbnails", "webp")

	if err := in.store.Put(ctx, originalKey, bytes.NewReader(data), int64(len(data)), actualMime); err != nil {
		return uuid.Nil, false, false, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}
	if err := in.store.Put(ctx, thumbnailKey, bytes.NewReader(thumb), int64(len(thumb)), "image/webp"); err != nil {
		return uuid.Nil, false, false, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}

	p, err := photo.NewPhoto(photo.NewPhotoInput{
		OwnerID:          ownerID,
		StorageKey:       originalKey,
		ThumbnailKey:     thumbnailKey,
		OriginalFilename: filename,
		SizeBytes:        int64(len(data)),
		Mime:             actualMime,
		Width:            dims.Width,
		Height:           dims.Height,
		TakenAt:          exifTakenAt(exif),
		Source:           photo.SourceDrive,
		SourceID:         &sourceID,
		PerceptualHash:   hash,
		GPSLat:           exifLat(exif),
		GPSLng:           exifLng(exif),
		CameraMake:       exifMake(exif),
	})
	if err != nil {
		return uuid.Nil, false, false, nil
	}

	if err := in.repo.InsertPhoto(ctx, p); err != nil {
		return uuid.Nil, false, false, nil
	}

	return p.ID(), true, false, nil
}

func isZip(filename, claimedMime string) bool {
	if claimedMime == "application/zip" || claimedMime == "application/x-zip-compressed" {
		return true
	}
	return len(filename) > 4 && filename[len(filename)-4:] == ".zip"
}

func mimeCompatible(claimed, actual string) bool {
	return claimed == actual
}

func objectKey(ownerID uuid.UUID, id uuid.UUID, kind, ext string) string {
	return fmt.Sprintf("users/%s/%s/%s.%s", ownerID, kind, id, ext)
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	default:
		return "bin"
	}
}

func exifTakenAt(rec imageutil.EXIFRecord) *time.Time {
	if rec.TakenAt.IsZero() {
		return nil
	}
	t := rec.TakenAt
	return &t
}

func exifLat(rec imageutil.EXIFRecord) *float64 {
	if !rec.HasGPS {
		return nil
	}
	lat := rec.Latitude
	return &lat
}

func exifLng(rec imageutil.EXIFRecord) *float64 {
	if !rec.HasGPS {
		return nil
	}
	lng := rec.Longitude
	return &lng
}

func exifMake(rec imageutil.EXIFRecord) *string {
	if rec.Make == "" {
		return nil
	}
	cameraMake := rec.Make
	return &cameraMake
}
