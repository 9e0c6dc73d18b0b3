// Package worker hosts the long-running consumers the pipeline wires
// up: the Embedding Worker (C9) and the drive sync consumer
// (SyncWorker). Grounded in thizplus's
// infrastructure/worker/face_worker.go for the run-loop/retry shape,
// adapted from DB-polling to the durable queue's blocking pop.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/peoplecluster"
	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
	"github.com/justraqib/semantic-photo/internal/infra/storage"
	"github.com/justraqib/semantic-photo/internal/shared"
)

// popTimeout is how long a single blocking pop waits for work, per
// spec.md §5's "queue pop (which blocks up to 1 second per call)".
const popTimeout = 1 * time.Second

// defaultRetryDelay is spec.md §4.9 step 6's fixed re-enqueue backoff.
const defaultRetryDelay = 60 * time.Second

// Embedder is the subset of embedder.Client the worker needs.
type Embedder interface {
	EmbedImage(ctx context.Context, data []byte, mimeType string) ([]float32, error)
}

type embeddingJobPayload struct {
	PhotoID uuid.UUID `json:"photo_id"`
}

// EmbedWorker is spec.md §4.9's long-running consumer: pop a photo id,
// embed it, store the vector, trigger clustering.
type EmbedWorker struct {
	q          queue.Queue
	repo       photo.Repository
	store      storage.Store
	embedder   Embedder
	clusterer  *peoplecluster.Clusterer
	retryDelay time.Duration
	logger     *slog.Logger
	stop       chan struct{}
	done       chan struct{}
}

func NewEmbedWorker(q queue.Queue, repo photo.Repository, store storage.Store, embedder Embedder, clusterer *peoplecluster.Clusterer, logger *slog.Logger) *EmbedWorker {
	return &EmbedWorker{
		q:          q,
		repo:       repo,
		store:      store,
		embedder:   embedder,
		clusterer:  clusterer,
		retryDelay: defaultRetryDelay,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run loops popping jobs until ctx is cancelled or Stop is called.
func (w *EmbedWorker) Run(ctx context.Context) {
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
			w.logger.Error("embed worker tick failed", "error", err)
		}
	}
}

// Stop requests the run loop to exit and blocks until it has.
func (w *EmbedWorker) Stop() {
	close(w.stop)
	<-w.done
}

// tick pops one job and processes it, re-enqueuing with a fixed delay
// on transient failure per spec.md §4.9 step 6.
func (w *EmbedWorker) tick(ctx context.Context) error {
	raw, ok, err := w.q.Pop(ctx, queue.EmbeddingJobs, popTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var job embeddingJobPayload
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.logger.Error("embed worker: malformed job payload, dropping", "error", err)
		return nil
	}

	if retry, err := w.processPhoto(ctx, job.PhotoID); err != nil {
		if retry {
			w.logger.Warn("embed worker: transient failure, retrying", "photo_id", job.PhotoID, "delay", w.retryDelay, "error", err)
			time.Sleep(w.retryDelay)
			return w.q.Push(ctx, queue.EmbeddingJobs, job)
		}
		w.logger.Error("embed worker: permanent failure", "photo_id", job.PhotoID, "error", err)
	}
	return nil
}

// processPhoto runs spec.md §4.9 steps 2-5. The bool return reports
// whether the caller should treat the error as transient (retry) or
// permanent (drop).
func (w *EmbedWorker) processPhoto(ctx context.Context, photoID uuid.UUID) (retry bool, err error) {
	p, err := w.repo.FindByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return true, err
	}
	if p.IsDeleted() || p.HasEmbedding() {
		return false, nil
	}

	r, err := w.store.Get(ctx, p.StorageKey())
	if err != nil {
		return true, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return true, err
	}

	vec, err := w.embedder.EmbedImage(ctx, data, p.Mime())
	if err != nil {
		return true, err
	}

	if err := w.repo.SetEmbedding(ctx, photoID, vec); err != nil {
		return true, err
	}

	if err := p.SetEmbedding(vec); err != nil {
		return false, err
	}
	if err := w.clusterer.AssignForPhoto(ctx, p); err != nil {
		w.logger.Error("embed worker: clustering failed", "photo_id", photoID, "error", err)
	}

	return false, nil
}
