package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/justraqib/semantic-photo/internal/domain/peoplecluster"
	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/infra/queue"
	"github.com/justraqib/semantic-photo/internal/shared"
)

type MockRepository struct {
	mock.Mock
	photo.Repository
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*photo.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*photo.Photo), args.Error(1)
}

func (m *MockRepository) SetEmbedding(ctx context.Context, photoID uuid.UUID, vec []float32) error {
	args := m.Called(ctx, photoID, vec)
	return args.Error(0)
}

func (m *MockRepository) CandidatesForClustering(ctx context.Context, ownerID uuid.UUID, limit int) ([]*photo.Photo, error) {
	return nil, nil
}

func (m *MockRepository) ListByOwnerUploadOrder(ctx context.Context, ownerID uuid.UUID) ([]*photo.Photo, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*photo.Photo), args.Error(1)
}

func (m *MockRepository) ListPersonGroups(ctx context.Context, ownerID uuid.UUID) ([]photo.PersonGroup, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]photo.PersonGroup), args.Error(1)
}

func (m *MockRepository) ClearPersonTags(ctx context.Context, photoID uuid.UUID) error {
	args := m.Called(ctx, photoID)
	return args.Error(0)
}

func (m *MockRepository) EnsureTag(ctx context.Context, name string) (uuid.UUID, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) AddPhotoTag(ctx context.Context, photoID, tagID uuid.UUID, confidence float32, source photo.PhotoTagSource) error {
	args := m.Called(ctx, photoID, tagID, confidence, source)
	return args.Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return nil
}

func (m *MockStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, key string) error { return nil }

func (m *MockStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", nil
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedImage(ctx context.Context, data []byte, mimeType string) ([]float32, error) {
	args := m.Called(ctx, data, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Push(ctx context.Context, name queue.Name, payload any) error {
	args := m.Called(ctx, name, payload)
	return args.Error(0)
}

func (m *MockQueue) PriorityPush(ctx context.Context, name queue.Name, payload any) error {
	return nil
}

func (m *MockQueue) Pop(ctx context.Context, name queue.Name, timeout time.Duration) (string, bool, error) {
	args := m.Called(ctx, name, timeout)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockQueue) Length(ctx context.Context, name queue.Name) (int64, error) {
	return 0, nil
}

func newTestPhoto(t *testing.T) *photo.Photo {
	t.Helper()
	p, err := photo.NewPhoto(photo.NewPhotoInput{
		OwnerID:    uuid.New(),
		StorageKey: "users/abc/photos/1.jpg",
		Mime:       "image/jpeg",
		Source:     photo.SourceManual,
	})
	require.NoError(t, err)
	return p
}

func TestTick_NoJobReturnsWithoutError(t *testing.T) {
	ctx := context.Background()
	q := new(MockQueue)
	repo := new(MockRepository)
	store := new(MockStore)
	embedder := new(MockEmbedder)
	clusterer := peoplecluster.NewClusterer(repo)
	w := NewEmbedWorker(q, repo, store, embedder, clusterer, slog.New(slog.DiscardHandler))

	q.On("Pop", ctx, queue.EmbeddingJobs, popTimeout).Return("", false, nil)

	err := w.tick(ctx)

	require.NoError(t, err)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTick_EmbedsAndStoresOnSuccess(t *testing.T) {
	ctx := context.Background()
	q := new(MockQueue)
	repo := new(MockRepository)
	store := new(MockStore)
	embedder := new(MockEmbedder)
	clusterer := peoplecluster.NewClusterer(repo)
	w := NewEmbedWorker(q, repo, store, embedder, clusterer, slog.New(slog.DiscardHandler))

	p := newTestPhoto(t)
	payload := `{"photo_id":"` + p.ID().String() + `"}`
	vec := make([]float32, photo.EmbedDim)
	vec[0] = 1

	q.On("Pop", ctx, queue.EmbeddingJobs, popTimeout).Return(payload, true, nil)
	repo.On("FindByID", ctx, p.ID()).Return(p, nil)
	store.On("Get", ctx, p.StorageKey()).Return(io.NopCloser(strings.NewReader("bytes")), nil)
	embedder.On("EmbedImage", ctx, []byte("bytes"), p.Mime()).Return(vec, nil)
	repo.On("SetEmbedding", ctx, p.ID(), vec).Return(nil)
	repo.On("ClearPersonTags", ctx, p.ID()).Return(nil)
	repo.On("EnsureTag", ctx, mock.Anything).Return(uuid.New(), nil)
	repo.On("AddPhotoTag", ctx, p.ID(), mock.Anything, mock.Anything, photo.PhotoTagAutoPeople).Return(nil)

	err := w.tick(ctx)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	embedder.AssertExpectations(t)
}

func TestTick_DropsJobForMissingPhoto(t *testing.T) {
	ctx := context.Background()
	q := new(MockQueue)
	repo := new(MockRepository)
	store := new(MockStore)
	embedder := new(MockEmbedder)
	clusterer := peoplecluster.NewClusterer(repo)
	w := NewEmbedWorker(q, repo, store, embedder, clusterer, slog.New(slog.DiscardHandler))

	id := uuid.New()
	payload := `{"photo_id":"` + id.String() + `"}`

	q.On("Pop", ctx, queue.EmbeddingJobs, popTimeout).Return(payload, true, nil)
	repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	err := w.tick(ctx)

	require.NoError(t, err)
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestTick_SkipsAlreadyEmbeddedPhoto(t *testing.T) {
	ctx := context.Background()
	q := new(MockQueue)
	repo := new(MockRepository)
	store := new(MockStore)
	embedder := new(MockEmbedder)
	clusterer := peoplecluster.NewClusterer(repo)
	w := NewEmbedWorker(q, repo, store, embedder, clusterer, slog.New(slog.DiscardHandler))

	p := newTestPhoto(t)
	require.NoError(t, p.SetEmbedding(make([]float32, photo.EmbedDim)))
	payload := `{"photo_id":"` + p.ID().String() + `"}`

	q.On("Pop", ctx, queue.EmbeddingJobs, popTimeout).Return(payload, true, nil)
	repo.On("FindByID", ctx, p.ID()).Return(p, nil)

	err := w.tick(ctx)

	require.NoError(t, err)
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestTick_ReenqueuesOnTransientStoreFailure(t *testing.T) {
	ctx := context.Background()
	q := new(MockQueue)
	repo := new(MockRepository)
	store := new(MockStore)
	embedder := new(MockEmbedder)
	clusterer := peoplecluster.NewClusterer(repo)
	w := &EmbedWorker{q: q, repo: repo, store: store, embedder: embedder, clusterer: clusterer, retryDelay: time.Millisecond, logger: slog.New(slog.DiscardHandler)}

	p := newTestPhoto(t)
	payload := `{"photo_id":"` + p.ID().String() + `"}`

	q.On("Pop", ctx, queue.EmbeddingJobs, popTimeout).Return(payload, true, nil)
	repo.On("FindByID", ctx, p.ID()).Return(p, nil)
	store.On("Get", ctx, p.StorageKey()).Return(nil, errors.New("connection refused"))
	q.On("Push", ctx, queue.EmbeddingJobs, mock.Anything).Return(nil)

	start := time.Now()
	err := w.tick(ctx)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, time.Millisecond)
	q.AssertCalled(t, "Push", ctx, queue.EmbeddingJobs, mock.Anything)
}
