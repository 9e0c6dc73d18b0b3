//go:build integration
// +build integration

package integration

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/justraqib/semantic-photo/internal/domain/album"
	"github.com/justraqib/semantic-photo/internal/domain/dedup"
	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/tests/testdb"
	"github.com/justraqib/semantic-photo/tests/testfixtures"
)

// noopStore is a storage.Store stub that records Delete calls without
// touching any real backend; the reaper calls only Delete on the store,
// so Put, Get and PresignGet are inert.
type noopStore struct {
	mock.Mock
}

func (s *noopStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return nil
}

func (s *noopStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, nil
}

func (s *noopStore) Delete(ctx context.Context, key string) error {
	s.Called(key)
	return nil
}

func (s *noopStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", nil
}

func insertPhotoWithHash(t *testing.T, repo *postgres.PhotoRepository, ownerID uuid.UUID, hash string) *photo.Photo {
	t.Helper()
	in := testfixtures.NewTestPhotoInput(ownerID)
	in.PerceptualHash = hash
	p, err := photo.NewPhoto(in)
	if err != nil {
		t.Fatalf("build photo: %v", err)
	}
	if err := repo.InsertPhoto(context.Background(), p); err != nil {
		t.Fatalf("insert photo: %v", err)
	}
	return p
}

func TestReaper_DeleteAllKeepsNewestPerGroup(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	photoRepo := postgres.NewPhotoRepository(pool)
	albumRepo := postgres.NewAlbumRepository(pool)

	sharedHash := "p:reaperhash00001"
	older := insertPhotoWithHash(t, photoRepo, testfixtures.TestUserID, sharedHash)
	time.Sleep(10 * time.Millisecond)
	newer := insertPhotoWithHash(t, photoRepo, testfixtures.TestUserID, sharedHash)

	a, err := album.NewAlbum(testfixtures.TestUserID, "Has a stale duplicate")
	if err != nil {
		t.Fatalf("build album: %v", err)
	}
	if err := albumRepo.Save(ctx, a); err != nil {
		t.Fatalf("save album: %v", err)
	}
	if err := albumRepo.AddPhoto(ctx, a.ID(), older.ID(), 0); err != nil {
		t.Fatalf("add stale photo to album: %v", err)
	}

	store := new(noopStore)
	store.On("Delete", older.StorageKey()).Return(nil)
	store.On("Delete", older.ThumbnailKey()).Return(nil)

	reaper := dedup.NewReaper(photoRepo, albumRepo, store)

	result, err := reaper.DeleteAll(ctx, testfixtures.TestUserID)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if result.GroupsProcessed != 1 {
		t.Errorf("groups processed = %d, want 1", result.GroupsProcessed)
	}
	if result.PhotosDeleted != 1 {
		t.Errorf("photos deleted = %d, want 1", result.PhotosDeleted)
	}

	if _, err := photoRepo.FindByID(ctx, older.ID()); err == nil {
		t.Error("expected the older duplicate to be hard-deleted")
	}
	if _, err := photoRepo.FindByID(ctx, newer.ID()); err != nil {
		t.Errorf("expected the newer duplicate to survive: %v", err)
	}

	members, err := albumRepo.ListPhotos(ctx, a.ID())
	if err != nil {
		t.Fatalf("list album photos: %v", err)
	}
	if len(members) != 0 {
		t.Error("expected the deleted photo's album membership to be cleaned up")
	}

	store.AssertExpectations(t)
}

func TestReaper_ListDuplicatesEmptyWhenNoCollisions(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	photoRepo := postgres.NewPhotoRepository(pool)
	albumRepo := postgres.NewAlbumRepository(pool)

	testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)

	reaper := dedup.NewReaper(photoRepo, albumRepo, new(noopStore))

	groups, err := reaper.ListDuplicates(ctx, testfixtures.TestUserID)
	if err != nil {
		t.Fatalf("list duplicates: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no duplicate groups, got %d", len(groups))
	}
}
