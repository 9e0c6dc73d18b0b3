//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/album"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/tests/testdb"
	"github.com/justraqib/semantic-photo/tests/testfixtures"
)

func TestAlbumRepository_SaveAndFindByID(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewAlbumRepository(pool)

	a, err := album.NewAlbum(testfixtures.TestUserID, "Summer Trip")
	if err != nil {
		t.Fatalf("build album: %v", err)
	}
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("save album: %v", err)
	}

	found, err := repo.FindByID(ctx, a.ID())
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found.Name() != "Summer Trip" {
		t.Errorf("name = %q, want Summer Trip", found.Name())
	}
	if found.IsPublic() {
		t.Error("expected a freshly created album to not be public")
	}
}

func TestAlbumRepository_PublishExposesByPublicToken(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewAlbumRepository(pool)

	a, err := album.NewAlbum(testfixtures.TestUserID, "Shared Album")
	if err != nil {
		t.Fatalf("build album: %v", err)
	}
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("save album: %v", err)
	}

	a.Publish("public-token-1")
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("save published album: %v", err)
	}

	found, err := repo.FindByPublicToken(ctx, "public-token-1")
	if err != nil {
		t.Fatalf("find by public token: %v", err)
	}
	if found.ID() != a.ID() {
		t.Errorf("found album id = %s, want %s", found.ID(), a.ID())
	}
	if !found.IsPublic() {
		t.Error("expected the published album to report IsPublic")
	}
}

func TestAlbumRepository_AddRemoveAndListPhotosInPosition(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewAlbumRepository(pool)

	a, err := album.NewAlbum(testfixtures.TestUserID, "Ordered Album")
	if err != nil {
		t.Fatalf("build album: %v", err)
	}
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("save album: %v", err)
	}

	p1 := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)
	p2 := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)
	p3 := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)

	if err := repo.AddPhoto(ctx, a.ID(), p1.ID(), 0); err != nil {
		t.Fatalf("add photo 1: %v", err)
	}
	if err := repo.AddPhoto(ctx, a.ID(), p2.ID(), 1); err != nil {
		t.Fatalf("add photo 2: %v", err)
	}
	if err := repo.AddPhoto(ctx, a.ID(), p3.ID(), 2); err != nil {
		t.Fatalf("add photo 3: %v", err)
	}

	if err := repo.RemovePhoto(ctx, a.ID(), p2.ID()); err != nil {
		t.Fatalf("remove photo 2: %v", err)
	}

	photos, err := repo.ListPhotos(ctx, a.ID())
	if err != nil {
		t.Fatalf("list photos: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("photo count = %d, want 2", len(photos))
	}
	if photos[0].PhotoID != p1.ID() || photos[1].PhotoID != p3.ID() {
		t.Error("expected remaining photos ordered by position, p1 then p3")
	}
}

func TestAlbumRepository_RemovePhotoFromAllAlbums(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewAlbumRepository(pool)

	a1, _ := album.NewAlbum(testfixtures.TestUserID, "Album One")
	a2, _ := album.NewAlbum(testfixtures.TestUserID, "Album Two")
	if err := repo.Save(ctx, a1); err != nil {
		t.Fatalf("save album 1: %v", err)
	}
	if err := repo.Save(ctx, a2); err != nil {
		t.Fatalf("save album 2: %v", err)
	}

	p := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)
	if err := repo.AddPhoto(ctx, a1.ID(), p.ID(), 0); err != nil {
		t.Fatalf("add to album 1: %v", err)
	}
	if err := repo.AddPhoto(ctx, a2.ID(), p.ID(), 0); err != nil {
		t.Fatalf("add to album 2: %v", err)
	}

	if err := repo.RemovePhotoFromAllAlbums(ctx, p.ID()); err != nil {
		t.Fatalf("remove from all albums: %v", err)
	}

	for _, id := range []uuid.UUID{a1.ID(), a2.ID()} {
		photos, err := repo.ListPhotos(ctx, id)
		if err != nil {
			t.Fatalf("list photos: %v", err)
		}
		if len(photos) != 0 {
			t.Errorf("expected album %s to have no photos left, got %d", id, len(photos))
		}
	}
}
