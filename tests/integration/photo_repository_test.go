//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"

	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/tests/testdb"
	"github.com/justraqib/semantic-photo/tests/testfixtures"
)

func TestPhotoRepository_InsertAndFindByID(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPhotoRepository(pool)

	p := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)

	found, err := repo.FindByID(ctx, p.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.StorageKey() != p.StorageKey() {
		t.Errorf("storage key = %q, want %q", found.StorageKey(), p.StorageKey())
	}
	if found.OwnerID() != testfixtures.TestUserID {
		t.Errorf("owner id = %s, want %s", found.OwnerID(), testfixtures.TestUserID)
	}
}

func TestPhotoRepository_DedupExists(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPhotoRepository(pool)

	p := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)

	exists, err := repo.DedupExists(ctx, testfixtures.TestUserID, p.PerceptualHash())
	if err != nil {
		t.Fatalf("DedupExists: %v", err)
	}
	if !exists {
		t.Error("expected DedupExists to report true for a live photo's own hash")
	}

	exists, err = repo.DedupExists(ctx, testfixtures.TestUserID, "p:doesnotexist0000")
	if err != nil {
		t.Fatalf("DedupExists: %v", err)
	}
	if exists {
		t.Error("expected DedupExists to report false for an unused hash")
	}
}

func TestPhotoRepository_SourceExists(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPhotoRepository(pool)

	in := testfixtures.NewTestPhotoInput(testfixtures.TestUserID)
	in.Source = photo.SourceDrive
	in.SourceID = testfixtures.StringPtr("drive-file-id-1")
	p, err := photo.NewPhoto(in)
	if err != nil {
		t.Fatalf("build photo: %v", err)
	}
	if err := repo.InsertPhoto(ctx, p); err != nil {
		t.Fatalf("insert photo: %v", err)
	}

	exists, err := repo.SourceExists(ctx, testfixtures.TestUserID, photo.SourceDrive, "drive-file-id-1")
	if err != nil {
		t.Fatalf("SourceExists: %v", err)
	}
	if !exists {
		t.Error("expected SourceExists to report true for the inserted drive file id")
	}
}

func TestPhotoRepository_SetAndGetEmbeddingDrivesSearch(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPhotoRepository(pool)

	p := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)
	vec := testfixtures.RandomEmbedding(0.1)

	if err := repo.SetEmbedding(ctx, p.ID(), vec); err != nil {
		t.Fatalf("SetEmbedding: %v", err)
	}

	got, err := repo.GetEmbedding(ctx, p.ID())
	if err != nil {
		t.Fatalf("GetEmbedding: %v", err)
	}
	if len(got) != photo.EmbedDim {
		t.Fatalf("embedding dim = %d, want %d", len(got), photo.EmbedDim)
	}

	results, err := repo.Search(ctx, testfixtures.TestUserID, vec, 10, 0, 50)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one search result for the photo's own embedding")
	}
	if results[0].Score < 0.99 {
		t.Errorf("expected near-identical self-match score, got %f", results[0].Score)
	}
}

func TestPhotoRepository_SoftDeleteExcludesFromPagination(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPhotoRepository(pool)

	p := testfixtures.CreateTestPhoto(t, pool, testfixtures.TestUserID)

	if err := repo.SoftDelete(ctx, p.ID()); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	live, _, err := repo.PaginatePhotos(ctx, testfixtures.TestUserID, nil, 50, false)
	if err != nil {
		t.Fatalf("PaginatePhotos: %v", err)
	}
	for _, found := range live {
		if found.ID() == p.ID() {
			t.Fatal("soft-deleted photo should not appear in a live-only page")
		}
	}

	withDeleted, _, err := repo.PaginatePhotos(ctx, testfixtures.TestUserID, nil, 50, true)
	if err != nil {
		t.Fatalf("PaginatePhotos(includeDeleted): %v", err)
	}
	var found bool
	for _, p2 := range withDeleted {
		if p2.ID() == p.ID() {
			found = true
		}
	}
	if !found {
		t.Fatal("soft-deleted photo should still appear when includeDeleted is set")
	}
}

func TestPhotoRepository_DuplicateGroupsOrdersNewestFirst(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPhotoRepository(pool)

	sharedHash := "p:sharedhash000001"

	in1 := testfixtures.NewTestPhotoInput(testfixtures.TestUserID)
	in1.PerceptualHash = sharedHash
	p1, err := photo.NewPhoto(in1)
	if err != nil {
		t.Fatalf("build photo: %v", err)
	}
	if err := repo.InsertPhoto(ctx, p1); err != nil {
		t.Fatalf("insert photo 1: %v", err)
	}

	in2 := testfixtures.NewTestPhotoInput(testfixtures.TestUserID)
	in2.PerceptualHash = sharedHash
	p2, err := photo.NewPhoto(in2)
	if err != nil {
		t.Fatalf("build photo: %v", err)
	}
	if err := repo.InsertPhoto(ctx, p2); err != nil {
		t.Fatalf("insert photo 2: %v", err)
	}

	groups, err := repo.DuplicateGroups(ctx, testfixtures.TestUserID)
	if err != nil {
		t.Fatalf("DuplicateGroups: %v", err)
	}

	var group *photo.DuplicateGroup
	for i := range groups {
		if groups[i].PerceptualHash == sharedHash {
			group = &groups[i]
		}
	}
	if group == nil {
		t.Fatal("expected a duplicate group for the shared hash")
	}
	if len(group.Photos) != 2 {
		t.Fatalf("group size = %d, want 2", len(group.Photos))
	}
	if group.Photos[0].UploadedAt().Before(group.Photos[1].UploadedAt()) {
		t.Error("expected newest photo first in duplicate group")
	}
}
