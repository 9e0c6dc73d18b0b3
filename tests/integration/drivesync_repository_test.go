//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/justraqib/semantic-photo/internal/domain/drivesync"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/tests/testdb"
	"github.com/justraqib/semantic-photo/tests/testfixtures"
)

func TestDriveSyncStateRepository_SaveAndFindByOwner(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewDriveSyncStateRepository(pool)

	s, err := drivesync.NewState(testfixtures.TestUserID)
	if err != nil {
		t.Fatalf("build state: %v", err)
	}
	s.SelectFolder("folder-123")
	s.Enable()

	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save state: %v", err)
	}

	found, err := repo.FindByOwner(ctx, testfixtures.TestUserID)
	if err != nil {
		t.Fatalf("find by owner: %v", err)
	}
	if found.SelectedFolderID() == nil || *found.SelectedFolderID() != "folder-123" {
		t.Errorf("selected folder = %v, want folder-123", found.SelectedFolderID())
	}
	if !found.SyncEnabled() {
		t.Error("expected sync_enabled to be true")
	}
}

func TestDriveSyncStateRepository_ListEnabledOnlyReturnsConfiguredOwners(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewDriveSyncStateRepository(pool)

	owner := testfixtures.CreateTestUser(t, pool)

	disabled, err := drivesync.NewState(testfixtures.TestUserID)
	if err != nil {
		t.Fatalf("build state: %v", err)
	}
	disabled.SelectFolder("folder-abc")
	if err := repo.Save(ctx, disabled); err != nil {
		t.Fatalf("save disabled state: %v", err)
	}

	enabled, err := drivesync.NewState(owner)
	if err != nil {
		t.Fatalf("build state: %v", err)
	}
	enabled.SelectFolder("folder-xyz")
	enabled.Enable()
	if err := repo.Save(ctx, enabled); err != nil {
		t.Fatalf("save enabled state: %v", err)
	}

	states, err := repo.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	var sawEnabled, sawDisabled bool
	for _, st := range states {
		switch st.OwnerID() {
		case owner:
			sawEnabled = true
		case testfixtures.TestUserID:
			sawDisabled = true
		}
	}
	if !sawEnabled {
		t.Error("expected the enabled owner to appear in ListEnabled")
	}
	if sawDisabled {
		t.Error("did not expect the disabled owner to appear in ListEnabled")
	}
}

func TestDriveSyncJobRepository_SaveFindAndSiblings(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewDriveSyncJobRepository(pool)

	j, err := drivesync.NewJob(drivesync.NewJobInput{
		OwnerID:  testfixtures.TestUserID,
		FolderID: "folder-shared",
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if err := repo.Save(ctx, j); err != nil {
		t.Fatalf("save job: %v", err)
	}

	found, err := repo.FindByID(ctx, j.ID())
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found.FolderID() != "folder-shared" {
		t.Errorf("folder id = %q, want folder-shared", found.FolderID())
	}
	if found.Status() != drivesync.JobStatusQueued {
		t.Errorf("status = %q, want queued", found.Status())
	}

	sibling, err := drivesync.NewJob(drivesync.NewJobInput{
		OwnerID:  testfixtures.TestUserID,
		FolderID: "folder-shared",
	})
	if err != nil {
		t.Fatalf("build sibling job: %v", err)
	}
	if err := repo.Save(ctx, sibling); err != nil {
		t.Fatalf("save sibling job: %v", err)
	}

	siblings, err := repo.FindSiblings(ctx, testfixtures.TestUserID, "folder-shared", sibling.ID())
	if err != nil {
		t.Fatalf("find siblings: %v", err)
	}
	var foundFirst bool
	for _, s := range siblings {
		if s.ID() == j.ID() {
			foundFirst = true
		}
		if s.ID() == sibling.ID() {
			t.Error("FindSiblings should exclude the job being checked")
		}
	}
	if !foundFirst {
		t.Error("expected the first job to appear as a sibling of the second")
	}
}

func TestDriveSyncFileRepository_SaveFindAndCompletionMarker(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewDriveSyncFileRepository(pool)

	f, err := drivesync.NewFile(testfixtures.TestUserID, "drive-file-1", "entry-1")
	if err != nil {
		t.Fatalf("build file: %v", err)
	}
	f.MarkCompleted(1, time.Now())

	if err := repo.Save(ctx, f); err != nil {
		t.Fatalf("save file: %v", err)
	}

	found, err := repo.Find(ctx, testfixtures.TestUserID, "drive-file-1", "entry-1")
	if err != nil {
		t.Fatalf("find file: %v", err)
	}
	if found.State() != drivesync.FileStateCompleted {
		t.Errorf("state = %q, want completed", found.State())
	}

	marker, err := drivesync.NewFile(testfixtures.TestUserID, "drive-file-1", drivesync.CompletionMarkerEntryID)
	if err != nil {
		t.Fatalf("build completion marker: %v", err)
	}
	marker.MarkCompleted(1, time.Now())
	if err := repo.Save(ctx, marker); err != nil {
		t.Fatalf("save completion marker: %v", err)
	}

	has, err := repo.HasCompletionMarker(ctx, testfixtures.TestUserID, "drive-file-1")
	if err != nil {
		t.Fatalf("has completion marker: %v", err)
	}
	if !has {
		t.Error("expected HasCompletionMarker to report true once the marker entry is completed")
	}

	has, err = repo.HasCompletionMarker(ctx, testfixtures.TestUserID, "drive-file-unseen")
	if err != nil {
		t.Fatalf("has completion marker: %v", err)
	}
	if has {
		t.Error("expected HasCompletionMarker to report false for a file never synced")
	}
}

func TestDriveSyncCheckpointRepository_SaveAndFindByJobUpserts(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()
	jobRepo := postgres.NewDriveSyncJobRepository(pool)
	repo := postgres.NewDriveSyncCheckpointRepository(pool)

	j, err := drivesync.NewJob(drivesync.NewJobInput{
		OwnerID:  testfixtures.TestUserID,
		FolderID: "folder-checkpoint",
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if err := jobRepo.Save(ctx, j); err != nil {
		t.Fatalf("save job: %v", err)
	}

	c, err := drivesync.NewCheckpoint(j.ID())
	if err != nil {
		t.Fatalf("build checkpoint: %v", err)
	}
	c.Advance(1, "photos/batch-1/last.jpg")
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	c.Advance(2, "photos/batch-2/last.jpg")
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("re-save checkpoint: %v", err)
	}

	found, err := repo.FindByJob(ctx, j.ID())
	if err != nil {
		t.Fatalf("find by job: %v", err)
	}
	if found.LastBatchNo() != 2 {
		t.Errorf("last batch no = %d, want 2", found.LastBatchNo())
	}
	if found.LastSuccessKey() != "photos/batch-2/last.jpg" {
		t.Errorf("last success key = %q, want photos/batch-2/last.jpg", found.LastSuccessKey())
	}
}
