// Package testfixtures provides shared builders for integration tests:
// a baseline user plus photo/album construction helpers, grounded in
// the teacher's tests/testfixtures/fixtures.go shape (package-level test
// IDs, NewTest<Entity>/CreateTest<Entity> pairs) retargeted at the photo
// domain.
package testfixtures

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/domain/user"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
)

// TestUserID matches testdb's baseline fixture user.
var TestUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to the given float64.
func Float64Ptr(f float64) *float64 { return &f }

// TimePtr returns a pointer to the given time.
func TimePtr(t time.Time) *time.Time { return &t }

// NewTestUser builds a user with a unique email, unsaved.
func NewTestUser(t *testing.T) *user.User {
	t.Helper()
	email := fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8])
	u, err := user.NewUser(email, "Test User")
	if err != nil {
		t.Fatalf("build test user: %v", err)
	}
	return u
}

// CreateTestUser builds and saves a new user, returning its ID.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	u := NewTestUser(t)
	if err := postgres.NewUserRepository(pool).Save(context.Background(), u); err != nil {
		t.Fatalf("save test user: %v", err)
	}
	return u.ID()
}

// NewTestPhotoInput returns a plausible, valid NewPhotoInput for ownerID
// with a unique storage key and perceptual hash, so callers can override
// only the fields a given test cares about.
func NewTestPhotoInput(ownerID uuid.UUID) photo.NewPhotoInput {
	id := uuid.NewString()
	return photo.NewPhotoInput{
		OwnerID:          ownerID,
		StorageKey:       fmt.Sprintf("users/%s/photos/%s.jpg", ownerID, id),
		ThumbnailKey:     fmt.Sprintf("users/%s/thumbnails/%s.webp", ownerID, id),
		OriginalFilename: "IMG_0001.jpg",
		SizeBytes:        2_048_576,
		Mime:             "image/jpeg",
		Width:            4032,
		Height:           3024,
		Source:           photo.SourceManual,
		PerceptualHash:   "p:" + id[:16],
	}
}

// CreateTestPhoto builds and inserts a photo for ownerID, returning it.
func CreateTestPhoto(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID) *photo.Photo {
	t.Helper()
	p, err := photo.NewPhoto(NewTestPhotoInput(ownerID))
	if err != nil {
		t.Fatalf("build test photo: %v", err)
	}
	if err := postgres.NewPhotoRepository(pool).InsertPhoto(context.Background(), p); err != nil {
		t.Fatalf("save test photo: %v", err)
	}
	return p
}

// RandomEmbedding returns a fixed-dimension vector suitable for
// SetEmbedding/Search calls in tests that don't care about its content,
// only that it's the right shape.
func RandomEmbedding(seed float32) []float32 {
	vec := make([]float32, photo.EmbedDim)
	for i := range vec {
		vec[i] = seed
	}
	return vec
}
