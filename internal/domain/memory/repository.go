package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for Memory rows. Regeneration is a
// delete-then-insert: at most one live row per (owner, memory_date).
type Repository interface {
	Save(ctx context.Context, m *Memory) error
	DeleteByOwnerAndDate(ctx context.Context, ownerID uuid.UUID, memoryDate time.Time) error
	FindByOwnerAndDate(ctx context.Context, ownerID uuid.UUID, memoryDate time.Time) (*Memory, error)

	// OwnersWithPhotos lists every owner that has at least one photo, the
	// candidate set the generator iterates per spec.md §4.12.
	OwnersWithPhotos(ctx context.Context) ([]uuid.UUID, error)

	// CandidatesOnThisDay returns photos owned by ownerID with a known
	// taken_at whose month/day match today and whose year is strictly
	// before today's year, newest-first.
	CandidatesOnThisDay(ctx context.Context, ownerID uuid.UUID, month time.Month, day, beforeYear int) ([]Candidate, error)
}

// Candidate is the slice of photo data the generator needs to pick the
// most recent 10 and compute the label's "years ago" figure.
type Candidate struct {
	PhotoID uuid.UUID
	TakenAt time.Time
}
