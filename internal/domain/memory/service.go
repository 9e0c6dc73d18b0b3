package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// maxPhotosPerMemory caps how many photos a single day's memory can carry,
// per spec.md §4.12: "keep the most recent 10".
const maxPhotosPerMemory = 10

// GeneratorInterface defines the memory generation operation.
type GeneratorInterface interface {
	GenerateForToday(ctx context.Context) error
}

// Generator recomputes "N years ago today" memories for every owner that
// has at least one photo, as a daily cron step (C12). It has no direct
// teacher analogue; it's built in the repository/service split the rest
// of the domain packages use.
type Generator struct {
	repo Repository
	now  func() time.Time
}

func NewGenerator(repo Repository) *Generator {
	return &Generator{repo: repo, now: time.Now}
}

// GenerateForToday regenerates today's memory row for every owner with
// photos. For each owner it deletes any existing row for today's date
// first, then inserts the replacement only if candidates exist — a
// dry day simply has no memory row, it is not an error.
func (g *Generator) GenerateForToday(ctx context.Context) error {
	today := g.now()

	owners, err := g.repo.OwnersWithPhotos(ctx)
	if err != nil {
		return err
	}

	for _, ownerID := range owners {
		if err := g.generateForOwner(ctx, ownerID, today); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generateForOwner(ctx context.Context, ownerID uuid.UUID, today time.Time) error {
	memoryDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	if err := g.repo.DeleteByOwnerAndDate(ctx, ownerID, memoryDate); err != nil {
		return err
	}

	candidates, err := g.repo.CandidatesOnThisDay(ctx, ownerID, today.Month(), today.Day(), today.Year())
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	oldestYear := candidates[0].TakenAt.Year()
	for _, c := range candidates {
		if c.TakenAt.Year() < oldestYear {
			oldestYear = c.TakenAt.Year()
		}
	}
	label := YearsAgoLabel(today.Year(), oldestYear)

	if len(candidates) > maxPhotosPerMemory {
		candidates = candidates[:maxPhotosPerMemory]
	}
	photoIDs := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		photoIDs = append(photoIDs, c.PhotoID)
	}

	m, err := NewMemory(ownerID, memoryDate, label, photoIDs)
	if err != nil {
		return err
	}
	return g.repo.Save(ctx, m)
}
