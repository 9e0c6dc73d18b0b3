// Package memory models the "N years ago" daily digest: one Memory row
// per (owner, memory_date) after regeneration, and the Generator service
// (C12) that recomputes it every morning.
package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/shared"
)

type Memory struct {
	id         uuid.UUID
	ownerID    uuid.UUID
	memoryDate time.Time
	label      string
	photoIDs   []uuid.UUID
	createdAt  time.Time
}

func NewMemory(ownerID uuid.UUID, memoryDate time.Time, label string, photoIDs []uuid.UUID) (*Memory, error) {
	if err := shared.ValidateUUID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	if label == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "label", "label is required")
	}
	if len(photoIDs) == 0 {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "photo_ids", "a memory must reference at least one photo")
	}

	return &Memory{
		id:         shared.NewUUID(),
		ownerID:    ownerID,
		memoryDate: memoryDate,
		label:      label,
		photoIDs:   photoIDs,
		createdAt:  time.Now(),
	}, nil
}

func Reconstruct(id, ownerID uuid.UUID, memoryDate time.Time, label string, photoIDs []uuid.UUID, createdAt time.Time) *Memory {
	return &Memory{
		id:         id,
		ownerID:    ownerID,
		memoryDate: memoryDate,
		label:      label,
		photoIDs:   photoIDs,
		createdAt:  createdAt,
	}
}

func (m *Memory) ID() uuid.UUID           { return m.id }
func (m *Memory) OwnerID() uuid.UUID      { return m.ownerID }
func (m *Memory) MemoryDate() time.Time   { return m.memoryDate }
func (m *Memory) Label() string           { return m.label }
func (m *Memory) PhotoIDs() []uuid.UUID   { return m.photoIDs }
func (m *Memory) CreatedAt() time.Time    { return m.createdAt }

// YearsAgoLabel formats the label spec.md section 4.12 calls for:
// "<years> years ago", where years = max(1, currentYear - oldestYear),
// with the singular "1 year ago" when years is 1.
func YearsAgoLabel(currentYear, oldestYear int) string {
	years := currentYear - oldestYear
	if years < 1 {
		years = 1
	}
	if years == 1 {
		return "1 year ago"
	}
	return fmt.Sprintf("%d years ago", years)
}
