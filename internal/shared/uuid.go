package shared

import (
	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/shared/apierror"
)

// ParseUUID parses a string into a UUID and returns an APIError if invalid.
func ParseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apierror.ValidationError(
			apierror.ErrCodeInvalidUUID,
			"id",
			"invalid UUID format",
		)
	}
	return id, nil
}

// MustParseUUID parses a string into a UUID and panics if invalid.
// Use only for compile-time constants or in tests.
func MustParseUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

// NewUUID generates a new time-ordered UUIDv7, falling back to UUIDv4 if
// v7 generation fails.
func NewUUID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// IsNilUUID reports whether id is the zero UUID.
func IsNilUUID(id uuid.UUID) bool {
	return id == uuid.Nil
}
