// Package album models owner-scoped photo collections: an Album with an
// ordered set of AlbumPhoto membership rows and an optional public share
// token. Album/AlbumPhoto CRUD routes are out of scope per spec.md §1;
// this package owns only the entities the rest of the pipeline touches
// (photo hard-delete must also remove album membership).
package album

import (
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/shared"
)

type Album struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	name        string
	publicToken *string
	createdAt   time.Time
	updatedAt   time.Time
}

func NewAlbum(ownerID uuid.UUID, name string) (*Album, error) {
	if err := shared.ValidateUUID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "name", "album name is required")
	}

	now := time.Now()
	return &Album{
		id:        shared.NewUUID(),
		ownerID:   ownerID,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func Reconstruct(id, ownerID uuid.UUID, name string, publicToken *string, createdAt, updatedAt time.Time) *Album {
	return &Album{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		publicToken: publicToken,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (a *Album) ID() uuid.UUID           { return a.id }
func (a *Album) OwnerID() uuid.UUID      { return a.ownerID }
func (a *Album) Name() string            { return a.name }
func (a *Album) PublicToken() *string    { return a.publicToken }
func (a *Album) CreatedAt() time.Time    { return a.createdAt }
func (a *Album) UpdatedAt() time.Time    { return a.updatedAt }
func (a *Album) IsPublic() bool          { return a.publicToken != nil }

func (a *Album) Rename(name string) error {
	if name == "" {
		return shared.NewFieldError(shared.ErrInvalidInput, "name", "album name is required")
	}
	a.name = name
	a.updatedAt = time.Now()
	return nil
}

// Publish sets the album's public share token to the token the caller
// supplies; it does not generate one. Unpublish clears it.
func (a *Album) Publish(token string) {
	a.publicToken = &token
	a.updatedAt = time.Now()
}

func (a *Album) Unpublish() {
	a.publicToken = nil
	a.updatedAt = time.Now()
}

// AlbumPhoto is the ordered membership join row.
type AlbumPhoto struct {
	AlbumID  uuid.UUID
	PhotoID  uuid.UUID
	Position int
}
