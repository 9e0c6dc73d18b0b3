package album

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for Album aggregates and their photo
// membership.
type Repository interface {
	Save(ctx context.Context, a *Album) error
	FindByID(ctx context.Context, id uuid.UUID) (*Album, error)
	FindByPublicToken(ctx context.Context, token string) (*Album, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Album, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddPhoto(ctx context.Context, albumID, photoID uuid.UUID, position int) error
	RemovePhoto(ctx context.Context, albumID, photoID uuid.UUID) error
	RemovePhotoFromAllAlbums(ctx context.Context, photoID uuid.UUID) error
	ListPhotos(ctx context.Context, albumID uuid.UUID) ([]AlbumPhoto, error)
}
