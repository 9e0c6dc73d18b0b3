package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/domain/album"
)

// AlbumRepository persists album.Album and its photo membership via
// plain SQL over pgx.
type AlbumRepository struct {
	pool *pgxpool.Pool
}

func NewAlbumRepository(pool *pgxpool.Pool) *AlbumRepository {
	return &AlbumRepository{pool: pool}
}

func (r *AlbumRepository) Save(ctx context.Context, a *album.Album) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO albums (id, owner_id, name, public_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			public_token = EXCLUDED.public_token,
			updated_at = EXCLUDED.updated_at
	`, a.ID(), a.OwnerID(), a.Name(), a.PublicToken(), a.CreatedAt(), a.UpdatedAt())
	return err
}

func (r *AlbumRepository) FindByID(ctx context.Context, id uuid.UUID) (*album.Album, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, albumSelectColumns+`WHERE id = $1`, id)
	return scanAlbum(row)
}

func (r *AlbumRepository) FindByPublicToken(ctx context.Context, token string) (*album.Album, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, albumSelectColumns+`WHERE public_token = $1`, token)
	return scanAlbum(row)
}

func (r *AlbumRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*album.Album, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, albumSelectColumns+`WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*album.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (r *AlbumRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `DELETE FROM albums WHERE id = $1`, id)
	return err
}

func (r *AlbumRepository) AddPhoto(ctx context.Context, albumID, photoID uuid.UUID, position int) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO album_photos (album_id, photo_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (album_id, photo_id) DO UPDATE SET position = EXCLUDED.position
	`, albumID, photoID, position)
	return err
}

func (r *AlbumRepository) RemovePhoto(ctx context.Context, albumID, photoID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `DELETE FROM album_photos WHERE album_id = $1 AND photo_id = $2`, albumID, photoID)
	return err
}

// RemovePhotoFromAllAlbums is used by the trash reaper (C14) when a photo
// is hard-deleted, so it leaves no dangling membership rows behind.
func (r *AlbumRepository) RemovePhotoFromAllAlbums(ctx context.Context, photoID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `DELETE FROM album_photos WHERE photo_id = $1`, photoID)
	return err
}

func (r *AlbumRepository) ListPhotos(ctx context.Context, albumID uuid.UUID) ([]album.AlbumPhoto, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, `
		SELECT album_id, photo_id, position
		FROM album_photos
		WHERE album_id = $1
		ORDER BY position ASC
	`, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []album.AlbumPhoto
	for rows.Next() {
		var ap album.AlbumPhoto
		if err := rows.Scan(&ap.AlbumID, &ap.PhotoID, &ap.Position); err != nil {
			return nil, err
		}
		photos = append(photos, ap)
	}
	return photos, rows.Err()
}

const albumSelectColumns = `
	SELECT id, owner_id, name, public_token, created_at, updated_at
	FROM albums
`

func scanAlbum(row pgx.Row) (*album.Album, error) {
	var (
		id, ownerID         uuid.UUID
		name                string
		publicToken         *string
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &ownerID, &name, &publicToken, &createdAt, &updatedAt)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return album.Reconstruct(id, ownerID, name, publicToken, createdAt, updatedAt), nil
}
