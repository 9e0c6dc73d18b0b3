package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/shared"
)

// PhotoRepository is plain pgx raw SQL (no sqlc), following the shape of
// the teacher's importjob_repository.go: manual Scan, ON CONFLICT
// upserts, cursor-paginated listing. The cosine search follows
// thizplus-ku-directory's face_repository_impl.go SearchSimilar query
// shape, reimplemented over pgx instead of gorm.
type PhotoRepository struct {
	pool *pgxpool.Pool
}

func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

func (r *PhotoRepository) InsertPhoto(ctx context.Context, p *photo.Photo) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO photos (
			id, owner_id, storage_key, thumbnail_key, original_filename,
			size_bytes, mime, width, height, taken_at, uploaded_at,
			source, source_id, perceptual_hash, gps_lat, gps_lng,
			camera_make, caption, is_deleted
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		p.ID(), p.OwnerID(), p.StorageKey(), p.ThumbnailKey(), p.OriginalFilename(),
		p.SizeBytes(), p.Mime(), p.Width(), p.Height(), p.TakenAt(), p.UploadedAt(),
		string(p.Source()), p.SourceID(), nullableString(p.PerceptualHash()), p.GPSLat(), p.GPSLng(),
		p.CameraMake(), p.Caption(), p.IsDeleted(),
	)
	if isUniqueViolation(err) {
		return photo.ErrDuplicateSource
	}
	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *PhotoRepository) FindByID(ctx context.Context, id uuid.UUID) (*photo.Photo, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, photoSelectColumns+` FROM photos WHERE id = $1`, id)
	return scanPhoto(row)
}

func (r *PhotoRepository) DedupExists(ctx context.Context, ownerID uuid.UUID, perceptualHash string) (bool, error) {
	db := GetDBTX(ctx, r.pool)
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM photos
			WHERE owner_id = $1 AND perceptual_hash = $2 AND is_deleted = false
		)
	`, ownerID, perceptualHash).Scan(&exists)
	return exists, err
}

func (r *PhotoRepository) SourceExists(ctx context.Context, ownerID uuid.UUID, source photo.Source, sourceID string) (bool, error) {
	db := GetDBTX(ctx, r.pool)
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM photos
			WHERE owner_id = $1 AND source = $2 AND source_id = $3
		)
	`, ownerID, string(source), sourceID).Scan(&exists)
	return exists, err
}

func (r *PhotoRepository) SetEmbedding(ctx context.Context, photoID uuid.UUID, vec []float32) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		UPDATE photos
		SET embedding = $2, embedding_generated_at = now()
		WHERE id = $1 AND embedding IS NULL
	`, photoID, pgvector.NewVector(vec))
	return err
}

func (r *PhotoRepository) GetEmbedding(ctx context.Context, photoID uuid.UUID) ([]float32, error) {
	db := GetDBTX(ctx, r.pool)
	var vec pgvector.Vector
	err := db.QueryRow(ctx, `SELECT embedding FROM photos WHERE id = $1`, photoID).Scan(&vec)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return vec.Slice(), nil
}

// Search runs within its own transaction so SET LOCAL ivfflat.probes
// binds to the same backend connection as the subsequent query — a plain
// pool.Exec followed by pool.Query could be served from two different
// pooled connections and silently lose the probes setting.
func (r *PhotoRepository) Search(ctx context.Context, ownerID uuid.UUID, queryVector []float32, limit, offset, probes int) ([]photo.SearchResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	qv := pgvector.NewVector(queryVector)

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL ivfflat.probes = %d", probes)); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, photoSelectColumns+`,
			1 - (embedding <=> $1) AS similarity
		FROM photos
		WHERE owner_id = $2 AND is_deleted = false AND embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $3 OFFSET $4
	`, qv, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []photo.SearchResult
	for rows.Next() {
		p, score, err := scanPhotoWithScore(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, photo.SearchResult{Photo: p, Score: score})
	}
	return results, rows.Err()
}

func (r *PhotoRepository) PaginatePhotos(ctx context.Context, ownerID uuid.UUID, cursor *photo.Cursor, limit int, includeDeleted bool) ([]*photo.Photo, *photo.Cursor, error) {
	db := GetDBTX(ctx, r.pool)

	query := photoSelectColumns + ` FROM photos WHERE owner_id = $1`
	args := []any{ownerID}
	if !includeDeleted {
		query += ` AND is_deleted = false`
	}
	if cursor != nil {
		query += fmt.Sprintf(` AND (uploaded_at, id) < ($%d, $%d)`, len(args)+1, len(args)+2)
		args = append(args, cursor.UploadedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY uploaded_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var photos []*photo.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, nil, err
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *photo.Cursor
	if len(photos) == limit {
		last := photos[len(photos)-1]
		next = &photo.Cursor{UploadedAt: last.UploadedAt(), ID: last.ID()}
	}
	return photos, next, nil
}

// DuplicateGroups returns groups of live photos sharing a phash, biggest
// group first, newest photo first within a group (spec.md §4.14). The
// window function computes each photo's group size inline so the outer
// query can order by it directly instead of sorting groups in Go.
func (r *PhotoRepository) DuplicateGroups(ctx context.Context, ownerID uuid.UUID) ([]photo.DuplicateGroup, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, photoSelectColumns+`
		FROM (
			SELECT *, COUNT(*) OVER (PARTITION BY perceptual_hash) AS group_size
			FROM photos
			WHERE owner_id = $1 AND is_deleted = false AND perceptual_hash IS NOT NULL
		) photos
		WHERE group_size > 1
		ORDER BY group_size DESC, perceptual_hash, uploaded_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []photo.DuplicateGroup
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		hash := p.PerceptualHash()
		if n := len(groups); n > 0 && groups[n-1].PerceptualHash == hash {
			groups[n-1].Photos = append(groups[n-1].Photos, p)
		} else {
			groups = append(groups, photo.DuplicateGroup{PerceptualHash: hash, Photos: []*photo.Photo{p}})
		}
	}
	return groups, rows.Err()
}

func (r *PhotoRepository) SoftDelete(ctx context.Context, photoID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `UPDATE photos SET is_deleted = true WHERE id = $1`, photoID)
	return err
}

func (r *PhotoRepository) Restore(ctx context.Context, photoID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `UPDATE photos SET is_deleted = false WHERE id = $1`, photoID)
	return err
}

func (r *PhotoRepository) HardDelete(ctx context.Context, photoID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `DELETE FROM photos WHERE id = $1`, photoID)
	return err
}

func (r *PhotoRepository) CandidatesForClustering(ctx context.Context, ownerID uuid.UUID, limit int) ([]*photo.Photo, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, photoSelectColumns+`
		FROM photos p
		WHERE p.owner_id = $1 AND p.is_deleted = false AND p.embedding IS NOT NULL
		AND EXISTS (
			SELECT 1 FROM photo_tags pt JOIN tags t ON pt.tag_id = t.id
			WHERE pt.photo_id = p.id AND (t.name LIKE 'person:%' OR t.name LIKE 'person_cluster:%')
		)
		ORDER BY p.uploaded_at DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*photo.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *PhotoRepository) ListByOwnerUploadOrder(ctx context.Context, ownerID uuid.UUID) ([]*photo.Photo, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, photoSelectColumns+`
		FROM photos WHERE owner_id = $1 AND is_deleted = false
		ORDER BY uploaded_at ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*photo.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *PhotoRepository) EnsureTag(ctx context.Context, name string) (uuid.UUID, error) {
	db := GetDBTX(ctx, r.pool)
	id := shared.NewUUID()
	var actual uuid.UUID
	err := db.QueryRow(ctx, `
		INSERT INTO tags (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, id, name).Scan(&actual)
	return actual, err
}

func (r *PhotoRepository) AddPhotoTag(ctx context.Context, photoID, tagID uuid.UUID, confidence float32, source photo.PhotoTagSource) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO photo_tags (photo_id, tag_id, confidence, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (photo_id, tag_id) DO UPDATE SET
			confidence = EXCLUDED.confidence, source = EXCLUDED.source
	`, photoID, tagID, confidence, string(source))
	return err
}

func (r *PhotoRepository) ClearPersonTags(ctx context.Context, photoID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		DELETE FROM photo_tags
		WHERE photo_id = $1 AND tag_id IN (
			SELECT id FROM tags WHERE name LIKE 'person:%' OR name LIKE 'person_cluster:%'
		)
	`, photoID)
	return err
}

func (r *PhotoRepository) ListPersonGroups(ctx context.Context, ownerID uuid.UUID) ([]photo.PersonGroup, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, `
		SELECT t.name, array_agg(pt.photo_id)
		FROM photo_tags pt
		JOIN tags t ON pt.tag_id = t.id
		JOIN photos p ON pt.photo_id = p.id
		WHERE p.owner_id = $1 AND p.is_deleted = false
		AND (t.name LIKE 'person:%' OR t.name LIKE 'person_cluster:%')
		GROUP BY t.name
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []photo.PersonGroup
	for rows.Next() {
		var g photo.PersonGroup
		if err := rows.Scan(&g.TagName, &g.PhotoIDs); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

const photoSelectColumns = `
	SELECT id, owner_id, storage_key, thumbnail_key, original_filename,
		size_bytes, mime, width, height, taken_at, uploaded_at,
		source, source_id, perceptual_hash, embedding, embedding_generated_at,
		gps_lat, gps_lng, camera_make, caption, is_deleted`

func scanPhoto(row pgx.Row) (*photo.Photo, error) {
	p, _, err := scanPhotoRow(row, false)
	return p, err
}

func scanPhotoWithScore(row pgx.Row) (*photo.Photo, float64, error) {
	return scanPhotoRow(row, true)
}

func scanPhotoRow(row pgx.Row, withScore bool) (*photo.Photo, float64, error) {
	var (
		id                   uuid.UUID
		ownerID              uuid.UUID
		storageKey           string
		thumbnailKey         *string
		originalFilename     string
		sizeBytes            int64
		mime                 string
		width, height        int
		takenAt              *time.Time
		uploadedAt           time.Time
		source               string
		sourceID             *string
		perceptualHash       *string
		embedding            *pgvector.Vector
		embeddingGeneratedAt *time.Time
		gpsLat, gpsLng       *float64
		cameraMake, caption  *string
		isDeleted            bool
		score                float64
	)

	dest := []any{
		&id, &ownerID, &storageKey, &thumbnailKey, &originalFilename,
		&sizeBytes, &mime, &width, &height, &takenAt, &uploadedAt,
		&source, &sourceID, &perceptualHash, &embedding, &embeddingGeneratedAt,
		&gpsLat, &gpsLng, &cameraMake, &caption, &isDeleted,
	}
	if withScore {
		dest = append(dest, &score)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, 0, HandleNotFound(err)
	}

	thumbKey := ""
	if thumbnailKey != nil {
		thumbKey = *thumbnailKey
	}
	hash := ""
	if perceptualHash != nil {
		hash = *perceptualHash
	}
	var vec []float32
	if embedding != nil {
		vec = embedding.Slice()
	}

	p := photo.Reconstruct(
		id, ownerID, storageKey, thumbKey, originalFilename,
		sizeBytes, mime, width, height, takenAt, uploadedAt,
		photo.Source(source), sourceID, hash, vec, embeddingGeneratedAt,
		gpsLat, gpsLng, cameraMake, caption, isDeleted,
	)
	return p, score, nil
}
