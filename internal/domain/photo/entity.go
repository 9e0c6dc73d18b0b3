// Package photo models the central entity of the library: an uploaded or
// synced image, its derived artifacts (thumbnail key, perceptual hash,
// embedding), and the repository surface the ingestion, search,
// clustering, and dedup components all share.
package photo

import (
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/shared"
)

// Source identifies where a photo came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceDrive  Source = "drive"
)

// EmbedDim is the fixed dimensionality of every stored embedding vector.
const EmbedDim = 512

// Photo is the central aggregate. Embedding is nil until the Embedding
// Worker computes it; GPS/camera/caption/taken_at are all optional.
type Photo struct {
	id                   uuid.UUID
	ownerID              uuid.UUID
	storageKey           string
	thumbnailKey         string
	originalFilename     string
	sizeBytes            int64
	mime                 string
	width                int
	height               int
	takenAt              *time.Time
	uploadedAt           time.Time
	source               Source
	sourceID             *string
	perceptualHash       string
	embedding            []float32
	embeddingGeneratedAt *time.Time
	gpsLat               *float64
	gpsLng               *float64
	cameraMake           *string
	caption              *string
	isDeleted            bool
}

// NewPhotoInput carries everything the Ingestor/Sync runner have in hand
// at insert time.
type NewPhotoInput struct {
	OwnerID          uuid.UUID
	StorageKey       string
	ThumbnailKey     string
	OriginalFilename string
	SizeBytes        int64
	Mime             string
	Width            int
	Height           int
	TakenAt          *time.Time
	Source           Source
	SourceID         *string
	PerceptualHash   string
	GPSLat           *float64
	GPSLng           *float64
	CameraMake       *string
}

func NewPhoto(in NewPhotoInput) (*Photo, error) {
	if err := shared.ValidateUUID(in.OwnerID, "owner_id"); err != nil {
		return nil, err
	}
	if in.StorageKey == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "storage_key", "storage key is required")
	}
	if in.Mime == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "mime", "mime type is required")
	}
	if in.Source != SourceManual && in.Source != SourceDrive {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "source", "source must be manual or drive")
	}

	return &Photo{
		id:               shared.NewUUID(),
		ownerID:          in.OwnerID,
		storageKey:       in.StorageKey,
		thumbnailKey:     in.ThumbnailKey,
		originalFilename: in.OriginalFilename,
		sizeBytes:        in.SizeBytes,
		mime:             in.Mime,
		width:            in.Width,
		height:           in.Height,
		takenAt:          in.TakenAt,
		uploadedAt:       time.Now(),
		source:           in.Source,
		sourceID:         in.SourceID,
		perceptualHash:   in.PerceptualHash,
		gpsLat:           in.GPSLat,
		gpsLng:           in.GPSLng,
		cameraMake:       in.CameraMake,
	}, nil
}

func Reconstruct(
	id, ownerID uuid.UUID,
	storageKey, thumbnailKey, originalFilename string,
	sizeBytes int64,
	mime string,
	width, height int,
	takenAt *time.Time,
	uploadedAt time.Time,
	source Source,
	sourceID *string,
	perceptualHash string,
	embedding []float32,
	embeddingGeneratedAt *time.Time,
	gpsLat, gpsLng *float64,
	cameraMake, caption *string,
	isDeleted bool,
) *Photo {
	return &Photo{
		id:                   id,
		ownerID:              ownerID,
		storageKey:           storageKey,
		thumbnailKey:         thumbnailKey,
		originalFilename:     originalFilename,
		sizeBytes:            sizeBytes,
		mime:                 mime,
		width:                width,
		height:               height,
		takenAt:              takenAt,
		uploadedAt:           uploadedAt,
		source:               source,
		sourceID:             sourceID,
		perceptualHash:       perceptualHash,
		embedding:            embedding,
		embeddingGeneratedAt: embeddingGeneratedAt,
		gpsLat:               gpsLat,
		gpsLng:               gpsLng,
		cameraMake:           cameraMake,
		caption:              caption,
		isDeleted:            isDeleted,
	}
}

func (p *Photo) ID() uuid.UUID                    { return p.id }
func (p *Photo) OwnerID() uuid.UUID               { return p.ownerID }
func (p *Photo) StorageKey() string                { return p.storageKey }
func (p *Photo) ThumbnailKey() string               { return p.thumbnailKey }
func (p *Photo) OriginalFilename() string          { return p.originalFilename }
func (p *Photo) SizeBytes() int64                  { return p.sizeBytes }
func (p *Photo) Mime() string                      { return p.mime }
func (p *Photo) Width() int                        { return p.width }
func (p *Photo) Height() int                       { return p.height }
func (p *Photo) TakenAt() *time.Time               { return p.takenAt }
func (p *Photo) UploadedAt() time.Time             { return p.uploadedAt }
func (p *Photo) Source() Source                    { return p.source }
func (p *Photo) SourceID() *string                 { return p.sourceID }
func (p *Photo) PerceptualHash() string            { return p.perceptualHash }
func (p *Photo) Embedding() []float32               { return p.embedding }
func (p *Photo) EmbeddingGeneratedAt() *time.Time  { return p.embeddingGeneratedAt }
func (p *Photo) GPSLat() *float64                  { return p.gpsLat }
func (p *Photo) GPSLng() *float64                  { return p.gpsLng }
func (p *Photo) CameraMake() *string               { return p.cameraMake }
func (p *Photo) Caption() *string                  { return p.caption }
func (p *Photo) IsDeleted() bool                   { return p.isDeleted }
func (p *Photo) HasEmbedding() bool                { return p.embedding != nil }

// SetEmbedding records the photo's vector once. Per spec.md's concurrency
// model, a photo's embedding is written once; callers are expected to
// check HasEmbedding before calling this so repeat embedding-worker runs
// are no-ops, not overwrites.
func (p *Photo) SetEmbedding(vec []float32) error {
	if len(vec) != EmbedDim {
		return shared.NewFieldError(shared.ErrInvalidInput, "embedding", "embedding must have exactly EmbedDim elements")
	}
	p.embedding = vec
	now := time.Now()
	p.embeddingGeneratedAt = &now
	return nil
}

// SetCaption updates the user-editable caption field.
func (p *Photo) SetCaption(caption string) {
	p.caption = &caption
}

// SoftDelete marks the photo deleted without releasing its storage keys.
func (p *Photo) SoftDelete() {
	p.isDeleted = true
}

// Restore reverses a soft delete.
func (p *Photo) Restore() {
	p.isDeleted = false
}
