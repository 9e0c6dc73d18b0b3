package photo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cursor identifies a position in the strict-descending (uploaded_at, id)
// pagination order paginate_photos uses.
type Cursor struct {
	UploadedAt time.Time
	ID         uuid.UUID
}

// SearchResult pairs a photo with its cosine similarity score (1 -
// distance) from a vector search.
type SearchResult struct {
	Photo *Photo
	Score float64
}

// DuplicateGroup is a set of live photos sharing a perceptual hash,
// newest first.
type DuplicateGroup struct {
	PerceptualHash string
	Photos         []*Photo
}

// PersonGroup is one person-tag's photo membership, for a "people" view.
type PersonGroup struct {
	TagName  string
	PhotoIDs []uuid.UUID
}

// Repository is the full persistence surface spec.md section 4.5 names:
// CRUD, dedup/source-existence checks, vector search, cursor pagination,
// duplicate grouping, and the tag graph.
type Repository interface {
	InsertPhoto(ctx context.Context, p *Photo) error
	FindByID(ctx context.Context, id uuid.UUID) (*Photo, error)

	DedupExists(ctx context.Context, ownerID uuid.UUID, perceptualHash string) (bool, error)
	SourceExists(ctx context.Context, ownerID uuid.UUID, source Source, sourceID string) (bool, error)

	SetEmbedding(ctx context.Context, photoID uuid.UUID, vec []float32) error
	GetEmbedding(ctx context.Context, photoID uuid.UUID) ([]float32, error)

	// Search runs a cosine nearest-neighbour query, setting the ANN
	// index's probes parameter for this query only.
	Search(ctx context.Context, ownerID uuid.UUID, queryVector []float32, limit, offset, probes int) ([]SearchResult, error)

	// PaginatePhotos returns up to limit photos strictly descending by
	// (uploaded_at, id), plus the next cursor iff the page was full.
	PaginatePhotos(ctx context.Context, ownerID uuid.UUID, cursor *Cursor, limit int, includeDeleted bool) ([]*Photo, *Cursor, error)

	DuplicateGroups(ctx context.Context, ownerID uuid.UUID) ([]DuplicateGroup, error)

	SoftDelete(ctx context.Context, photoID uuid.UUID) error
	Restore(ctx context.Context, photoID uuid.UUID) error
	HardDelete(ctx context.Context, photoID uuid.UUID) error

	// CandidatesForClustering returns up to limit recent photos for the
	// owner that already carry a person tag and have embeddings, newest
	// first — the People Clusterer's nearest-neighbour candidate pool.
	CandidatesForClustering(ctx context.Context, ownerID uuid.UUID, limit int) ([]*Photo, error)

	// ListByOwnerUploadOrder lists every live photo of the owner, oldest
	// upload first; the People Clusterer's reindex walks this list.
	ListByOwnerUploadOrder(ctx context.Context, ownerID uuid.UUID) ([]*Photo, error)

	EnsureTag(ctx context.Context, name string) (uuid.UUID, error)
	AddPhotoTag(ctx context.Context, photoID, tagID uuid.UUID, confidence float32, source PhotoTagSource) error
	ClearPersonTags(ctx context.Context, photoID uuid.UUID) error
	ListPersonGroups(ctx context.Context, ownerID uuid.UUID) ([]PersonGroup, error)
}

// PhotoTagSource enumerates how a PhotoTag row was produced.
type PhotoTagSource string

const (
	PhotoTagAutoCLIP      PhotoTagSource = "auto_clip"
	PhotoTagAutoPeople    PhotoTagSource = "auto_people"
	PhotoTagManualPerson  PhotoTagSource = "manual_person"
	PhotoTagManual        PhotoTagSource = "manual"
)

// Tag name prefixes, per spec.md section 3's naming convention.
const (
	PersonTagPrefix        = "person:"
	PersonClusterTagPrefix = "person_cluster:"
)
