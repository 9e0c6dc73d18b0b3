package photo

import "github.com/justraqib/semantic-photo/internal/shared"

var (
	ErrPhotoNotFound   = shared.NewDomainError(shared.ErrNotFound, "photo not found")
	ErrDuplicateSource = shared.NewDomainError(shared.ErrDuplicateSource, "photo already ingested for this owner/source")
)
