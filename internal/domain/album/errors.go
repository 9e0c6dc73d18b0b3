package album

import "github.com/justraqib/semantic-photo/internal/shared"

var ErrAlbumNotFound = shared.NewDomainError(shared.ErrNotFound, "album not found")
