package memory

import "github.com/justraqib/semantic-photo/internal/shared"

var ErrMemoryNotFound = shared.NewDomainError(shared.ErrNotFound, "memory not found")
