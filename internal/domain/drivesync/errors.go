package drivesync

import "github.com/justraqib/semantic-photo/internal/shared"

var (
	ErrJobNotFound       = shared.NewDomainError(shared.ErrNotFound, "sync job not found")
	ErrStateNotFound     = shared.NewDomainError(shared.ErrNotFound, "sync state not found")
	ErrInvalidTransition = shared.NewDomainError(shared.ErrInvalidInput, "invalid sync job state transition")
	ErrSyncDisabled      = shared.NewDomainError(shared.ErrInvalidInput, "sync is disabled for this user")
)
