package user

import "github.com/justraqib/semantic-photo/internal/shared"

var (
	ErrUserNotFound      = shared.NewDomainError(shared.ErrNotFound, "user not found")
	ErrOAuthLinkNotFound = shared.NewDomainError(shared.ErrNotFound, "oauth link not found")
	ErrEmailTaken        = shared.NewDomainError(shared.ErrAlreadyExists, "email already registered")
	ErrLinkAlreadyExists = shared.NewDomainError(shared.ErrAlreadyExists, "provider account already linked")
)
