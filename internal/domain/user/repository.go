package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for User aggregates.
type Repository interface {
	// Save persists a user (create or update).
	Save(ctx context.Context, u *User) error

	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail retrieves a user by email.
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// OAuthLinkRepository defines persistence for OAuthLink aggregates.
type OAuthLinkRepository interface {
	// Save persists an oauth link (create or update).
	Save(ctx context.Context, link *OAuthLink) error

	// FindByID retrieves an oauth link by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*OAuthLink, error)

	// FindByUser retrieves every oauth link a user has created.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*OAuthLink, error)

	// FindByProviderAccount looks up the link for (provider, provider_user_id).
	FindByProviderAccount(ctx context.Context, provider Provider, providerUserID string) (*OAuthLink, error)
}
