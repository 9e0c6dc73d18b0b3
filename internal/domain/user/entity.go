// Package user models the owning principal of every other entity in the
// photo library: User itself and its linked external-source credentials
// (OAuthLink). Session issuance and route-level auth are out of scope;
// this package only owns the rows other domains reference by owner ID.
package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/shared"
)

// User is immutable after creation: spec.md calls out "owns all other
// entities; immutable after creation", so there is no Update method here.
type User struct {
	id          uuid.UUID
	email       string
	displayName string
	createdAt   time.Time
}

func NewUser(email, displayName string) (*User, error) {
	if email == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "email", "email is required")
	}
	if displayName == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "display_name", "display name is required")
	}

	return &User{
		id:          shared.NewUUID(),
		email:       email,
		displayName: displayName,
		createdAt:   time.Now(),
	}, nil
}

func Reconstruct(id uuid.UUID, email, displayName string, createdAt time.Time) *User {
	return &User{
		id:          id,
		email:       email,
		displayName: displayName,
		createdAt:   createdAt,
	}
}

func (u *User) ID() uuid.UUID          { return u.id }
func (u *User) Email() string          { return u.email }
func (u *User) DisplayName() string    { return u.displayName }
func (u *User) CreatedAt() time.Time   { return u.createdAt }

// Provider identifies the external source an OAuthLink authenticates
// against. Only one provider exists today, but the type keeps the door
// open without a schema change.
type Provider string

const (
	ProviderDrive Provider = "drive"
)

// OAuthLink ties a user to an external source account, storing the
// refresh token needed to mint access tokens for the Source Walker and
// Sync Job Runner. (provider, provider_user_id) identifies the link;
// RevokedAt marks it unusable without deleting history.
type OAuthLink struct {
	id               uuid.UUID
	userID           uuid.UUID
	provider         Provider
	providerUserID   string
	refreshToken     string
	selectedFolderID *string
	createdAt        time.Time
	revokedAt        *time.Time
}

func NewOAuthLink(userID uuid.UUID, provider Provider, providerUserID, refreshToken string) (*OAuthLink, error) {
	if err := shared.ValidateUUID(userID, "user_id"); err != nil {
		return nil, err
	}
	if providerUserID == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "provider_user_id", "provider user id is required")
	}
	if refreshToken == "" {
		return nil, shared.NewFieldError(shared.ErrInvalidInput, "refresh_token", "refresh token is required")
	}

	return &OAuthLink{
		id:             shared.NewUUID(),
		userID:         userID,
		provider:       provider,
		providerUserID: providerUserID,
		refreshToken:   refreshToken,
		createdAt:      time.Now(),
	}, nil
}

func ReconstructOAuthLink(
	id, userID uuid.UUID,
	provider Provider,
	providerUserID, refreshToken string,
	selectedFolderID *string,
	createdAt time.Time,
	revokedAt *time.Time,
) *OAuthLink {
	return &OAuthLink{
		id:               id,
		userID:           userID,
		provider:         provider,
		providerUserID:   providerUserID,
		refreshToken:     refreshToken,
		selectedFolderID: selectedFolderID,
		createdAt:        createdAt,
		revokedAt:        revokedAt,
	}
}

func (l *OAuthLink) ID() uuid.UUID              { return l.id }
func (l *OAuthLink) UserID() uuid.UUID          { return l.userID }
func (l *OAuthLink) Provider() Provider         { return l.provider }
func (l *OAuthLink) ProviderUserID() string     { return l.providerUserID }
func (l *OAuthLink) RefreshToken() string       { return l.refreshToken }
func (l *OAuthLink) SelectedFolderID() *string  { return l.selectedFolderID }
func (l *OAuthLink) CreatedAt() time.Time       { return l.createdAt }
func (l *OAuthLink) RevokedAt() *time.Time      { return l.revokedAt }
func (l *OAuthLink) IsRevoked() bool            { return l.revokedAt != nil }

// SetSelectedFolder records which external folder this link is scoped to
// sync from.
func (l *OAuthLink) SetSelectedFolder(folderID string) {
	l.selectedFolderID = &folderID
}

// SetRefreshToken replaces the stored refresh token after a successful
// OAuth refresh round trip.
func (l *OAuthLink) SetRefreshToken(token string) {
	l.refreshToken = token
}

// Revoke marks the link unusable. Per spec.md, a revoked link's token must
// no longer be used by the Source Walker or Sync Job Runner.
func (l *OAuthLink) Revoke() {
	now := time.Now()
	l.revokedAt = &now
}
