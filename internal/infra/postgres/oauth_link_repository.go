package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/domain/user"
)

// OAuthLinkRepository persists user.OAuthLink via plain SQL over pgx.
type OAuthLinkRepository struct {
	pool *pgxpool.Pool
}

func NewOAuthLinkRepository(pool *pgxpool.Pool) *OAuthLinkRepository {
	return &OAuthLinkRepository{pool: pool}
}

func (r *OAuthLinkRepository) Save(ctx context.Context, link *user.OAuthLink) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO oauth_links (
			id, user_id, provider, provider_user_id, refresh_token,
			selected_folder_id, created_at, revoked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			refresh_token = EXCLUDED.refresh_token,
			selected_folder_id = EXCLUDED.selected_folder_id,
			revoked_at = EXCLUDED.revoked_at
	`,
		link.ID(), link.UserID(), string(link.Provider()), link.ProviderUserID(),
		link.RefreshToken(), link.SelectedFolderID(), link.CreatedAt(), link.RevokedAt(),
	)
	return err
}

func (r *OAuthLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.OAuthLink, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, `
		SELECT id, user_id, provider, provider_user_id, refresh_token,
			selected_folder_id, created_at, revoked_at
		FROM oauth_links
		WHERE id = $1
	`, id)
	return scanOAuthLink(row)
}

func (r *OAuthLinkRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*user.OAuthLink, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, `
		SELECT id, user_id, provider, provider_user_id, refresh_token,
			selected_folder_id, created_at, revoked_at
		FROM oauth_links
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*user.OAuthLink
	for rows.Next() {
		link, err := scanOAuthLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *OAuthLinkRepository) FindByProviderAccount(ctx context.Context, provider user.Provider, providerUserID string) (*user.OAuthLink, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, `
		SELECT id, user_id, provider, provider_user_id, refresh_token,
			selected_folder_id, created_at, revoked_at
		FROM oauth_links
		WHERE provider = $1 AND provider_user_id = $2
	`, string(provider), providerUserID)
	return scanOAuthLink(row)
}

func scanOAuthLink(row pgx.Row) (*user.OAuthLink, error) {
	var (
		id               uuid.UUID
		userID           uuid.UUID
		provider         string
		providerUserID   string
		refreshToken     string
		selectedFolderID *string
		createdAt        time.Time
		revokedAt        *time.Time
	)
	err := row.Scan(&id, &userID, &provider, &providerUserID, &refreshToken,
		&selectedFolderID, &createdAt, &revokedAt)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return user.ReconstructOAuthLink(
		id, userID, user.Provider(provider), providerUserID, refreshToken,
		selectedFolderID, createdAt, revokedAt,
	), nil
}
