// Package drivesource defines the generic external file source contract
// spec.md section 6 describes (Drive-like): paged folder listing,
// streaming download, and OAuth2 refresh/revoke. The Source Walker (C7)
// and Sync Job Runner (C8) depend only on this interface; the concrete
// binding lives in internal/infra/googledrive.
package drivesource

import (
	"context"
	"io"
	"time"
)

// FileDescriptor is one entry returned by ListChildren: enough metadata
// to classify and later download, without ever fetching bytes.
type FileDescriptor struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
	IsFolder bool
}

// TokenSet is the refreshed OAuth2 credential pair a Source hands back
// after RefreshToken, mirroring thizplus's TokenInfo shape.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Source is the external file source contract. Implementations wrap a
// specific provider's SDK (Google Drive, in this module) behind paging
// and OAuth semantics the walker and sync runner can treat uniformly.
type Source interface {
	// RefreshToken exchanges a stored refresh token for a fresh access
	// token, per spec.md section 6's "OAuth2 bearer with offline refresh".
	RefreshToken(ctx context.Context, refreshToken string) (TokenSet, error)

	// Revoke disconnects a previously issued token.
	Revoke(ctx context.Context, accessToken string) error

	// ListChildren pages through folderID's direct children. An empty
	// pageToken starts from the beginning; a non-empty returned token
	// means more pages remain.
	ListChildren(ctx context.Context, accessToken, folderID, pageToken string) (files []FileDescriptor, nextPageToken string, err error)

	// Download streams a file's bytes. size is the content-length when
	// the source reports one, 0 otherwise.
	Download(ctx context.Context, accessToken, fileID string) (r io.ReadCloser, size int64, err error)
}
