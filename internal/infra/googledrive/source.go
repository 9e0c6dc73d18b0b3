// Package googledrive binds drivesource.Source to the real Google Drive
// API, grounded in thizplus-ku-directory's infrastructure/googledrive/
// drive_client.go (OAuth2 config, paged Files.List, Files.Get.Download).
package googledrive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/justraqib/semantic-photo/internal/domain/drivesource"
)

const listFields = "nextPageToken, files(id, name, mimeType, size)"
const folderMimeType = "application/vnd.google-apps.folder"

// Source is the concrete drivesource.Source implementation for Google
// Drive. Like the teacher's DriveClient, it holds only OAuth2 config —
// a new drive.Service is built per call from the caller-supplied access
// token, since tokens are refreshed and rotated independently per user.
type Source struct {
	oauthConfig *oauth2.Config
}

func New(clientID, clientSecret, redirectURL string) *Source {
	return &Source{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{drive.DriveReadonlyScope, drive.DriveMetadataReadonlyScope},
			Endpoint:     google.Endpoint,
		},
	}
}

func (s *Source) service(ctx context.Context, accessToken string) (*drive.Service, error) {
	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	client := s.oauthConfig.Client(ctx, token)
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}

// RefreshToken exchanges a stored refresh token for a fresh access
// token, per spec.md section 6.
func (s *Source) RefreshToken(ctx context.Context, refreshToken string) (drivesource.TokenSet, error) {
	tokenSource := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := tokenSource.Token()
	if err != nil {
		return drivesource.TokenSet{}, fmt.Errorf("refresh token: %w", err)
	}
	return drivesource.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// Revoke disconnects a previously issued token via Google's revoke
// endpoint, the same one oauth2.Config's RevokeToken would hit.
func (s *Source) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://oauth2.googleapis.com/revoke", strings.NewReader(url.Values{"token": {accessToken}}.Encode()))
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke token: status %d", resp.StatusCode)
	}
	return nil
}

// ListChildren pages through folderID's direct children, grounded in
// the teacher's ListImages/ListFolders pattern but merged into a single
// call since the walker classifies folders vs. files itself.
func (s *Source) ListChildren(ctx context.Context, accessToken, folderID, pageToken string) ([]drivesource.FileDescriptor, string, error) {
	svc, err := s.service(ctx, accessToken)
	if err != nil {
		return nil, "", err
	}

	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	call := svc.Files.List().
		Q(query).
		Fields(listFields).
		PageSize(100).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	result, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("list children: %w", err)
	}

	files := make([]drivesource.FileDescriptor, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, drivesource.FileDescriptor{
			ID:       f.Id,
			Name:     f.Name,
			MimeType: f.MimeType,
			Size:     f.Size,
			IsFolder: f.MimeType == folderMimeType,
		})
	}

	return files, result.NextPageToken, nil
}

// Download streams a file's bytes, per spec.md section 6's
// "download(file_id) streams bytes with optional content-length".
func (s *Source) Download(ctx context.Context, accessToken, fileID string) (io.ReadCloser, int64, error) {
	svc, err := s.service(ctx, accessToken)
	if err != nil {
		return nil, 0, err
	}

	meta, err := svc.Files.Get(fileID).Fields("size").SupportsAllDrives(true).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("get file metadata: %w", err)
	}

	resp, err := svc.Files.Get(fileID).Download()
	if err != nil {
		return nil, 0, fmt.Errorf("download file: %w", err)
	}

	return resp.Body, meta.Size, nil
}
