// Package dedup implements the Duplicate Finder / Trash Reaper (C14):
// grouping live photos that share a perceptual hash and hard-deleting
// the stale copies, per spec.md §4.14.
package dedup

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/album"
	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/infra/storage"
)

// Result tallies one delete_all run.
type Result struct {
	GroupsProcessed int
	PhotosDeleted   int
}

// Reaper lists duplicate groups and deletes everything but the newest
// photo in each, cleaning up storage on a best-effort basis so DB
// progress is never blocked by a stray object store error — grounded
// in the teacher's itemphoto/service.go DeletePhoto/BulkDeletePhotos
// pattern: delete the DB row first, then swallow storage.Delete errors.
type Reaper struct {
	repo    photo.Repository
	albums  album.Repository
	storage storage.Store
}

func NewReaper(repo photo.Repository, albums album.Repository, store storage.Store) *Reaper {
	return &Reaper{repo: repo, albums: albums, storage: store}
}

// ListDuplicates returns every duplicate group for owner, biggest group
// first, newest photo first within a group (delegated straight to the
// repository, which already orders this way).
func (r *Reaper) ListDuplicates(ctx context.Context, ownerID uuid.UUID) ([]photo.DuplicateGroup, error) {
	return r.repo.DuplicateGroups(ctx, ownerID)
}

// DeleteAll keeps the newest photo in every duplicate group and hard
// deletes the rest, including their storage objects and album
// memberships. Storage cleanup errors are swallowed so a missing or
// already-gone object never stops DB progress.
func (r *Reaper) DeleteAll(ctx context.Context, ownerID uuid.UUID) (Result, error) {
	groups, err := r.repo.DuplicateGroups(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, g := range groups {
		if len(g.Photos) < 2 {
			continue
		}
		// Photos within a group are newest-first; keep index 0.
		for _, p := range g.Photos[1:] {
			if err := r.deleteOne(ctx, p); err != nil {
				return result, err
			}
			result.PhotosDeleted++
		}
		result.GroupsProcessed++
	}
	return result, nil
}

func (r *Reaper) deleteOne(ctx context.Context, p *photo.Photo) error {
	if err := r.repo.HardDelete(ctx, p.ID()); err != nil {
		return err
	}
	if err := r.storage.Delete(ctx, p.StorageKey()); err != nil {
		slog.WarnContext(ctx, "dedup: storage delete failed", "photo_id", p.ID(), "key", p.StorageKey(), "error", err)
	}
	if p.ThumbnailKey() != "" {
		if err := r.storage.Delete(ctx, p.ThumbnailKey()); err != nil {
			slog.WarnContext(ctx, "dedup: storage delete failed", "photo_id", p.ID(), "key", p.ThumbnailKey(), "error", err)
		}
	}
	if r.albums != nil {
		_ = r.albums.RemovePhotoFromAllAlbums(ctx, p.ID())
	}
	return nil
}
