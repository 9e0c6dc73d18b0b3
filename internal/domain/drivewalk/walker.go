// Package drivewalk implements the Source Walker (C7): breadth-first
// enumeration of an external folder tree, classifying entries into
// images and archives without ever downloading bytes, per spec.md §4.7.
package drivewalk

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/justraqib/semantic-photo/internal/domain/drivesource"
)

// imageExtensions mirrors the set imageutil.DetectType recognizes by
// magic bytes; the walker only has filenames to go on, so it matches by
// extension instead.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true, ".heif": true,
}

// Entry is one file the walker yielded: an image or a ZIP archive.
type Entry struct {
	drivesource.FileDescriptor
	IsArchive bool
}

// Walk performs a breadth-first traversal of rootFolderID, descending
// every folder and yielding image and ZIP files flattened into a single
// list. Paging tokens are followed to completion for every folder
// visited, per spec.md §4.7.
func Walk(ctx context.Context, src drivesource.Source, accessToken, rootFolderID string) ([]Entry, error) {
	var entries []Entry
	queue := []string{rootFolderID}

	for len(queue) > 0 {
		folderID := queue[0]
		queue = queue[1:]

		pageToken := ""
		for {
			files, next, err := src.ListChildren(ctx, accessToken, folderID, pageToken)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				if f.IsFolder {
					queue = append(queue, f.ID)
					continue
				}
				if isArchive(f.Name, f.MimeType) {
					entries = append(entries, Entry{FileDescriptor: f, IsArchive: true})
				} else if isImage(f.Name, f.MimeType) {
					entries = append(entries, Entry{FileDescriptor: f})
				}
			}
			pageToken = next
			if pageToken == "" {
				break
			}
		}
	}

	return entries, nil
}

func isImage(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

func isArchive(name, mimeType string) bool {
	if mimeType == "application/zip" {
		return true
	}
	return strings.ToLower(filepath.Ext(name)) == ".zip"
}
