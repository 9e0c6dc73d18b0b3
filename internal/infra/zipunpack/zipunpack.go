// Package zipunpack implements stream-safe, flat extraction of nested
// image archives per spec.md section 4.3: directory entries are skipped,
// oversized entries are rejected before and after reading, nested zips are
// descended up to depth 3 with names joined by "::", and the unpacker never
// holds every entry in memory at once — each entry is materialized to a
// temp directory and yielded as a path.
package zipunpack

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/justraqib/semantic-photo/internal/infra/imageutil"
	"github.com/justraqib/semantic-photo/internal/shared"
)

const maxDepth = 3

// Entry describes one extracted image, materialized to a temp file on
// disk. LogicalName is the "::"-joined path through any nested zips
// (e.g. "vacation.zip::subfolder::photo.jpg"). Callers must remove Path
// once they're done with the entry.
type Entry struct {
	LogicalName string
	MimeType    string
	Path        string
	SizeBytes   int64
}

// Options bounds the unpacker's resource usage.
type Options struct {
	MaxEntryBytes     int64 // reject any single entry above this
	MaxContainerBytes int64 // reject the whole archive above this (5 GiB default)
	TempDir           string
}

// DefaultOptions matches spec.md's MAX_FILE_SIZE/ZIP_CONTAINER_MAX defaults.
func DefaultOptions() Options {
	return Options{
		MaxEntryBytes:     50 * 1024 * 1024,
		MaxContainerBytes: 5 * 1024 * 1024 * 1024,
		TempDir:           "",
	}
}

// ExtractFile opens the zip at archivePath and streams its image entries,
// invoking yield for each one. yield is responsible for consuming or
// discarding Entry.Path; the unpacker removes an entry's file only when
// yield returns an error for it, so yield can hand the file off to a
// longer-lived consumer.
func ExtractFile(archivePath string, opts Options, yield func(Entry) error) error {
	info, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	if info.Size() > opts.MaxContainerBytes {
		return fmt.Errorf("%w: container is %d bytes, limit is %d", shared.ErrArchiveInvalid, info.Size(), opts.MaxContainerBytes)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrArchiveInvalid, err)
	}
	defer r.Close()

	return walkZip(&r.Reader, "", 0, opts, yield)
}

func walkZip(r *zip.Reader, prefix string, depth int, opts Options, yield func(Entry) error) error {
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		logicalName := f.Name
		if prefix != "" {
			logicalName = prefix + "::" + f.Name
		}

		if f.UncompressedSize64 > uint64(opts.MaxEntryBytes) {
			continue
		}

		if isNestedZip(f.Name) {
			if depth >= maxDepth {
				continue
			}
			if err := descendNested(r, f, logicalName, depth, opts, yield); err != nil {
				return err
			}
			continue
		}

		if err := extractOne(f, logicalName, opts, yield); err != nil {
			return err
		}
	}
	return nil
}

func descendNested(parent *zip.Reader, f *zip.File, logicalName string, depth int, opts Options, yield func(Entry) error) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: opening nested zip %s: %v", shared.ErrArchiveInvalid, logicalName, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(opts.TempDir, "nested-*.zip")
	if err != nil {
		return fmt.Errorf("create temp file for nested zip: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	limited := io.LimitReader(rc, opts.MaxContainerBytes+1)
	n, err := io.Copy(tmp, limited)
	closeErr := tmp.Close()
	if err != nil {
		return fmt.Errorf("materialize nested zip %s: %w", logicalName, err)
	}
	if closeErr != nil {
		return fmt.Errorf("materialize nested zip %s: %w", logicalName, closeErr)
	}
	if n > opts.MaxContainerBytes {
		return fmt.Errorf("%w: nested container %s exceeds %d bytes", shared.ErrArchiveInvalid, logicalName, opts.MaxContainerBytes)
	}

	nested, err := zip.OpenReader(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: nested zip %s: %v", shared.ErrArchiveInvalid, logicalName, err)
	}
	defer nested.Close()

	return walkZip(&nested.Reader, logicalName, depth+1, opts, yield)
}

func extractOne(f *zip.File, logicalName string, opts Options, yield func(Entry) error) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: opening entry %s: %v", shared.ErrArchiveInvalid, logicalName, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(opts.TempDir, "entry-*")
	if err != nil {
		return fmt.Errorf("create temp file for entry: %w", err)
	}
	tmpPath := tmp.Name()

	limited := io.LimitReader(rc, opts.MaxEntryBytes+1)
	n, err := io.Copy(tmp, limited)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("materialize entry %s: %w", logicalName, err)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("materialize entry %s: %w", logicalName, closeErr)
	}
	if n > opts.MaxEntryBytes {
		os.Remove(tmpPath)
		return nil // oversized entries are silently skipped per spec.md 4.3/4.6
	}

	head := make([]byte, 0, 64)
	headFile, err := os.Open(tmpPath)
	if err == nil {
		buf := make([]byte, 64)
		got, _ := io.ReadFull(headFile, buf)
		head = buf[:got]
		headFile.Close()
	}

	mime, ok := imageutil.DetectType(f.Name, head)
	if !ok {
		os.Remove(tmpPath)
		return nil // not an image; skip
	}

	err = yield(Entry{
		LogicalName: logicalName,
		MimeType:    mime,
		Path:        tmpPath,
		SizeBytes:   n,
	})
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func isNestedZip(name string) bool {
	ext := filepath.Ext(name)
	return len(ext) == 4 && (ext == ".zip" || ext == ".ZIP")
}
