// Package zipfile reads zip-packaged image archives.
package zipfile

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/stackshelf/stackshelf-server/internal/errors"
	"github.com/stackshelf/stackshelf-server/internal/util"
)

// imageExtensions lists the entry extensions treated as pages.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".avif": true,
	".jxl":  true,
}

// Entry is one file inside the archive.
type Entry struct {
	// Index is the entry's position in the zip central directory.
	Index int
	// Name is the full path of the entry within the archive.
	Name string
}

// Reader provides entry listing and extraction for one archive.
type Reader struct {
	rc *zip.ReadCloser
}

// Open opens the archive at path for reading.
func Open(p string) (*Reader, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", p, err)
	}
	return &Reader{rc: rc}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.rc.Close()
}

// ListEntries returns every file entry in central-directory order.
// Directories are skipped.
func (r *Reader) ListEntries() []Entry {
	entries := make([]Entry, 0, len(r.rc.File))
	for i, f := range r.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{Index: i, Name: f.Name})
	}
	return entries
}

// ImageEntries returns the image entries in natural-sort order by name,
// so "page9" precedes "page10". Position in the returned slice is the
// positional fallback order for pages with stale recorded filenames.
func (r *Reader) ImageEntries() []Entry {
	var entries []Entry
	for _, e := range r.ListEntries() {
		if IsImage(e.Name) {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return util.NaturalCompare(entries[i].Name, entries[j].Name) < 0
	})
	return entries
}

// ReadEntry extracts the bytes of the entry at the given central-directory
// index.
func (r *Reader) ReadEntry(index int) ([]byte, error) {
	if index < 0 || index >= len(r.rc.File) {
		return nil, errors.ImageNotFoundf("entry index %d out of range", index)
	}
	f := r.rc.File[index]
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	return data, nil
}

// FindEntry returns the entry whose name matches exactly, or whose base
// name matches, if any.
func (r *Reader) FindEntry(name string) (Entry, bool) {
	for _, e := range r.ListEntries() {
		if e.Name == name {
			return e, true
		}
	}
	// Stale metadata may record only the base name.
	for _, e := range r.ListEntries() {
		if path.Base(e.Name) == name {
			return e, true
		}
	}
	return Entry{}, false
}

// IsImage reports whether the entry name has a recognized image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}
