// Package scanner ingests zip archives from the content directory into
// the store.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/errors"
	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/metadata"
	"github.com/stackshelf/stackshelf-server/internal/store"
	"github.com/stackshelf/stackshelf-server/internal/util"
	"github.com/stackshelf/stackshelf-server/internal/zipfile"
)

// keyLength truncates the content hash used as the cache namespace.
// 16 hex chars keep collision odds negligible for library-sized
// collections while keeping cache paths short.
const keyLength = 16

// Scanner walks the content directory and indexes new archives.
type Scanner struct {
	store      store.Store
	cfg        config.ScannerConfig
	contentDir string
	logger     *logger.Logger
}

// New creates a scanner.
func New(st store.Store, cfg config.ScannerConfig, contentDir string, log *logger.Logger) *Scanner {
	return &Scanner{store: st, cfg: cfg, contentDir: contentDir, logger: log}
}

// ScanAll walks the content directory and ingests every archive not yet
// indexed. Individual archive failures are logged and skipped; the walk
// continues.
func (s *Scanner) ScanAll(ctx context.Context) error {
	var paths []string
	err := filepath.WalkDir(s.contentDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".zip", ".cbz":
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk content dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, p := range paths {
		g.Go(func() error {
			archive, err := s.IngestFile(ctx, p)
			if err != nil {
				s.logger.WithError(err).Warn("ingest failed", "path", p)
				return nil
			}
			if archive != nil {
				s.logger.Info("indexed archive", "key", archive.Key, "title", archive.Title, "pages", archive.Pages)
			}
			return nil
		})
	}
	return g.Wait()
}

// IngestFile indexes one archive. Returns (nil, nil) when the archive's
// content key is already indexed.
func (s *Scanner) IngestFile(ctx context.Context, p string) (*domain.Archive, error) {
	key, size, err := hashFile(p)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.FindArchiveByKey(ctx, key); err == nil {
		return nil, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	zr, err := zipfile.Open(p)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	pages := zr.ImageEntries()
	if len(pages) == 0 {
		return nil, fmt.Errorf("archive %s contains no images", p)
	}

	record := s.extractRecord(zr, p)

	archive := &domain.Archive{
		Key:         key,
		Slug:        util.Slugify(record.Title),
		Title:       record.Title,
		Description: record.Description,
		Path:        p,
		Pages:       len(pages),
		Size:        size,
		Thumbnail:   clampThumbnail(record.Thumbnail, len(pages)),
		Language:    record.Language,
		ReleasedAt:  record.ReleasedAt,
		CreatedAt:   time.Now(),
	}

	for i, entry := range pages {
		archive.Images = append(archive.Images, domain.Image{
			PageNumber: i + 1,
			Filename:   entry.Name,
		})
	}

	archive.Artists = toTaxonomies(record.Artists)
	archive.Circles = toTaxonomies(record.Circles)
	archive.Magazines = toTaxonomies(record.Magazines)
	archive.Events = toTaxonomies(record.Events)
	archive.Publishers = toTaxonomies(record.Publishers)
	archive.Parodies = toTaxonomies(record.Parodies)
	for _, tag := range record.Tags {
		archive.Tags = append(archive.Tags, domain.Tag{
			Slug:      util.Slugify(tag.Name),
			Name:      tag.Name,
			Namespace: tag.Namespace,
		})
	}
	for _, src := range record.Sources {
		archive.Sources = append(archive.Sources, domain.Source{Name: src.Name, URL: src.URL})
	}

	if err := s.store.CreateArchive(ctx, archive); err != nil {
		return nil, fmt.Errorf("create archive %s: %w", key, err)
	}
	return archive, nil
}

// extractRecord reads an embedded info file when one exists, falling
// back to the archive filename.
func (s *Scanner) extractRecord(zr *zipfile.Reader, archivePath string) *metadata.Record {
	for _, entry := range zr.ListEntries() {
		base := strings.ToLower(path.Base(entry.Name))
		if base != "info.json" && base != "info.yaml" && base != "info.yml" {
			continue
		}

		content, err := zr.ReadEntry(entry.Index)
		if err != nil {
			s.logger.WithError(err).Warn("read info entry", "entry", entry.Name)
			continue
		}
		format := metadata.Classify(entry.Name, content)
		record, err := metadata.Parse(format, content)
		if err != nil {
			s.logger.WithError(err).Warn("parse info entry", "entry", entry.Name, "format", format)
			continue
		}
		if record.Title == "" {
			record.Title = metadata.FromFilename(archivePath).Title
		}
		return record
	}
	return metadata.FromFilename(archivePath)
}

// hashFile returns the truncated sha256 content hash and file size.
func hashFile(p string) (string, int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil))[:keyLength], size, nil
}

func clampThumbnail(thumb, pages int) int {
	if thumb < 1 || thumb > pages {
		return 1
	}
	return thumb
}

func toTaxonomies(names []string) []domain.Taxonomy {
	var entries []domain.Taxonomy
	for _, name := range names {
		entries = append(entries, domain.Taxonomy{Slug: util.Slugify(name), Name: name})
	}
	return entries
}
