package render

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/errors"
	"github.com/stackshelf/stackshelf-server/internal/imaging"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/metrics"
	"github.com/stackshelf/stackshelf-server/internal/store"
	"github.com/stackshelf/stackshelf-server/internal/zipfile"
)

// queueSize bounds the render work queues. Callers enqueue only after
// claiming a single-flight key, so depth is bounded by distinct keys.
const queueSize = 256

// pageKey identifies one page derivative computation.
type pageKey struct {
	archiveID int64
	page      int
	kind      Kind
}

type pageTask struct {
	key     pageKey
	archive *domain.Archive
	path    string
}

// Renderer is the derived-asset coordinator. Each asset class has a
// single-flight map feeding a dedicated worker goroutine, serializing
// heavy CPU work per class while the file cache stays the durable
// source of truth.
type Renderer struct {
	store     store.Store
	cfg       config.ImageConfig
	thumbsDir string
	logger    *logger.Logger

	pages     *Flight[pageKey, []byte]
	dims      *Flight[int64, []domain.Image]
	pageQueue chan pageTask
	dimQueue  chan int64

	// Codec indirection, replaced in tests.
	encode      func([]byte, imaging.Options) ([]byte, error)
	decodeImage func([]byte) (image.Image, error)
}

// New creates a renderer and starts its worker goroutines.
func New(st store.Store, cfg config.ImageConfig, thumbsDir string, log *logger.Logger) *Renderer {
	r := &Renderer{
		store:       st,
		cfg:         cfg,
		thumbsDir:   thumbsDir,
		logger:      log,
		pages:       NewFlight[pageKey, []byte](),
		dims:        NewFlight[int64, []domain.Image](),
		pageQueue:   make(chan pageTask, queueSize),
		dimQueue:    make(chan int64, queueSize),
		encode:      imaging.Encode,
		decodeImage: imaging.DecodeImage,
	}
	go r.pageWorker()
	go r.dimWorker()
	return r
}

// Close stops the worker goroutines. In-flight computations finish
// first.
func (r *Renderer) Close() error {
	close(r.pageQueue)
	close(r.dimQueue)
	return nil
}

// RenderPage returns the encoded derivative for one page, probing the
// durable cache first and coordinating computation on a miss. All
// concurrent callers for the same (archive, page, kind) share one
// computation and one outcome.
func (r *Renderer) RenderPage(ctx context.Context, archiveKey string, page int, kind Kind) ([]byte, error) {
	archive, err := r.store.FindArchiveByKey(ctx, archiveKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("archive %s not found", archiveKey)
		}
		return nil, errors.Store(err)
	}
	if page < 1 || page > archive.Pages {
		return nil, errors.ImageNotFoundf("page %d out of range [1, %d]", page, archive.Pages)
	}

	cachePath := PagePath(r.thumbsDir, archive.Key, page, archive.Pages, kind, r.cfg.Extension())
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.RenderCacheHit(string(kind))
		return data, nil
	}
	metrics.RenderCacheMiss(string(kind))

	key := pageKey{archiveID: archive.ID, page: page, kind: kind}
	wait, claimed := r.pages.Join(key)
	if claimed {
		r.pageQueue <- pageTask{key: key, archive: archive, path: cachePath}
	}

	select {
	case out := <-wait:
		return out.Value, out.Err
	case <-ctx.Done():
		// The computation continues for the remaining waiters and still
		// populates the cache; only this caller gives up.
		return nil, errors.ErrChannel.WithCause(ctx.Err())
	}
}

// pageWorker drains the page queue. Failures are broadcast to the key's
// waiters and never stop the loop.
func (r *Renderer) pageWorker() {
	for task := range r.pageQueue {
		start := time.Now()
		data, err := r.renderPage(task)
		if err != nil {
			metrics.RenderFailure(string(task.key.kind))
			r.logger.WithError(err).Error("render failed",
				"archive", task.archive.Key, "page", task.key.page, "kind", task.key.kind)
		} else {
			metrics.ObserveRender(string(task.key.kind), time.Since(start).Seconds())
		}
		r.pages.Finish(task.key, data, err)
	}
}

// renderPage does the actual work for one claimed key, outside any lock.
func (r *Renderer) renderPage(task pageTask) ([]byte, error) {
	data, err := r.readPage(task.archive, task.key.page)
	if err != nil {
		return nil, err
	}

	opts := imaging.CoverOptions(r.cfg)
	if task.key.kind == KindThumbnail {
		opts = imaging.ThumbnailOptions(r.cfg)
	}
	out, err := r.encode(data, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(task.path), 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "create cache dir")
	}
	if err := os.WriteFile(task.path, out, 0o644); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "write cache file")
	}
	return out, nil
}

// readPage extracts the raw bytes for one page: by recorded filename
// when it still matches an entry, else by natural-sort position among
// the image entries.
func (r *Renderer) readPage(archive *domain.Archive, page int) ([]byte, error) {
	zr, err := zipfile.Open(archive.Path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "open archive %s", archive.Key)
	}
	defer zr.Close()

	images, err := r.store.ListPageDimensions(context.Background(), archive.ID)
	if err != nil {
		return nil, errors.Store(err)
	}

	var filename string
	if page <= len(images) {
		filename = images[page-1].Filename
	}
	if filename != "" {
		if entry, ok := zr.FindEntry(filename); ok {
			return zr.ReadEntry(entry.Index)
		}
	}

	// Stale metadata: fall back to positional lookup.
	entries := zr.ImageEntries()
	if page > len(entries) {
		return nil, errors.ImageNotFoundf("page %d missing from archive %s", page, archive.Key)
	}
	return zr.ReadEntry(entries[page-1].Index)
}

// ComputeDimensions returns the full ordered dimension set for an
// archive, computing and persisting any missing entries. Pages that
// already have dimensions are not recomputed.
func (r *Renderer) ComputeDimensions(ctx context.Context, archiveID int64) ([]domain.Image, error) {
	images, err := r.store.ListPageDimensions(ctx, archiveID)
	if err != nil {
		return nil, errors.Store(err)
	}
	if len(images) == 0 {
		return nil, errors.NotFoundf("archive %d has no pages", archiveID)
	}

	complete := true
	for _, img := range images {
		if !img.Complete() {
			complete = false
			break
		}
	}
	if complete {
		return images, nil
	}

	wait, claimed := r.dims.Join(archiveID)
	if claimed {
		r.dimQueue <- archiveID
	}

	select {
	case out := <-wait:
		return out.Value, out.Err
	case <-ctx.Done():
		return nil, errors.ErrChannel.WithCause(ctx.Err())
	}
}

func (r *Renderer) dimWorker() {
	for archiveID := range r.dimQueue {
		images, err := r.computeDimensions(archiveID)
		if err != nil {
			r.logger.WithError(err).Error("dimension pass failed", "archive_id", archiveID)
		}
		r.dims.Finish(archiveID, images, err)
	}
}

// computeDimensions decodes every page still missing dimensions,
// computing the blurhash on the same pass, and upserts each result.
func (r *Renderer) computeDimensions(archiveID int64) ([]domain.Image, error) {
	ctx := context.Background()

	archive, err := r.store.GetArchive(ctx, archiveID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("archive %d not found", archiveID)
		}
		return nil, errors.Store(err)
	}

	zr, err := zipfile.Open(archive.Path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "open archive %s", archive.Key)
	}
	defer zr.Close()

	entries := zr.ImageEntries()
	images := archive.Images

	for i := range images {
		if images[i].Complete() {
			continue
		}

		entry, ok := zr.FindEntry(images[i].Filename)
		if !ok {
			if i >= len(entries) {
				return nil, errors.ImageNotFoundf("page %d missing from archive %s", images[i].PageNumber, archive.Key)
			}
			entry = entries[i]
		}

		data, err := zr.ReadEntry(entry.Index)
		if err != nil {
			return nil, err
		}
		img, err := r.decodeImage(data)
		if err != nil {
			return nil, err
		}

		bounds := img.Bounds()
		w, h := bounds.Dx(), bounds.Dy()
		images[i].Width = &w
		images[i].Height = &h

		if hash, err := imaging.BlurHash(img); err == nil {
			images[i].BlurHash = &hash
		}

		images[i].ArchiveID = archiveID
		if err := r.store.UpsertPageDimensions(ctx, images[i]); err != nil {
			return nil, errors.Store(err)
		}
	}

	return images, nil
}
