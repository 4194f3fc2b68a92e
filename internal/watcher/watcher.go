// Package watcher monitors the content directory and triggers ingestion
// for archives that appear or change.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/scanner"
)

// settleDelay is how long a file must stay quiet before ingesting.
// Copies into the content directory arrive as a burst of write events.
const settleDelay = 2 * time.Second

// Watcher watches the content directory for new archives.
type Watcher struct {
	scanner    *scanner.Scanner
	contentDir string
	logger     *logger.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher.
func New(s *scanner.Scanner, contentDir string, log *logger.Logger) *Watcher {
	return &Watcher{
		scanner:    s,
		contentDir: contentDir,
		logger:     log,
		pending:    make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.contentDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.contentDir, err)
	}
	w.logger.Info("watching content directory", "dir", w.contentDir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !isArchive(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watcher error")
		}
	}
}

// schedule (re)arms the settle timer for one path; the ingest fires once
// the event burst stops.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}

	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		archive, err := w.scanner.IngestFile(ctx, path)
		if err != nil {
			w.logger.WithError(err).Warn("ingest after watch event failed", "path", path)
			return
		}
		if archive != nil {
			w.logger.Info("indexed new archive", "key", archive.Key, "title", archive.Title)
		}
	})
}

func isArchive(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".cbz":
		return true
	default:
		return false
	}
}
