package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/scanner"
	"github.com/stackshelf/stackshelf-server/internal/watcher"
)

// ProvideScanner provides the archive scanner.
func ProvideScanner(i do.Injector) (*scanner.Scanner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return scanner.New(storeHandle.Store, cfg.Scanner, cfg.Directories.Content, log), nil
}

// WatcherHandle wraps the content watcher with its lifecycle context.
type WatcherHandle struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *WatcherHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideWatcher provides the content directory watcher. When watching is
// disabled the handle is inert.
func ProvideWatcher(i do.Injector) (*WatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Scanner.Watch {
		log.Info("Content watching disabled by configuration")
		return &WatcherHandle{}, nil
	}

	fileScanner := do.MustInvoke[*scanner.Scanner](i)
	w := watcher.New(fileScanner, cfg.Directories.Content, log)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("Content watcher stopped")
		}
	}()

	return &WatcherHandle{cancel: cancel}, nil
}

// RunInitialScan walks the content directory once at startup. Should be
// called after all dependencies are wired.
func RunInitialScan(i do.Injector) {
	fileScanner := do.MustInvoke[*scanner.Scanner](i)
	log := do.MustInvoke[*logger.Logger](i)

	log.Info("Running initial scan")
	if err := fileScanner.ScanAll(context.Background()); err != nil {
		log.WithError(err).Error("Initial scan failed")
	}
}
