package providers

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/render"
)

// RendererHandle wraps the renderer with shutdown capability.
type RendererHandle struct {
	*render.Renderer
}

// Shutdown implements do.Shutdownable.
func (h *RendererHandle) Shutdown() error {
	return h.Renderer.Close()
}

// ProvideRenderer provides the derivative renderer.
func ProvideRenderer(i do.Injector) (*RendererHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Directories.Thumbs, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbs directory: %w", err)
	}

	renderer := render.New(storeHandle.Store, cfg.Image, cfg.Directories.Thumbs, log)

	log.Info("Renderer ready", "thumbs_dir", cfg.Directories.Thumbs, "format", cfg.Image.Format)

	return &RendererHandle{Renderer: renderer}, nil
}
