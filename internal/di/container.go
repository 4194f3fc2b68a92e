// Package di provides dependency injection configuration for the StackShelf server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/di/providers"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/scanner"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Rendering layer
	do.Provide(injector, providers.ProvideRenderer)

	// Ingest layer
	do.Provide(injector, providers.ProvideScanner)
	do.Provide(injector, providers.ProvideWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap triggers lazy initialization of all services and kicks off
// the initial library scan.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.RendererHandle](injector)
	_ = do.MustInvoke[*scanner.Scanner](injector)
	_ = do.MustInvoke[*providers.WatcherHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	go providers.RunInitialScan(injector)

	return nil
}
