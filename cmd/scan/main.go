// Package main provides a one-shot library scan without starting the server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/scanner"
	"github.com/stackshelf/stackshelf-server/internal/store/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := os.MkdirAll(cfg.Directories.Data, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := sqlite.Open(cfg.Directories.DatabasePath(), log.Logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	started := time.Now()
	s := scanner.New(db, cfg.Scanner, cfg.Directories.Content, log)
	if err := s.ScanAll(ctx); err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	log.Info("Scan complete", "dir", cfg.Directories.Content, "duration", time.Since(started))
}
