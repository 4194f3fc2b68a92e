// Package store defines the persistence interface for the StackShelf
// library.
package store

import (
	"context"
	"errors"

	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/search"
)

// Sentinel errors returned by store implementations.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
)

// Store is the persistence surface consumed by the renderer, the
// scanner, and the API handlers.
type Store interface {
	// CreateArchive inserts an archive with its images, taxonomies,
	// tags, and sources, and indexes it for full-text search. Returns
	// ErrAlreadyExists when the content key is already indexed.
	CreateArchive(ctx context.Context, a *domain.Archive) error

	// GetArchive returns one fully hydrated archive.
	GetArchive(ctx context.Context, id int64) (*domain.Archive, error)

	// FindArchiveByKey looks up an archive by its content hash key.
	// The result is not hydrated.
	FindArchiveByKey(ctx context.Context, key string) (*domain.Archive, error)

	// ListArchives returns hydrated archives for the given ids, ordered
	// to match the input id order. Unknown ids are skipped.
	ListArchives(ctx context.Context, ids []int64) ([]*domain.Archive, error)

	// ListPageDimensions returns every page row for the archive in page
	// order, including pages with missing dimensions.
	ListPageDimensions(ctx context.Context, archiveID int64) ([]domain.Image, error)

	// UpsertPageDimensions records the dimensions (and blurhash) for one
	// page. Repeated computation is idempotent.
	UpsertPageDimensions(ctx context.Context, img domain.Image) error

	// Search runs a compiled query, returning the total match count and
	// the requested page of archive ids.
	Search(ctx context.Context, c search.Compiled) (total int64, ids []int64, err error)

	// DeleteArchive soft-deletes an archive.
	DeleteArchive(ctx context.Context, id int64) error

	Close() error
}
