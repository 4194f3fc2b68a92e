package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/errors"
	"github.com/stackshelf/stackshelf-server/internal/store"
)

func (s *Server) registerArchiveRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getArchive",
		Method:      http.MethodGet,
		Path:        "/api/archive/{id}",
		Summary:     "Get one archive",
		Description: "Returns the full archive record, computing missing page dimensions on demand",
		Tags:        []string{"Library"},
	}, s.handleGetArchive)
}

// GetArchiveInput selects one archive by id.
type GetArchiveInput struct {
	ID int64 `path:"id" doc:"Archive ID"`
}

// ArchiveOutput wraps the full archive record.
type ArchiveOutput struct {
	Body domain.Archive
}

func (s *Server) handleGetArchive(ctx context.Context, input *GetArchiveInput) (*ArchiveOutput, error) {
	a, err := s.store.GetArchive(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("archive not found")
		}
		return nil, s.humaError(err)
	}

	// Any page without recorded dimensions marks the archive as needing
	// computation.
	for _, img := range a.Images {
		if !img.Complete() {
			images, err := s.renderer.ComputeDimensions(ctx, a.ID)
			if err != nil {
				// Serve the record anyway; dimensions stay lazy.
				s.logger.WithError(err).Warn("dimension computation failed", "archive_id", a.ID)
			} else {
				a.Images = images
			}
			break
		}
	}

	return &ArchiveOutput{Body: *a}, nil
}
