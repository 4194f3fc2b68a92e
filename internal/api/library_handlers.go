package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/search"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchLibrary",
		Method:      http.MethodGet,
		Path:        "/api/library",
		Summary:     "Search the library",
		Description: "Free-text and faceted search over the archive collection",
		Tags:        []string{"Library"},
	}, s.handleLibrary)
}

// LibraryInput deliberately takes page/sort/order as plain strings:
// malformed values are soft validation problems reported in the
// response, never request failures.
type LibraryInput struct {
	Q     string `query:"q" doc:"Search query"`
	Page  string `query:"page" doc:"1-based page number"`
	Sort  string `query:"sort" doc:"Sort key: relevance, released_at, created_at, title, pages, random"`
	Order string `query:"order" doc:"Sort direction: asc or desc"`
	Limit int    `query:"limit" doc:"Page size"`
	Seed  int64  `query:"seed" doc:"Seed for the random sort"`
}

// ArchiveSummary is the library listing shape for one archive.
type ArchiveSummary struct {
	ID         int64             `json:"id"`
	Key        string            `json:"key"`
	Slug       string            `json:"slug"`
	Title      string            `json:"title"`
	Pages      int               `json:"pages"`
	Thumbnail  int               `json:"thumbnail"`
	Language   string            `json:"language,omitempty"`
	ReleasedAt *time.Time        `json:"released_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Artists    []domain.Taxonomy `json:"artists,omitempty"`
	Circles    []domain.Taxonomy `json:"circles,omitempty"`
	Tags       []domain.Tag      `json:"tags,omitempty"`
}

// LibraryResponse is one page of search results.
type LibraryResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Warnings []string         `json:"warnings,omitempty"`
	Entries  []ArchiveSummary `json:"entries"`
}

// LibraryOutput wraps the response body for huma.
type LibraryOutput struct {
	Body LibraryResponse
}

func (s *Server) handleLibrary(ctx context.Context, input *LibraryInput) (*LibraryOutput, error) {
	q := search.FromParams(input.Q, input.Page, input.Sort, input.Order)
	if input.Limit > 0 {
		q.Limit = input.Limit
	}
	q.Seed = input.Seed

	compiled := search.Compile(q)
	total, ids, err := s.store.Search(ctx, compiled)
	if err != nil {
		return nil, s.humaError(err)
	}

	archives, err := s.store.ListArchives(ctx, ids)
	if err != nil {
		return nil, s.humaError(err)
	}

	resp := LibraryResponse{
		Total:    total,
		Page:     q.Page,
		Limit:    q.EffectiveLimit(),
		Warnings: compiled.Warnings,
		Entries:  make([]ArchiveSummary, 0, len(archives)),
	}
	for _, a := range archives {
		resp.Entries = append(resp.Entries, ArchiveSummary{
			ID:         a.ID,
			Key:        a.Key,
			Slug:       a.Slug,
			Title:      a.Title,
			Pages:      a.Pages,
			Thumbnail:  a.Thumbnail,
			Language:   a.Language,
			ReleasedAt: a.ReleasedAt,
			CreatedAt:  a.CreatedAt,
			Artists:    a.Artists,
			Circles:    a.Circles,
			Tags:       a.Tags,
		})
	}
	return &LibraryOutput{Body: resp}, nil
}
