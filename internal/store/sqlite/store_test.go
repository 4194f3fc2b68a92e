package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stackshelf/stackshelf-server/internal/domain"
)

// newTestStore creates a store backed by a temp database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testArchive builds a minimal archive fixture.
func testArchive(key, title string) *domain.Archive {
	return &domain.Archive{
		Key:       key,
		Slug:      key,
		Title:     title,
		Path:      "/library/" + key + ".zip",
		Pages:     3,
		Size:      1024,
		Thumbnail: 1,
		CreatedAt: time.Now(),
		Images: []domain.Image{
			{PageNumber: 1, Filename: "page1.jpg"},
			{PageNumber: 2, Filename: "page2.jpg"},
			{PageNumber: 3, Filename: "page3.jpg"},
		},
	}
}

func TestOpenRunsSchema(t *testing.T) {
	s := newTestStore(t)

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'archives'`).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if count != 1 {
		t.Fatalf("archives table missing")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s1, err := Open(path, slog.Default())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	s2, err := Open(path, slog.Default())
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}

func TestTimeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	released := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	a := testArchive("k1", "Round Trip")
	a.ReleasedAt = &released

	if err := s.CreateArchive(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetArchive(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ReleasedAt == nil || !got.ReleasedAt.Equal(released) {
		t.Fatalf("released_at = %v, want %v", got.ReleasedAt, released)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at not persisted")
	}
}
