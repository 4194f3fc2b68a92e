package sqlite

import (
	"context"
	"database/sql"

	"github.com/stackshelf/stackshelf-server/internal/domain"
)

// ListPageDimensions returns every page row for the archive in page
// order. Pages without recorded dimensions have nil width/height.
func (s *Store) ListPageDimensions(ctx context.Context, archiveID int64) ([]domain.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT archive_id, page_number, filename, width, height, blurhash
		FROM archive_images WHERE archive_id = ? ORDER BY page_number`, archiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// UpsertPageDimensions records the dimensions and blurhash for one page.
// Insert-on-conflict-update semantics make repeated computation
// idempotent.
func (s *Store) UpsertPageDimensions(ctx context.Context, img domain.Image) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO archive_images (archive_id, page_number, filename, width, height, blurhash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (archive_id, page_number) DO UPDATE SET
			filename = excluded.filename,
			width = excluded.width,
			height = excluded.height,
			blurhash = excluded.blurhash`,
		img.ArchiveID,
		img.PageNumber,
		img.Filename,
		nullInt(img.Width),
		nullInt(img.Height),
		nullString(stringOf(img.BlurHash)),
	)
	return err
}

func scanImage(scanner interface{ Scan(dest ...any) error }) (domain.Image, error) {
	var img domain.Image
	var (
		width    sql.NullInt64
		height   sql.NullInt64
		blurhash sql.NullString
	)
	err := scanner.Scan(
		&img.ArchiveID,
		&img.PageNumber,
		&img.Filename,
		&width,
		&height,
		&blurhash,
	)
	if err != nil {
		return domain.Image{}, err
	}
	img.Width = intPtr(width)
	img.Height = intPtr(height)
	img.BlurHash = strPtr(blurhash)
	return img, nil
}
