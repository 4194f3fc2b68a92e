package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/store"
)

// archiveColumns is the ordered list of columns selected in archive
// queries. Must match the scan order in scanArchive.
const archiveColumns = `id, key, slug, title, description, path, pages, size, thumbnail, language, released_at, created_at, deleted_at`

// scanArchive scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Archive. Relations are left empty; hydrate fills them.
func scanArchive(scanner interface{ Scan(dest ...any) error }) (*domain.Archive, error) {
	var a domain.Archive

	var (
		description sql.NullString
		language    sql.NullString
		releasedAt  sql.NullString
		createdAt   string
		deletedAt   sql.NullString
	)

	err := scanner.Scan(
		&a.ID,
		&a.Key,
		&a.Slug,
		&a.Title,
		&description,
		&a.Path,
		&a.Pages,
		&a.Size,
		&a.Thumbnail,
		&language,
		&releasedAt,
		&createdAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.Language = language.String
	if a.ReleasedAt, err = parseNullableTime(releasedAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}

	return &a, nil
}

// CreateArchive inserts an archive with all its relations and indexes it
// for full-text search. Returns store.ErrAlreadyExists on a duplicate
// content key.
func (s *Store) CreateArchive(ctx context.Context, a *domain.Archive) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO archives (key, slug, title, description, path, pages, size, thumbnail, language, released_at, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Key,
		a.Slug,
		a.Title,
		nullString(a.Description),
		a.Path,
		a.Pages,
		a.Size,
		a.Thumbnail,
		nullString(a.Language),
		nullTimeString(a.ReleasedAt),
		formatTime(a.CreatedAt),
		nullTimeString(a.DeletedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert archive: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for _, img := range a.Images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO archive_images (archive_id, page_number, filename, width, height, blurhash)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, img.PageNumber, img.Filename, nullInt(img.Width), nullInt(img.Height), nullString(stringOf(img.BlurHash)),
		); err != nil {
			return fmt.Errorf("insert image %d: %w", img.PageNumber, err)
		}
	}

	for _, kind := range domain.TaxonomyKinds {
		for _, entry := range a.TaxonomyFor(kind) {
			if err := linkTaxonomy(ctx, tx, a.ID, kind, entry); err != nil {
				return err
			}
		}
	}

	for _, tag := range a.Tags {
		if err := linkTag(ctx, tx, a.ID, tag); err != nil {
			return err
		}
	}

	for _, src := range a.Sources {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO archive_sources (archive_id, name, url)
			VALUES (?, ?, ?)
			ON CONFLICT (archive_id, name) DO UPDATE SET url = excluded.url`,
			a.ID, src.Name, nullString(src.URL),
		); err != nil {
			return fmt.Errorf("insert source %s: %w", src.Name, err)
		}
	}

	if err := indexArchive(ctx, tx, a); err != nil {
		return err
	}

	return tx.Commit()
}

// indexArchive writes the archive's full-text row. The fts rowid is the
// archive id, so search results map straight back to archives.
func indexArchive(ctx context.Context, tx *sql.Tx, a *domain.Archive) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM archive_fts WHERE rowid = ?`, a.ID); err != nil {
		return fmt.Errorf("clear fts row: %w", err)
	}

	names := func(entries []domain.Taxonomy) string {
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = e.Name
		}
		return strings.Join(parts, " ")
	}
	tagNames := make([]string, len(a.Tags))
	for i, t := range a.Tags {
		tagNames[i] = t.Name
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO archive_fts (rowid, title, artists, circles, magazines, parodies, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Title,
		names(a.Artists),
		names(a.Circles),
		names(a.Magazines),
		names(a.Parodies),
		strings.Join(tagNames, " "),
	); err != nil {
		return fmt.Errorf("index archive: %w", err)
	}
	return nil
}

// taxonomyJoinColumns maps a kind to (entity table, join table, join fk).
func taxonomyJoin(kind domain.TaxonomyKind) (entity, join, fk string) {
	switch kind {
	case domain.TaxonomyArtist:
		return "artists", "archive_artists", "artist_id"
	case domain.TaxonomyCircle:
		return "circles", "archive_circles", "circle_id"
	case domain.TaxonomyMagazine:
		return "magazines", "archive_magazines", "magazine_id"
	case domain.TaxonomyEvent:
		return "events", "archive_events", "event_id"
	case domain.TaxonomyPublisher:
		return "publishers", "archive_publishers", "publisher_id"
	default:
		return "parodies", "archive_parodies", "parody_id"
	}
}

// linkTaxonomy upserts the taxonomy entry by slug and links it to the
// archive.
func linkTaxonomy(ctx context.Context, tx *sql.Tx, archiveID int64, kind domain.TaxonomyKind, entry domain.Taxonomy) error {
	entity, join, fk := taxonomyJoin(kind)

	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO `+entity+` (slug, name) VALUES (?, ?)
		ON CONFLICT (slug) DO UPDATE SET name = excluded.name
		RETURNING id`,
		entry.Slug, entry.Name,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", kind, entry.Slug, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO `+join+` (archive_id, `+fk+`) VALUES (?, ?)
		ON CONFLICT DO NOTHING`,
		archiveID, id,
	); err != nil {
		return fmt.Errorf("link %s %s: %w", kind, entry.Slug, err)
	}
	return nil
}

// linkTag upserts the tag by slug and links it to the archive under the
// tag's namespace.
func linkTag(ctx context.Context, tx *sql.Tx, archiveID int64, tag domain.Tag) error {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO tags (slug, name) VALUES (?, ?)
		ON CONFLICT (slug) DO UPDATE SET name = excluded.name
		RETURNING id`,
		tag.Slug, tag.Name,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert tag %s: %w", tag.Slug, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO archive_tags (archive_id, tag_id, namespace) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		archiveID, id, tag.Namespace,
	); err != nil {
		return fmt.Errorf("link tag %s: %w", tag.Slug, err)
	}
	return nil
}

// GetArchive returns one fully hydrated archive.
func (s *Store) GetArchive(ctx context.Context, id int64) (*domain.Archive, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+archiveColumns+` FROM archives WHERE id = ?`, id)

	a, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.hydrate(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// FindArchiveByKey looks up an archive by its content hash key without
// hydrating relations.
func (s *Store) FindArchiveByKey(ctx context.Context, key string) (*domain.Archive, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+archiveColumns+` FROM archives WHERE key = ?`, key)

	a, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return a, err
}

// ListArchives returns hydrated archives for the given ids, preserving
// the input order. Unknown ids are skipped.
func (s *Store) ListArchives(ctx context.Context, ids []int64) ([]*domain.Archive, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+archiveColumns+` FROM archives WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Archive, len(ids))
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve the caller's ordering; search ranking depends on it.
	result := make([]*domain.Archive, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			if err := s.hydrate(ctx, a); err != nil {
				return nil, err
			}
			result = append(result, a)
		}
	}
	return result, nil
}

// DeleteArchive soft-deletes an archive and drops its full-text row.
func (s *Store) DeleteArchive(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE archives SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM archive_fts WHERE rowid = ?`, id)
	return err
}

// hydrate fills the archive's taxonomy, tag, source, and image
// relations.
func (s *Store) hydrate(ctx context.Context, a *domain.Archive) error {
	for _, kind := range domain.TaxonomyKinds {
		entity, join, fk := taxonomyJoin(kind)
		rows, err := s.db.QueryContext(ctx, `
			SELECT e.id, e.slug, e.name FROM `+join+` j
			JOIN `+entity+` e ON e.id = j.`+fk+`
			WHERE j.archive_id = ? ORDER BY e.name`, a.ID)
		if err != nil {
			return err
		}
		var entries []domain.Taxonomy
		for rows.Next() {
			var t domain.Taxonomy
			if err := rows.Scan(&t.ID, &t.Slug, &t.Name); err != nil {
				rows.Close()
				return err
			}
			entries = append(entries, t)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		a.SetTaxonomy(kind, entries)
	}

	tagRows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.slug, t.name, j.namespace FROM archive_tags j
		JOIN tags t ON t.id = j.tag_id
		WHERE j.archive_id = ? ORDER BY j.namespace, t.name`, a.ID)
	if err != nil {
		return err
	}
	a.Tags = nil
	for tagRows.Next() {
		var t domain.Tag
		if err := tagRows.Scan(&t.ID, &t.Slug, &t.Name, &t.Namespace); err != nil {
			tagRows.Close()
			return err
		}
		a.Tags = append(a.Tags, t)
	}
	tagRows.Close()
	if err := tagRows.Err(); err != nil {
		return err
	}

	srcRows, err := s.db.QueryContext(ctx, `
		SELECT name, url FROM archive_sources WHERE archive_id = ? ORDER BY name`, a.ID)
	if err != nil {
		return err
	}
	a.Sources = nil
	for srcRows.Next() {
		var src domain.Source
		var url sql.NullString
		if err := srcRows.Scan(&src.Name, &url); err != nil {
			srcRows.Close()
			return err
		}
		src.URL = url.String
		a.Sources = append(a.Sources, src)
	}
	srcRows.Close()
	if err := srcRows.Err(); err != nil {
		return err
	}

	images, err := s.ListPageDimensions(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Images = images

	return nil
}

func stringOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
