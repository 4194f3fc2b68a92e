package sqlite

import (
	"context"
	"fmt"

	"github.com/stackshelf/stackshelf-server/internal/search"
)

// Search runs a compiled query. The two statements share an identical
// predicate set, so the total always agrees with the returned page.
func (s *Store) Search(ctx context.Context, c search.Compiled) (int64, []int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, c.CountSQL, c.CountArgs...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("search count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, c.IDsSQL, c.IDsArgs...)
	if err != nil {
		return 0, nil, fmt.Errorf("search ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, nil, err
		}
		ids = append(ids, id)
	}
	return total, ids, rows.Err()
}
