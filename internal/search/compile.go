package search

import (
	"strings"

	"github.com/stackshelf/stackshelf-server/internal/domain"
)

// Compiled is the output of one compilation: two statements sharing the
// identical predicate set, so the count always matches the pages.
type Compiled struct {
	CountSQL  string
	CountArgs []any
	IDsSQL    string
	IDsArgs   []any

	// HasFreeText reports whether any positive full-text group was
	// compiled. Relevance ordering falls back to created_at without one,
	// since rank is undefined.
	HasFreeText bool

	// Warnings carries soft validation problems from the query
	// parameters and from facet values that could not be compiled.
	Warnings []string
}

// Compile translates a query into its count and paged-ids statements.
// It is a pure function with no shared state.
func Compile(q Query) Compiled {
	c := Compiled{Warnings: q.Warnings}

	facets, remainder := extractFacets(q.Value)
	groups := parseFreeText(sanitize(remainder))

	var where []Node

	// Free-text OR groups become one disjunction over the FTS table.
	var ftsNodes []Node
	var rankMatches []string
	for _, g := range groups {
		ftsNodes = append(ftsNodes, &ftsPred{match: g.match, negated: g.negated})
		if !g.negated {
			rankMatches = append(rankMatches, "("+g.match+")")
		}
	}
	if len(ftsNodes) > 0 {
		where = append(where, or(ftsNodes...))
	}
	c.HasFreeText = len(rankMatches) > 0

	for _, tok := range facets {
		node, warn := facetNode(tok)
		if node == nil {
			c.Warnings = append(c.Warnings, warn)
			continue
		}
		where = append(where, node)
	}

	for _, entry := range q.Blacklist {
		if node := blacklistNode(entry); node != nil {
			where = append(where, node)
		}
	}

	if !q.Deleted {
		where = append(where, &rawPred{sql: "archives.deleted_at IS NULL"})
	}

	var whereSQL string
	var whereArgs []any
	if len(where) > 0 {
		sql, args := render(and(where...))
		whereSQL = " WHERE " + sql
		whereArgs = args
	}

	c.CountSQL = "SELECT COUNT(*) FROM archives" + whereSQL
	c.CountArgs = whereArgs

	// The rank join precedes WHERE in the statement, so its argument
	// comes first.
	useRank := q.Sort == SortRelevance && c.HasFreeText
	var join string
	if useRank {
		join = " LEFT JOIN (SELECT rowid, -bm25(archive_fts) AS rank FROM archive_fts WHERE archive_fts MATCH ?) fts ON fts.rowid = archives.id"
		c.IDsArgs = append(c.IDsArgs, strings.Join(rankMatches, " OR "))
	}
	c.IDsArgs = append(c.IDsArgs, whereArgs...)

	orderSQL, orderArgs := orderBy(q, useRank)
	c.IDsArgs = append(c.IDsArgs, orderArgs...)

	c.IDsArgs = append(c.IDsArgs, q.EffectiveLimit(), q.Offset())

	c.IDsSQL = "SELECT archives.id FROM archives" + join + whereSQL +
		" ORDER BY " + orderSQL + " LIMIT ? OFFSET ?"

	return c
}

// orderBy renders the ORDER BY expression for the requested sort key.
// Tie-breaks: relevance uses rank then created_at (created_at alone with
// no free text); released_at sorts nulls last with a created_at
// tie-break; pages breaks ties on created_at.
func orderBy(q Query, useRank bool) (string, []any) {
	dir := "DESC"
	if q.Order == OrderAsc {
		dir = "ASC"
	}

	switch q.Sort {
	case SortRelevance:
		if useRank {
			return "fts.rank " + dir + " NULLS LAST, archives.created_at " + dir, nil
		}
		return "archives.created_at " + dir, nil
	case SortCreatedAt:
		return "archives.created_at " + dir, nil
	case SortTitle:
		return "archives.title COLLATE NOCASE " + dir, nil
	case SortPages:
		return "archives.pages " + dir + ", archives.created_at " + dir, nil
	case SortRandom:
		// Deterministic shuffle from the request seed, stable across the
		// pages of one result set.
		return "((archives.id * 1103515245 + ?) % 2147483647) " + dir, []any{q.Seed}
	default: // SortReleasedAt
		return "archives.released_at " + dir + " NULLS LAST, archives.created_at " + dir, nil
	}
}

// blacklistNode compiles one blacklist entry as a negated facet. Entries
// use the facet syntax ("male:shota") or a bare value, which blacklists
// it as a tag in any namespace.
func blacklistNode(entry string) Node {
	entry = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(entry), "-"))
	if entry == "" {
		return nil
	}

	tok := facetToken{name: "tag", value: entry}
	if name, value, ok := strings.Cut(entry, ":"); ok {
		if _, known := tagNamespaces[strings.ToLower(name)]; known {
			tok = facetToken{name: strings.ToLower(name), value: value}
		} else if _, known := taxonomyTables[kindOf(name)]; known {
			tok = facetToken{name: strings.ToLower(name), value: value}
		}
	}

	node, _ := facetNode(tok)
	if node == nil {
		return nil
	}
	return not(node)
}

func kindOf(name string) domain.TaxonomyKind {
	return domain.TaxonomyKind(strings.ToLower(name))
}
