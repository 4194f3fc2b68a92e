package search

import (
	"strings"

	"github.com/stackshelf/stackshelf-server/internal/domain"
)

// Node is a predicate-tree node. The tokenizer builds trees; emit
// renders them as parameterized SQL in a single pass. Keeping the two
// stages apart makes grouping testable on the tree and SQL emission
// testable on a fixed tree.
type Node interface {
	emit(b *builder)
}

// andNode is the conjunction of its children.
type andNode struct {
	children []Node
}

// orNode is the disjunction of its children. OR binds looser than AND,
// so the tokenizer only ever produces OR-of-AND shapes from flat input.
type orNode struct {
	children []Node
}

// notNode negates its child.
type notNode struct {
	child Node
}

func and(children ...Node) Node {
	if len(children) == 1 {
		return children[0]
	}
	return &andNode{children: children}
}

func or(children ...Node) Node {
	if len(children) == 1 {
		return children[0]
	}
	return &orNode{children: children}
}

func not(child Node) Node {
	return &notNode{child: child}
}

func (n *andNode) emit(b *builder) {
	b.sql.WriteByte('(')
	for i, c := range n.children {
		if i > 0 {
			b.sql.WriteString(" AND ")
		}
		c.emit(b)
	}
	b.sql.WriteByte(')')
}

func (n *orNode) emit(b *builder) {
	b.sql.WriteByte('(')
	for i, c := range n.children {
		if i > 0 {
			b.sql.WriteString(" OR ")
		}
		c.emit(b)
	}
	b.sql.WriteByte(')')
}

func (n *notNode) emit(b *builder) {
	b.sql.WriteString("NOT ")
	n.child.emit(b)
}

// taxonomyPred matches archives linked to a taxonomy entry whose name or
// slug matches the pattern case-insensitively. `*` in the user value has
// already been translated to `%`.
type taxonomyPred struct {
	kind    domain.TaxonomyKind
	pattern string
}

// taxonomyTables maps a kind to its entity and join table names.
var taxonomyTables = map[domain.TaxonomyKind][2]string{
	domain.TaxonomyArtist:    {"artists", "archive_artists"},
	domain.TaxonomyCircle:    {"circles", "archive_circles"},
	domain.TaxonomyMagazine:  {"magazines", "archive_magazines"},
	domain.TaxonomyEvent:     {"events", "archive_events"},
	domain.TaxonomyPublisher: {"publishers", "archive_publishers"},
	domain.TaxonomyParody:    {"parodies", "archive_parodies"},
}

func (p *taxonomyPred) emit(b *builder) {
	tables := taxonomyTables[p.kind]
	entity, join := tables[0], tables[1]
	b.sql.WriteString("EXISTS (SELECT 1 FROM ")
	b.sql.WriteString(join)
	b.sql.WriteString(" j JOIN ")
	b.sql.WriteString(entity)
	b.sql.WriteString(" e ON e.id = j.")
	b.sql.WriteString(string(p.kind))
	b.sql.WriteString("_id WHERE j.archive_id = archives.id AND (e.name LIKE ? OR e.slug LIKE ?))")
	b.args = append(b.args, p.pattern, p.pattern)
}

// tagPred matches archives linked to a tag whose name or slug matches
// the pattern, constrained to the relation's namespace. namespace "%"
// matches any.
type tagPred struct {
	namespace string
	pattern   string
}

func (p *tagPred) emit(b *builder) {
	b.sql.WriteString("EXISTS (SELECT 1 FROM archive_tags j JOIN tags e ON e.id = j.tag_id" +
		" WHERE j.archive_id = archives.id AND j.namespace LIKE ? AND (e.name LIKE ? OR e.slug LIKE ?))")
	b.args = append(b.args, p.namespace, p.pattern, p.pattern)
}

// titlePred matches the archive title column directly.
type titlePred struct {
	pattern string
}

func (p *titlePred) emit(b *builder) {
	b.sql.WriteString("archives.title LIKE ?")
	b.args = append(b.args, p.pattern)
}

// pagesPred compares the archive page count. op is one of =, <, <=, >,
// >=.
type pagesPred struct {
	op    string
	value int
}

func (p *pagesPred) emit(b *builder) {
	b.sql.WriteString("archives.pages ")
	b.sql.WriteString(p.op)
	b.sql.WriteString(" ?")
	b.args = append(b.args, p.value)
}

// idPred matches explicit archive ids and inclusive id ranges, combined
// with OR.
type idPred struct {
	ids    []int64
	ranges [][2]int64
}

func (p *idPred) emit(b *builder) {
	b.sql.WriteByte('(')
	first := true
	if len(p.ids) > 0 {
		b.sql.WriteString("archives.id IN (")
		for i, id := range p.ids {
			if i > 0 {
				b.sql.WriteString(", ")
			}
			b.sql.WriteByte('?')
			b.args = append(b.args, id)
		}
		b.sql.WriteByte(')')
		first = false
	}
	for _, r := range p.ranges {
		if !first {
			b.sql.WriteString(" OR ")
		}
		b.sql.WriteString("archives.id BETWEEN ? AND ?")
		b.args = append(b.args, r[0], r[1])
		first = false
	}
	if first {
		// An id facet that parsed to nothing matches nothing.
		b.sql.WriteString("1 = 0")
	}
	b.sql.WriteByte(')')
}

// ftsPred matches archives whose full-text row satisfies an FTS5 MATCH
// expression. negated groups (no positive term to anchor a binary NOT)
// are emitted as NOT IN against the same subquery.
type ftsPred struct {
	match   string
	negated bool
}

func (p *ftsPred) emit(b *builder) {
	if p.negated {
		b.sql.WriteString("archives.id NOT IN (SELECT rowid FROM archive_fts WHERE archive_fts MATCH ?)")
	} else {
		b.sql.WriteString("archives.id IN (SELECT rowid FROM archive_fts WHERE archive_fts MATCH ?)")
	}
	b.args = append(b.args, p.match)
}

// rawPred emits a fixed SQL fragment with no arguments.
type rawPred struct {
	sql string
}

func (p *rawPred) emit(b *builder) {
	b.sql.WriteString(p.sql)
}

// builder accumulates SQL text and bound arguments during emission.
type builder struct {
	sql  strings.Builder
	args []any
}

// render emits a tree to SQL text plus its bound arguments.
func render(n Node) (string, []any) {
	b := &builder{}
	n.emit(b)
	return b.sql.String(), b.args
}
