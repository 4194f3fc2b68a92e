package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stackshelf/stackshelf-server/internal/domain"
)

// facetRe matches one namespaced facet token: an optional leading `-`
// negating the whole condition, a facet name, and a value that is either
// quoted (single or double) or a run of non-space characters. It runs
// against the raw input so quoted values and `|`/`&` grouping survive
// sanitization.
var facetRe = regexp.MustCompile(`(?i)(-?)\b(artist|circle|magazine|event|publisher|parody|tag|male|female|misc|other|title|pages|id):("[^"]*"|'[^']*'|[^\s]+)`)

// sanitizeRe strips the characters meaningful only to the compiler's own
// grammar, never to users.
var sanitizeRe = regexp.MustCompile(`[\[\]()~&]`)

// whitespaceRe collapses runs of whitespace.
var whitespaceRe = regexp.MustCompile(`\s+`)

// facetToken is one extracted `-?name:value` token.
type facetToken struct {
	negated bool
	name    string
	value   string
}

// sanitize strips grammar characters and collapses whitespace.
func sanitize(s string) string {
	s = sanitizeRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// extractFacets scans the raw query for facet tokens, removing each
// matched token and returning them alongside the free-text remainder.
func extractFacets(raw string) ([]facetToken, string) {
	var facets []facetToken
	remainder := facetRe.ReplaceAllStringFunc(raw, func(m string) string {
		groups := facetRe.FindStringSubmatch(m)
		facets = append(facets, facetToken{
			negated: groups[1] == "-",
			name:    strings.ToLower(groups[2]),
			value:   groups[3],
		})
		return ""
	})
	return facets, remainder
}

// unquote strips a single layer of matching quotes. Reports whether the
// value was quoted, which disables `|`/`&` grouping inside it.
func unquote(v string) (string, bool) {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1], true
		}
	}
	return v, false
}

// likePattern converts a user value to a LIKE pattern (`*` is the user
// wildcard).
func likePattern(v string) string {
	return strings.ReplaceAll(v, "*", "%")
}

// tagNamespaces maps tag-class facet names to the namespace constraint
// on the archive_tags relation.
var tagNamespaces = map[string]string{
	"tag":    "%",
	"male":   "male",
	"female": "female",
	"misc":   "misc",
	"other":  "misc",
}

// facetNode compiles one facet token into a predicate tree. A value
// containing `|` and `&` produces OR-of-AND groups mirroring the
// free-text grouping rule (OR binds looser than AND). Negation wraps the
// whole value tree. Returns nil with a warning message for values that
// cannot be compiled.
func facetNode(tok facetToken) (Node, string) {
	value, quoted := unquote(tok.value)
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, "empty value for facet " + tok.name
	}

	leaf := func(v string) (Node, string) { return facetLeaf(tok.name, v) }

	var node Node
	if quoted {
		var warn string
		node, warn = leaf(value)
		if node == nil {
			return nil, warn
		}
	} else {
		var orGroups []Node
		for _, group := range strings.Split(value, "|") {
			var leaves []Node
			for _, part := range strings.Split(group, "&") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				n, warn := leaf(part)
				if n == nil {
					return nil, warn
				}
				leaves = append(leaves, n)
			}
			if len(leaves) > 0 {
				orGroups = append(orGroups, and(leaves...))
			}
		}
		if len(orGroups) == 0 {
			return nil, "empty value for facet " + tok.name
		}
		node = or(orGroups...)
	}

	if tok.negated {
		node = not(node)
	}
	return node, ""
}

// facetLeaf builds the leaf predicate for one facet name and a single
// (already ungrouped) value.
func facetLeaf(name, value string) (Node, string) {
	switch name {
	case "artist", "circle", "magazine", "event", "publisher", "parody":
		return &taxonomyPred{
			kind:    domain.TaxonomyKind(name),
			pattern: likePattern(value),
		}, ""
	case "tag", "male", "female", "misc", "other":
		return &tagPred{
			namespace: tagNamespaces[name],
			pattern:   likePattern(value),
		}, ""
	case "title":
		return &titlePred{pattern: likePattern(value)}, ""
	case "pages":
		return pagesLeaf(value)
	case "id":
		return idLeaf(value)
	default:
		return nil, "unknown facet " + name
	}
}

// pagesLeaf parses an optional comparison operator followed by a page
// count.
func pagesLeaf(value string) (Node, string) {
	op := "="
	for _, candidate := range []string{">=", "<=", ">", "<", "="} {
		if strings.HasPrefix(value, candidate) {
			op = candidate
			value = value[len(candidate):]
			break
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, "invalid pages value " + strconv.Quote(value)
	}
	return &pagesPred{op: op, value: n}, ""
}

// idLeaf parses a comma-separated list of ids and `start-end` ranges.
func idLeaf(value string) (Node, string) {
	pred := &idPred{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok && lo != "" {
			start, err1 := strconv.ParseInt(lo, 10, 64)
			end, err2 := strconv.ParseInt(hi, 10, 64)
			if err1 != nil || err2 != nil || end < start {
				return nil, "invalid id range " + strconv.Quote(part)
			}
			pred.ranges = append(pred.ranges, [2]int64{start, end})
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, "invalid id " + strconv.Quote(part)
		}
		pred.ids = append(pred.ids, id)
	}
	if len(pred.ids) == 0 && len(pred.ranges) == 0 {
		return nil, "empty id facet"
	}
	return pred, ""
}

// term is one free-text word after tokenization.
type term struct {
	text    string
	exact   bool
	negated bool
}

// ftsGroup is one OR-separated group of free-text terms compiled to a
// single FTS5 MATCH expression. Groups with no positive term cannot
// anchor FTS5's binary NOT and are marked negated: the whole group is
// `NOT (t1 OR t2 ...)`.
type ftsGroup struct {
	match   string
	negated bool
}

// parseFreeText splits the sanitized free-text remainder into OR groups
// of AND terms. Whitespace joins terms with implicit AND; `|` separates
// groups and binds looser than AND.
func parseFreeText(remainder string) []ftsGroup {
	var groups [][]term
	current := []term{}

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = []term{}
		}
	}

	for _, word := range strings.Fields(remainder) {
		// A token may carry `|` with no surrounding spaces: "a|b".
		for i, piece := range strings.Split(word, "|") {
			if i > 0 {
				flush()
			}
			if t, ok := parseTerm(piece); ok {
				current = append(current, t)
			}
		}
	}
	flush()

	result := make([]ftsGroup, 0, len(groups))
	for _, g := range groups {
		if fg, ok := compileGroup(g); ok {
			result = append(result, fg)
		}
	}
	return result
}

// parseTerm classifies one word: leading `-` negates, a trailing `$`
// marks exact match (marker stripped), everything else is a prefix term.
func parseTerm(word string) (term, bool) {
	t := term{}
	if strings.HasPrefix(word, "-") {
		t.negated = true
		word = word[1:]
	}
	if strings.HasSuffix(word, "$") {
		t.exact = true
		word = strings.TrimSuffix(word, "$")
	}
	word = strings.Trim(word, `"'`)
	if word == "" || word == "-" {
		return term{}, false
	}
	t.text = word
	return t, true
}

// compileGroup renders one AND group as an FTS5 MATCH expression.
// Positive terms join with AND; negative terms chain as binary NOTs off
// the positives. An all-negative group collapses to an OR of its terms
// with the negation hoisted to the SQL level.
func compileGroup(terms []term) (ftsGroup, bool) {
	var positives, negatives []string
	for _, t := range terms {
		s := ftsTerm(t)
		if t.negated {
			negatives = append(negatives, s)
		} else {
			positives = append(positives, s)
		}
	}

	switch {
	case len(positives) == 0 && len(negatives) == 0:
		return ftsGroup{}, false
	case len(positives) == 0:
		return ftsGroup{match: strings.Join(negatives, " OR "), negated: true}, true
	default:
		match := strings.Join(positives, " AND ")
		for _, n := range negatives {
			match += " NOT " + n
		}
		return ftsGroup{match: match}, true
	}
}

// ftsTerm quotes one term for FTS5, appending the prefix marker unless
// the term is exact.
func ftsTerm(t term) string {
	quoted := `"` + strings.ReplaceAll(t.text, `"`, `""`) + `"`
	if t.exact {
		return quoted
	}
	return quoted + "*"
}
