// Package search compiles the library's free-text query language into
// parameterized SQL. The compiler is a pure function: a raw query string
// plus structured sort/pagination parameters produce two
// predicate-identical statements (count, paged ids), so the reported
// total always matches the page contents.
package search

import (
	"strconv"
	"strings"

	"github.com/stackshelf/stackshelf-server/internal/errors"
)

// Sort enumerates the supported sort keys.
type Sort string

// Sort keys.
const (
	SortRelevance  Sort = "relevance"
	SortReleasedAt Sort = "released_at"
	SortCreatedAt  Sort = "created_at"
	SortTitle      Sort = "title"
	SortPages      Sort = "pages"
	SortRandom     Sort = "random"
)

// DefaultSort is substituted when the sort parameter is absent or
// malformed.
const DefaultSort = SortReleasedAt

// Order is the sort direction.
type Order string

// Sort directions.
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// DefaultOrder is substituted when the order parameter is absent or
// malformed.
const DefaultOrder = OrderDesc

// DefaultLimit is the page size when none is requested.
const DefaultLimit = 24

// MaxLimit caps the requested page size.
const MaxLimit = 100

// ParseSort parses a sort parameter. Accepts a few aliases from older
// clients.
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "relevance", "rank":
		return SortRelevance, nil
	case "released_at", "released", "date_released":
		return SortReleasedAt, nil
	case "created_at", "created", "date_added":
		return SortCreatedAt, nil
	case "title":
		return SortTitle, nil
	case "pages":
		return SortPages, nil
	case "random":
		return SortRandom, nil
	case "":
		return DefaultSort, nil
	default:
		return DefaultSort, errors.Validationf("invalid sort %q", s)
	}
}

// ParseOrder parses an order parameter.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return OrderAsc, nil
	case "desc", "descending":
		return OrderDesc, nil
	case "":
		return DefaultOrder, nil
	default:
		return DefaultOrder, errors.Validationf("invalid order %q", s)
	}
}

// Query is one search request. Constructed from request parameters,
// never persisted.
type Query struct {
	// Value is the raw user-typed query string.
	Value string
	// Page is 1-based.
	Page  int
	Limit int
	Sort  Sort
	Order Order
	// Deleted includes soft-deleted archives when set.
	Deleted bool
	// Blacklist terms are compiled as negated facet predicates on top of
	// whatever the user typed.
	Blacklist []string
	// Seed drives the deterministic random ordering.
	Seed int64

	// Warnings collects soft validation errors. Malformed sort/order
	// parameters never fail the request; the default is substituted and
	// the problem reported here.
	Warnings []string
}

// FromParams builds a Query from raw request parameters, recording soft
// validation warnings for anything malformed.
func FromParams(value, page, sort, order string) Query {
	q := Query{
		Value: value,
		Page:  1,
		Limit: DefaultLimit,
	}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			q.Warnings = append(q.Warnings, "invalid page "+strconv.Quote(page))
		} else {
			q.Page = n
		}
	}

	var err error
	if q.Sort, err = ParseSort(sort); err != nil {
		q.Warnings = append(q.Warnings, err.Error())
	}
	if q.Order, err = ParseOrder(order); err != nil {
		q.Warnings = append(q.Warnings, err.Error())
	}

	return q
}

// EffectiveLimit returns the page size actually applied: the default
// when none is requested, capped at MaxLimit. Both the LIMIT bind and
// the offset derive from this value, so an oversized request still
// walks the full result set page by page.
func (q Query) EffectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

// Offset returns the LIMIT/OFFSET slice start for the query's page.
func (q Query) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return q.EffectiveLimit() * (page - 1)
}
