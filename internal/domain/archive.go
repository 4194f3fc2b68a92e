// Package domain defines the core entities for the StackShelf library.
package domain

import "time"

// Archive is one indexed zip-packaged image set.
type Archive struct {
	ID          int64      `json:"id"`
	Key         string     `json:"key"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Path        string     `json:"-"`
	Pages       int        `json:"pages"`
	Size        int64      `json:"size"`
	Thumbnail   int        `json:"thumbnail"`
	Language    string     `json:"language,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	Artists    []Taxonomy `json:"artists,omitempty"`
	Circles    []Taxonomy `json:"circles,omitempty"`
	Magazines  []Taxonomy `json:"magazines,omitempty"`
	Events     []Taxonomy `json:"events,omitempty"`
	Publishers []Taxonomy `json:"publishers,omitempty"`
	Parodies   []Taxonomy `json:"parodies,omitempty"`
	Tags       []Tag      `json:"tags,omitempty"`
	Sources    []Source   `json:"sources,omitempty"`
	Images     []Image    `json:"images,omitempty"`
}

// TaxonomyFor returns the archive's entries for one taxonomy kind.
func (a *Archive) TaxonomyFor(kind TaxonomyKind) []Taxonomy {
	switch kind {
	case TaxonomyArtist:
		return a.Artists
	case TaxonomyCircle:
		return a.Circles
	case TaxonomyMagazine:
		return a.Magazines
	case TaxonomyEvent:
		return a.Events
	case TaxonomyPublisher:
		return a.Publishers
	default:
		return a.Parodies
	}
}

// SetTaxonomy replaces the archive's entries for one taxonomy kind.
func (a *Archive) SetTaxonomy(kind TaxonomyKind, entries []Taxonomy) {
	switch kind {
	case TaxonomyArtist:
		a.Artists = entries
	case TaxonomyCircle:
		a.Circles = entries
	case TaxonomyMagazine:
		a.Magazines = entries
	case TaxonomyEvent:
		a.Events = entries
	case TaxonomyPublisher:
		a.Publishers = entries
	default:
		a.Parodies = entries
	}
}

// Image is one page inside an archive. Width/height/blurhash are nil
// until the dimension pass has run for that page.
type Image struct {
	ArchiveID  int64   `json:"-"`
	PageNumber int     `json:"page_number"`
	Filename   string  `json:"filename"`
	Width      *int    `json:"width,omitempty"`
	Height     *int    `json:"height,omitempty"`
	BlurHash   *string `json:"blurhash,omitempty"`
}

// Complete reports whether the page has recorded dimensions.
func (i Image) Complete() bool {
	return i.Width != nil && i.Height != nil
}

// Taxonomy is a non-namespaced classification entity (artist, circle,
// magazine, event, publisher, parody). Deduplicated globally by slug.
type Taxonomy struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// TaxonomyKind enumerates the taxonomy relations.
type TaxonomyKind string

// Taxonomy kinds, matching their table name prefixes.
const (
	TaxonomyArtist    TaxonomyKind = "artist"
	TaxonomyCircle    TaxonomyKind = "circle"
	TaxonomyMagazine  TaxonomyKind = "magazine"
	TaxonomyEvent     TaxonomyKind = "event"
	TaxonomyPublisher TaxonomyKind = "publisher"
	TaxonomyParody    TaxonomyKind = "parody"
)

// TaxonomyKinds lists all taxonomy kinds in display order.
var TaxonomyKinds = []TaxonomyKind{
	TaxonomyArtist,
	TaxonomyCircle,
	TaxonomyMagazine,
	TaxonomyEvent,
	TaxonomyPublisher,
	TaxonomyParody,
}

// Tag is a namespaced classification entity. The namespace lives on the
// archive relation, not the tag itself, because the same tag can appear
// under different namespaces for different archives.
type Tag struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// Source is an external reference attached to an archive.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
