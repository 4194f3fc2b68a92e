// Package metadata extracts archive metadata from embedded info files
// or, failing that, from the archive filename. Each dialect is a
// strategy populating a common Record; Classify is the pure dispatch
// function selecting among them.
package metadata

import (
	"path"
	"strings"
	"time"
)

// Format identifies a metadata dialect.
type Format string

// Known dialects.
const (
	// FormatKoromo is the JSON info.json dialect.
	FormatKoromo Format = "koromo"
	// FormatAnchira is the YAML info.yaml dialect.
	FormatAnchira Format = "anchira"
	// FormatFilename derives metadata from the archive filename alone.
	FormatFilename Format = "filename"
	// FormatUnknown means no extractor applies.
	FormatUnknown Format = "unknown"
)

// TagEntry is one namespaced tag in a record.
type TagEntry struct {
	Name      string
	Namespace string
}

// SourceEntry is one external reference in a record.
type SourceEntry struct {
	Name string
	URL  string
}

// Record is the common metadata shape every extractor populates.
type Record struct {
	Title       string
	Description string
	Language    string
	ReleasedAt  *time.Time
	Thumbnail   int

	Artists    []string
	Circles    []string
	Magazines  []string
	Events     []string
	Publishers []string
	Parodies   []string
	Tags       []TagEntry
	Sources    []SourceEntry
}

// Classify decides which dialect an embedded info file belongs to. It
// is pure: filename plus content in, format out.
func Classify(filename string, content []byte) Format {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		if looksLikeKoromo(content) {
			return FormatKoromo
		}
	case ".yaml", ".yml":
		return FormatAnchira
	}
	return FormatUnknown
}

// looksLikeKoromo sniffs for the dialect's capitalized field names.
func looksLikeKoromo(content []byte) bool {
	s := string(content)
	return strings.Contains(s, `"Title"`) || strings.Contains(s, `"Artist"`)
}

// Parse dispatches to the extractor for the classified format.
func Parse(format Format, content []byte) (*Record, error) {
	switch format {
	case FormatKoromo:
		return parseKoromo(content)
	case FormatAnchira:
		return parseAnchira(content)
	default:
		return nil, errUnknownFormat
	}
}

// parseTag splits an optional "namespace:name" tag string.
func parseTag(raw string) TagEntry {
	if ns, name, ok := strings.Cut(raw, ":"); ok {
		ns = strings.ToLower(strings.TrimSpace(ns))
		switch ns {
		case "male", "female", "misc":
			return TagEntry{Name: strings.TrimSpace(name), Namespace: ns}
		case "other":
			return TagEntry{Name: strings.TrimSpace(name), Namespace: "misc"}
		}
	}
	return TagEntry{Name: strings.TrimSpace(raw)}
}

// unixTime converts a positive unix timestamp to *time.Time.
func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
