package metadata

import (
	"path"
	"regexp"
	"strings"
)

// filenameRe captures the common release naming convention:
//
//	(Event) [Circle (Artist)] Title (Parody)
//
// where every group except the title is optional and the circle may be
// absent ("[Artist] Title").
var filenameRe = regexp.MustCompile(`^(?:\(([^)]+)\)\s*)?(?:\[([^\]]+)\]\s*)?([^([\]]+?)\s*(?:\(([^)]+)\))?$`)

// FromFilename derives a best-effort record from the archive filename.
// It never fails: an unparseable name becomes the title verbatim.
func FromFilename(name string) *Record {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	base = strings.TrimSpace(base)

	r := &Record{Title: base}
	m := filenameRe.FindStringSubmatch(base)
	if m == nil {
		return r
	}

	if event := strings.TrimSpace(m[1]); event != "" {
		r.Events = append(r.Events, event)
	}

	// The bracket group is "Circle (Artist)" or just "Artist".
	if creators := strings.TrimSpace(m[2]); creators != "" {
		if open := strings.Index(creators, "("); open >= 0 && strings.HasSuffix(creators, ")") {
			circle := strings.TrimSpace(creators[:open])
			artists := creators[open+1 : len(creators)-1]
			if circle != "" {
				r.Circles = append(r.Circles, circle)
			}
			for _, artist := range splitNames(artists) {
				r.Artists = append(r.Artists, artist)
			}
		} else {
			for _, artist := range splitNames(creators) {
				r.Artists = append(r.Artists, artist)
			}
		}
	}

	if title := strings.TrimSpace(m[3]); title != "" {
		r.Title = title
	}
	if parody := strings.TrimSpace(m[4]); parody != "" {
		r.Parodies = append(r.Parodies, parody)
	}
	return r
}

// splitNames splits a creator list on commas.
func splitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
