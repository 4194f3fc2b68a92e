package render

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/stackshelf/stackshelf-server/internal/errors"
)

// Kind is a derivative class.
type Kind string

// Derivative kinds. Cover and resampled share the cover encode profile;
// thumbnail uses the thumbnail profile.
const (
	KindCover     Kind = "cover"
	KindThumbnail Kind = "thumbnail"
	KindResampled Kind = "resampled"
)

// ParseKind parses a derivative kind from a request path segment,
// accepting both the full name and the one-letter cache marker.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cover", "c":
		return KindCover, nil
	case "thumbnail", "thumb", "t":
		return KindThumbnail, nil
	case "resampled", "page", "r":
		return KindResampled, nil
	default:
		return "", errors.Validationf("invalid derivative kind %q", s)
	}
}

// Marker returns the kind's one-letter marker used in cache filenames.
func (k Kind) Marker() string {
	switch k {
	case KindCover:
		return "c"
	case KindThumbnail:
		return "t"
	default:
		return "r"
	}
}

// PagePath returns the durable cache location for one derivative:
// {thumbsDir}/{archiveKey}/{zeroPaddedPage}.{marker}.{ext}. The
// zero-padding width derives from the archive's page count so the
// directory lists in page order.
func PagePath(thumbsDir, archiveKey string, page, pageCount int, kind Kind, ext string) string {
	width := len(strconv.Itoa(pageCount))
	name := fmt.Sprintf("%0*d.%s.%s", width, page, kind.Marker(), ext)
	return filepath.Join(thumbsDir, archiveKey, name)
}
