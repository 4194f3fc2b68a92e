package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/stackshelf/stackshelf-server/internal/errors"
	"github.com/stackshelf/stackshelf-server/internal/render"
)

// handleImage streams one derivative: GET /image/{key}/{page}/{kind}.
// The renderer probes the durable cache and coordinates computation on
// a miss; concurrent requests for the same derivative share one render.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	// RealIP middleware has already resolved proxy headers.
	if !s.limiter.Allow(clientIP(r)) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	key := chi.URLParam(r, "key")

	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}

	kind, err := render.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}

	data, err := s.renderer.RenderPage(r.Context(), key, page, kind)
	if err != nil {
		s.writeImageError(w, err)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if maxAge := s.maxAge(kind); maxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAge))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// maxAge returns the configured Cache-Control lifetime for a kind.
// Derivatives are content-addressed by the archive key, so long-lived
// immutable caching is safe.
func (s *Server) maxAge(kind render.Kind) int {
	switch kind {
	case render.KindCover:
		return s.cfg.Image.Caching.Cover
	case render.KindThumbnail:
		return s.cfg.Image.Caching.Thumbnail
	default:
		return s.cfg.Image.Caching.Page
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeImageError maps renderer errors to HTTP statuses. Internal
// causes are logged, never echoed.
func (s *Server) writeImageError(w http.ResponseWriter, err error) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		if status < http.StatusInternalServerError {
			http.Error(w, domainErr.Message, status)
			return
		}
	}
	s.logger.WithError(err).Error("image request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
