package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/pins"
	"github.com/sells-group/geoscope/internal/scope"
)

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(ctx, s.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// preview resolves the q parameter. It writes the error response itself and
// returns nil when the request cannot be served.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) *model.ScopePreview {
	values := r.URL.Query()
	if !values.Has("q") {
		writeError(w, http.StatusBadRequest, "q is required")
		return nil
	}
	q := values.Get("q")

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	p, err := s.resolver.Preview(ctx, q)
	if err != nil {
		zap.L().Warn("api: preview failed", zap.String("q", q), zap.Error(err))
		writeError(w, http.StatusBadGateway, "candidate search failed")
		return nil
	}
	return p
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if p := s.preview(w, r); p != nil {
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) handlePreviewGeoJSON(w http.ResponseWriter, r *http.Request) {
	p := s.preview(w, r)
	if p == nil {
		return
	}
	data, err := pins.Marshal(p)
	if err != nil {
		zap.L().Error("api: render pins", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render pins failed")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSearch(searcher scope.CandidateSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		q := strings.TrimSpace(values.Get("q"))
		if q == "" {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}

		limit := scope.SearchLimit
		if raw := values.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = scope.ClampLimit(n)
		}

		ctx, cancel := s.withTimeout(r.Context())
		defer cancel()

		cands, err := searcher.Search(ctx, q, limit)
		if err != nil {
			zap.L().Warn("api: search failed", zap.String("q", q), zap.Error(err))
			writeError(w, http.StatusBadGateway, "candidate search failed")
			return
		}
		if cands == nil {
			cands = []model.GeoCandidate{}
		}
		writeJSON(w, http.StatusOK, cands)
	}
}

func (s *Server) handleLookup(searcher scope.CandidateSearcher, what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		ctx, cancel := s.withTimeout(r.Context())
		defer cancel()

		cand, err := searcher.GetByID(ctx, id)
		if err != nil {
			zap.L().Warn("api: lookup failed", zap.String("kind", what), zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusBadGateway, "candidate lookup failed")
			return
		}
		if cand == nil {
			writeError(w, http.StatusNotFound, what+" not found")
			return
		}
		writeJSON(w, http.StatusOK, cand)
	}
}
