package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/scope"
	"github.com/sells-group/geoscope/internal/tokenize"
)

// Cache kinds.
const (
	KindCountry = "country"
	KindCity    = "city"
)

// Searcher decorates a CandidateSearcher with the SQLite cache. Cache faults
// are logged and bypassed; backend errors are returned unchanged and never
// cached.
type Searcher struct {
	next  scope.CandidateSearcher
	store *Store
	kind  string
	ttl   time.Duration
}

var _ scope.CandidateSearcher = (*Searcher)(nil)

// NewSearcher wraps next. kind separates country and city entries.
func NewSearcher(next scope.CandidateSearcher, store *Store, kind string, ttl time.Duration) *Searcher {
	return &Searcher{next: next, store: store, kind: kind, ttl: ttl}
}

// Search serves from cache when a fresh entry exists, otherwise delegates and
// stores the result.
func (s *Searcher) Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error) {
	key := tokenize.Normalize(strings.TrimSpace(term))
	if key == "" {
		return s.next.Search(ctx, term, limit)
	}
	limit = scope.ClampLimit(limit)

	log := zap.L().With(
		zap.String("component", "cache"),
		zap.String("kind", s.kind),
		zap.String("term", key),
	)

	cands, ok, err := s.store.Get(ctx, s.kind, key, limit)
	switch {
	case err != nil:
		log.Warn("cache: lookup failed, bypassing", zap.Error(err))
	case ok:
		log.Debug("cache: hit")
		return cands, nil
	}

	cands, err = s.next.Search(ctx, key, limit)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, s.kind, key, limit, cands, s.ttl); err != nil {
		log.Warn("cache: store failed", zap.Error(err))
	}
	return cands, nil
}

// GetByID is not cached.
func (s *Searcher) GetByID(ctx context.Context, id string) (*model.GeoCandidate, error) {
	return s.next.GetByID(ctx, id)
}
