// Package api exposes scope previews and raw candidate searches over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/geoscope/internal/scope"
)

// Options configures the HTTP handlers.
type Options struct {
	// Timeout bounds each resolver or backend call. Zero means no deadline
	// beyond the request context.
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
}

// Server holds the handler dependencies.
type Server struct {
	resolver *scope.Resolver
	opts     Options
	limiter  *rate.Limiter
}

// NewServer creates a Server over resolver. A non-positive RateLimit disables
// rate limiting.
func NewServer(resolver *scope.Resolver, opts Options) *Server {
	s := &Server{resolver: resolver, opts: opts}
	if opts.RateLimit > 0 {
		burst := max(opts.RateBurst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(rateLimit(s.limiter))
		}

		r.Get("/api/scope/preview", s.handlePreview)
		r.Get("/api/scope/preview.geojson", s.handlePreviewGeoJSON)

		r.Get("/api/geo/countries", s.handleSearch(s.resolver.Countries()))
		r.Get("/api/geo/countries/{id}", s.handleLookup(s.resolver.Countries(), "country"))
		r.Get("/api/geo/cities", s.handleSearch(s.resolver.Cities()))
		r.Get("/api/geo/cities/{id}", s.handleLookup(s.resolver.Cities(), "city"))
	})

	return r
}

// rateLimit rejects requests with 429 once the shared token bucket is empty.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
