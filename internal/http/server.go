// Package http serves the JSON API over the ledger, the registries, and the
// report engine. Handlers never compute aggregation themselves; they call the
// report package and frame the result.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/qmcao/spending-tracker/internal/cache"
	"github.com/qmcao/spending-tracker/internal/ledger"
	"github.com/qmcao/spending-tracker/internal/registry"
	"github.com/qmcao/spending-tracker/internal/report"
	"github.com/qmcao/spending-tracker/internal/storage"
)

type Server struct {
	http.Server
	ledger      *ledger.Store
	instruments *registry.Instruments
	categories  *registry.Categories
	status      *storage.Store
	rateLimiter *rateLimiter
	now         func() time.Time

	// Derived-view caches, purged on every mutation.
	historyCache   *cache.LRUCache[[]report.MonthGroup]
	breakdownCache *cache.LRUCache[[]report.CategoryShare]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// Options tunes the report-view caches.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, led *ledger.Store, instruments *registry.Instruments, categories *registry.Categories, status *storage.Store, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:         led,
		instruments:    instruments,
		categories:     categories,
		status:         status,
		rateLimiter:    newRateLimiter(),
		now:            time.Now,
		historyCache:   cache.NewLRUCache[[]report.MonthGroup](opts.CacheSize, opts.CacheTTL),
		breakdownCache: cache.NewLRUCache[[]report.CategoryShare](opts.CacheSize, opts.CacheTTL),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.historyCache)
	s.cacheManager.Register(s.breakdownCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/transactions", s.withRequestLog(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withRequestLog(s.handleTransactionByID))
	mux.HandleFunc("/api/summary", s.withRequestLog(s.handleSummary))
	mux.HandleFunc("/api/history", s.withRequestLog(s.handleHistory))
	mux.HandleFunc("/api/breakdown", s.withRequestLog(s.handleBreakdown))
	mux.HandleFunc("/api/filters", s.withRequestLog(s.handleFilters))
	mux.HandleFunc("/api/export", s.withRequestLog(s.handleExport))
	mux.HandleFunc("/api/import", s.withRequestLog(s.handleImport))
	mux.HandleFunc("/api/categories", s.withRequestLog(s.handleCategories))
	mux.HandleFunc("/api/instruments", s.withRequestLog(s.handleInstruments))
	mux.HandleFunc("/api/status", s.withRequestLog(s.handleStatus))

	return s
}

// invalidateViews drops cached derived views after a mutation so the next
// read recomputes from the authoritative list.
func (s *Server) invalidateViews() {
	s.historyCache.Purge()
	s.breakdownCache.Purge()
}

// Shutdown stops the cache and rate-limiter cleanup loops before shutting the
// HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestLog adds security headers, rate limiting for mutations, and
// request logging.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		clientIP := r.RemoteAddr
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
