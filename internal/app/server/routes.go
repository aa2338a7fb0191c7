package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tubescout/internal/cache"
	"tubescout/internal/fetcher"
	"tubescout/internal/proxypool"
)

// Searcher resolves one keyword to a terminal result. The concrete fetcher
// satisfies it; handler tests script their own.
type Searcher interface {
	Fetch(ctx context.Context, keyword string) (fetcher.Result, error)
}

// PoolView is the read-only pool surface the proxy listing endpoint needs.
type PoolView interface {
	Snapshot() []proxypool.EndpointStatus
}

// Server wires the HTTP surface to the search pipeline. Cache and history
// are optional; nil cache skips memoization and historyEnabled false hides
// the searches endpoint's storage dependency.
type Server struct {
	searcher       Searcher
	pool           PoolView
	cache          *cache.ResultCache
	historyEnabled bool
	registry       *prometheus.Registry
}

type Option func(*Server)

func WithCache(resultCache *cache.ResultCache) Option {
	return func(s *Server) { s.cache = resultCache }
}

func WithHistory(enabled bool) Option {
	return func(s *Server) { s.historyEnabled = enabled }
}

func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) { s.registry = registry }
}

func New(searcher Searcher, pool PoolView, opts ...Option) *Server {
	srv := &Server{
		searcher: searcher,
		pool:     pool,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Routes builds the full handler tree. Split from OpenRoutes so tests can
// drive it through httptest without binding a port.
func (s *Server) Routes() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("POST /search", s.search)
	router.HandleFunc("GET /proxies", s.listProxies)
	router.HandleFunc("GET /searches", s.listSearches)
	router.HandleFunc("GET /healthz", s.healthz)

	if s.registry != nil {
		router.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return enableCORS(router)
}

func (s *Server) OpenRoutes(ctx context.Context, port int) error {
	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("api server shutdown", "error", err)
		}
	}()

	log.Infof("Starting tubescout api on port :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
