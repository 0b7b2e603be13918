// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"financeflow/internal/cache"
	"financeflow/internal/log"
	"financeflow/internal/middleware/ratelimit"
	"financeflow/internal/middleware/security"
	"financeflow/internal/middleware/trace"
	"financeflow/internal/services"
)

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Addr   string
	Ledger *services.Ledger
	Logger *log.Logger

	CacheSize int
	CacheTTL  time.Duration

	// RequestsPerMinute throttles mutations per client IP.
	RequestsPerMinute int

	// Ready checks external dependencies for /readyz. Nil means ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger *services.Ledger
	logger *log.Logger
	ready  func(context.Context) error

	views    *cache.LRUCache[any]
	caches   *cache.Manager
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
	shutdownErr  error
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	limits := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		limits.RequestsPerMinute = opts.RequestsPerMinute
	}

	s := &Server{
		ledger:   opts.Ledger,
		logger:   logger,
		ready:    opts.Ready,
		views:    cache.NewLRUCache[any](opts.CacheSize, opts.CacheTTL),
		caches:   cache.NewManager(logger),
		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(limits),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(s.views)
	s.caches.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger)(h)

	s.Addr = opts.Addr
	s.Handler = h
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 30 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 120 * time.Second
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories/expenses", s.handleExpensesByCategory)
	mux.HandleFunc("GET /api/series/window", s.handleSeriesWindow)
	mux.HandleFunc("GET /api/series/range", s.handleSeriesRange)
	mux.HandleFunc("GET /api/report", s.handleReport)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/recent", s.handleRecentTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets", s.handleSetBudget)
	mux.HandleFunc("DELETE /api/budgets/{month}/{categoryId}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/deposits", s.handleGoalDeposit)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings/theme", s.handleSetTheme)
	mux.HandleFunc("POST /api/settings/theme/toggle", s.handleToggleTheme)
	mux.HandleFunc("PUT /api/settings/currency", s.handleSetCurrency)

	mux.HandleFunc("GET /api/export/json", s.handleExportJSON)
	mux.HandleFunc("GET /api/export/csv", s.handleExportCSV)
	mux.HandleFunc("POST /api/import/json", s.handleImportJSON)
	mux.HandleFunc("POST /api/import/csv", s.handleImportCSV)
	mux.HandleFunc("POST /api/reset", s.handleReset)
}

// memo returns the view cached for the live revision, computing it once.
func memo[T any](s *Server, key string, compute func() T) T {
	v := cache.Memoize[any](s.views, key, func() any { return compute() })
	return v.(T)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}

// ListenAndServe serves until Shutdown. A clean shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains connections and stops background goroutines. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		s.shutdownErr = s.Server.Shutdown(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})
	return s.shutdownErr
}
