package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"opsledger/internal/cache"
	"opsledger/internal/core"
	"opsledger/internal/export"
	"opsledger/internal/ledger"
	"opsledger/internal/log"
	"opsledger/internal/reports"
	"opsledger/internal/storage"
)

// Server serves the tracker API. Read-side reports are cached with a short
// TTL; every mutating handler purges the report caches so the next read
// recomputes from the ledger.
type Server struct {
	http.Server

	store      *storage.Repository
	reconciler *ledger.Reconciler
	reporter   *reports.Service
	exporter   *export.Service
	logger     *log.Logger

	rateLimiter *rateLimiter

	dashboardCache *cache.LRUCache[core.DashboardMetrics]
	monthlyCache   *cache.LRUCache[[]core.MonthBucket]
	domainCache    *cache.LRUCache[[]core.DomainStat]
	caches         *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires the route table and starts the cache cleanup loop.
func NewServer(addr string, store *storage.Repository, rec *ledger.Reconciler, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:          store,
		reconciler:     rec,
		reporter:       reports.NewService(store),
		exporter:       export.NewService(store),
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(mutationRateLimit),
		dashboardCache: cache.NewLRUCache[core.DashboardMetrics](4, 2*time.Minute),
		monthlyCache:   cache.NewLRUCache[[]core.MonthBucket](24, 2*time.Minute),
		domainCache:    cache.NewLRUCache[[]core.DomainStat](4, 2*time.Minute),
		caches:         cache.NewManager(),
	}

	s.caches.Register(s.dashboardCache)
	s.caches.Register(s.monthlyCache)
	s.caches.Register(s.domainCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	routes := map[string]http.HandlerFunc{
		"/api/tracker/":                 s.handleAPINotFound,
		"GET /api/tracker/config":       s.handleConfig,
		"POST /api/tracker/auth/login":  s.handleLogin,
		"GET /api/tracker/tasks":        s.handleListTasks,
		"POST /api/tracker/tasks":       s.handleCreateTask,

		"GET /api/tracker/payments":         s.handleListPayments,
		"POST /api/tracker/payments":        s.handleCreatePayment,
		"GET /api/tracker/payments/{id}":    s.handleGetPayment,
		"PUT /api/tracker/payments/{id}":    s.handleUpdatePayment,
		"DELETE /api/tracker/payments/{id}": s.handleDeletePayment,

		"GET /api/tracker/interns":            s.handleListInterns,
		"POST /api/tracker/interns":           s.handleCreateIntern,
		"GET /api/tracker/interns/{id}":       s.handleGetIntern,
		"PUT /api/tracker/interns/{id}":       s.handleUpdateIntern,
		"DELETE /api/tracker/interns/{id}":    s.handleDeleteIntern,
		"POST /api/tracker/interns/{id}/sync": s.handleSyncIntern,

		"GET /api/tracker/projects":            s.handleListProjects,
		"POST /api/tracker/projects":           s.handleCreateProject,
		"GET /api/tracker/projects/{id}":       s.handleGetProject,
		"PUT /api/tracker/projects/{id}":       s.handleUpdateProject,
		"DELETE /api/tracker/projects/{id}":    s.handleDeleteProject,
		"POST /api/tracker/projects/{id}/sync": s.handleSyncProject,

		"GET /api/tracker/clients":         s.handleListClients,
		"POST /api/tracker/clients":        s.handleCreateClient,
		"GET /api/tracker/clients/{id}":    s.handleGetClient,
		"PUT /api/tracker/clients/{id}":    s.handleUpdateClient,
		"DELETE /api/tracker/clients/{id}": s.handleDeleteClient,

		"GET /api/tracker/products":         s.handleListProducts,
		"POST /api/tracker/products":        s.handleCreateProduct,
		"GET /api/tracker/products/{id}":    s.handleGetProduct,
		"PUT /api/tracker/products/{id}":    s.handleUpdateProduct,
		"DELETE /api/tracker/products/{id}": s.handleDeleteProduct,

		"GET /api/tracker/profiles":           s.handleListProfiles,
		"POST /api/tracker/profiles":          s.handleCreateProfile,
		"PUT /api/tracker/profiles/{id}/role": s.handleUpdateProfileRole,

		"GET /api/tracker/reports/dashboard": s.handleDashboard,
		"GET /api/tracker/reports/monthly":   s.handleMonthlyRevenue,
		"GET /api/tracker/reports/domains":   s.handleDomainRadar,

		"POST /api/tracker/ledger/repair":          s.handleRepairLedger,
		"POST /api/tracker/ledger/repair-interns":  s.handleRepairInterns,
		"POST /api/tracker/ledger/repair-projects": s.handleRepairProjects,

		"GET /api/tracker/exports/intern-payments.xlsx":   s.handleExportInternPayments,
		"GET /api/tracker/exports/client-payments.xlsx":   s.handleExportClientPayments,
		"GET /api/tracker/exports/business-overview.xlsx": s.handleExportBusinessOverview,
		"GET /api/tracker/exports/intern-roster.xlsx":     s.handleExportInternRoster,
		"GET /api/tracker/exports/payments.csv":           s.handleExportPaymentsCSV,
	}
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, s.withMiddleware(handler))
	}

	return s
}

// withMiddleware adds security headers, request IDs, rate limiting on
// mutating methods, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r.RemoteAddr, r.Header.Get("X-Forwarded-For"))
		requestID := generateRequestID()

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		logger.DebugContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, ip)

		if isMutating(r.Method) && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, ip)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// purgeReportCaches drops cached report payloads after any write.
func (s *Server) purgeReportCaches() {
	s.dashboardCache.Purge()
	s.monthlyCache.Purge()
	s.domainCache.Purge()
}

// Shutdown stops the cleanup goroutines and then the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.caches != nil {
			s.caches.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListProfiles(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
