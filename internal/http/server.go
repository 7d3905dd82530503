// Package http exposes the finance API over REST.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darshanradadiya/ekharcha/internal/auth"
	"github.com/darshanradadiya/ekharcha/internal/ledger"
	"github.com/darshanradadiya/ekharcha/internal/middleware/ratelimit"
	"github.com/darshanradadiya/ekharcha/internal/middleware/security"
	"github.com/darshanradadiya/ekharcha/internal/middleware/trace"
	"github.com/darshanradadiya/ekharcha/internal/reports"
	"github.com/darshanradadiya/ekharcha/internal/storage"
)

// Server wires the HTTP surface: routing, auth, tracing, rate limiting, and
// the JSON handlers.
type Server struct {
	http.Server

	store   *storage.Repository
	writer  *ledger.Writer
	reports *reports.Engine
	limiter *ratelimit.Limiter
}

// Options configures optional server behavior.
type Options struct {
	RateLimitPerMinute int
}

func NewServer(addr string, store *storage.Repository, writer *ledger.Writer, engine *reports.Engine, verifier auth.TokenVerifier, opts Options) *Server {
	s := &Server{
		store:   store,
		writer:  writer,
		reports: engine,
	}

	detector := security.NewDetector()
	tracer := trace.NewMiddleware(detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
	})

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(metricsMiddleware)
	api.Use(auth.Middleware(verifier))

	tx := api.PathPrefix("/transactions").Subrouter()
	tx.HandleFunc("", s.handleCreateTransaction).Methods(http.MethodPost)
	tx.HandleFunc("", s.handleListTransactions).Methods(http.MethodGet)
	tx.HandleFunc("/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	tx.HandleFunc("/{id}", s.handleUpdateTransaction).Methods(http.MethodPut)
	tx.HandleFunc("/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	acc := api.PathPrefix("/accounts").Subrouter()
	acc.HandleFunc("", s.handleCreateAccount).Methods(http.MethodPost)
	acc.HandleFunc("", s.handleListAccounts).Methods(http.MethodGet)
	acc.HandleFunc("/search", s.handleSearchAccounts).Methods(http.MethodGet)
	acc.HandleFunc("/{id}", s.handleGetAccount).Methods(http.MethodGet)
	acc.HandleFunc("/{id}", s.handleUpdateAccount).Methods(http.MethodPut)
	acc.HandleFunc("/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)

	bud := api.PathPrefix("/budget").Subrouter()
	bud.HandleFunc("", s.handleCreateBudget).Methods(http.MethodPost)
	bud.HandleFunc("", s.handleListBudgets).Methods(http.MethodGet)
	bud.HandleFunc("/add-spent", s.handleAddSpent).Methods(http.MethodPost)
	bud.HandleFunc("/edit-spent/{id}", s.handleEditSpent).Methods(http.MethodPut)
	bud.HandleFunc("/{id}", s.handleGetBudget).Methods(http.MethodGet)
	bud.HandleFunc("/{id}", s.handleUpdateBudget).Methods(http.MethodPut)
	bud.HandleFunc("/{id}", s.handleDeleteBudget).Methods(http.MethodDelete)

	cat := api.PathPrefix("/categories").Subrouter()
	cat.HandleFunc("", s.handleCreateCategory).Methods(http.MethodPost)
	cat.HandleFunc("", s.handleListCategories).Methods(http.MethodGet)
	cat.HandleFunc("/type/{type}/label/{label}", s.handleCategoriesByTypeAndLabel).Methods(http.MethodGet)
	cat.HandleFunc("/type/{type}", s.handleCategoriesByType).Methods(http.MethodGet)
	cat.HandleFunc("/label/{label}", s.handleCategoryByLabel).Methods(http.MethodGet)
	cat.HandleFunc("/{id}", s.handleGetCategory).Methods(http.MethodGet)
	cat.HandleFunc("/{id}", s.handleUpdateCategory).Methods(http.MethodPut)
	cat.HandleFunc("/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard/dashboard-summary", s.handleDashboardSummary).Methods(http.MethodGet)
	api.HandleFunc("/reports/monthly", s.handleMonthlyReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/category-breakdown", s.handleCategoryBreakdown).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = s.limiter.Middleware(detector.ExtractClientIP, nil)(handler)
	handler = tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
