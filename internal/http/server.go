// Package http exposes the treasury as a JSON API: the category hierarchy,
// the three ledger feeds, balance reconciliation, and the analytics views.
// Read endpoints are memoized through the view cache; writes go through the
// service layer, which owns validation and cache invalidation fan-out.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"treasury/internal/cache"
	"treasury/internal/core"
	"treasury/internal/log"
	"treasury/internal/middleware/ratelimit"
	"treasury/internal/middleware/security"
	"treasury/internal/middleware/trace"
	"treasury/internal/storage"
)

// CategoryService is the hierarchy surface the handlers call.
type CategoryService interface {
	CreateCategory(ctx context.Context, name, description string) (core.ExpenseCategory, error)
	GetCategory(ctx context.Context, id int64) (core.ExpenseCategory, error)
	ListCategories(ctx context.Context) ([]core.ExpenseCategory, error)
	ListCategoryStats(ctx context.Context) ([]storage.CategoryStats, error)
	UpdateCategory(ctx context.Context, c core.ExpenseCategory) error
	DeleteCategory(ctx context.Context, id int64) error
	ReorderCategories(ctx context.Context, ids []int64) error

	CreateSubcategory(ctx context.Context, categoryID int64, name, description string) (core.ExpenseSubcategory, error)
	GetSubcategory(ctx context.Context, id int64) (core.ExpenseSubcategory, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]core.ExpenseSubcategory, error)
	ListSubcategoryStats(ctx context.Context, categoryID int64) ([]storage.SubcategoryStats, error)
	UpdateSubcategory(ctx context.Context, s core.ExpenseSubcategory) error
	DeleteSubcategory(ctx context.Context, id int64) error
	ReorderSubcategories(ctx context.Context, categoryID int64, ids []int64) error
}

// LedgerService is the writable-ledger surface the handlers call.
type LedgerService interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context, f storage.ExpenseFilter) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error

	CreateCollection(ctx context.Context, c core.ManualCollection) (core.ManualCollection, error)
	GetCollection(ctx context.Context, id int64) (core.ManualCollection, error)
	ListCollections(ctx context.Context, f storage.CollectionFilter) ([]core.ManualCollection, error)
	UpdateCollection(ctx context.Context, c core.ManualCollection) error
	DeleteCollection(ctx context.Context, id int64) error

	IngestPayment(ctx context.Context, p core.PaymentTransaction) (core.PaymentTransaction, error)
}

// BalanceService is the reconciliation surface the handlers call.
type BalanceService interface {
	CreateYearlyBalance(ctx context.Context, b core.YearlyBalance) (core.YearlyBalance, error)
	GetYearlyBalance(ctx context.Context, year int) (core.YearlyBalance, error)
	ListYearlyBalances(ctx context.Context) ([]core.YearlyBalance, error)
	UpdateYearlyBalance(ctx context.Context, b core.YearlyBalance) error
	SetClosingBalance(ctx context.Context, year int, closing core.Money) (core.YearlyBalance, error)
	DeleteYearlyBalance(ctx context.Context, year int) error
	YearlySummary(ctx context.Context, year int) (core.YearlySummary, error)

	CurrentBalance(ctx context.Context) (core.CurrentBalance, error)
	ListSnapshots(ctx context.Context, limit int) ([]core.AccountBalance, error)
	RecordSnapshot(ctx context.Context, b core.AccountBalance) (core.AccountBalance, error)
	CorrectSnapshot(ctx context.Context, b core.AccountBalance) error
	SnapshotAsOf(ctx context.Context, t time.Time) (core.CurrentBalance, error)
}

// AnalyticsService is the derived-view surface the handlers call.
type AnalyticsService interface {
	Aggregate(ctx context.Context, source core.Source, w core.Window, dim core.Dimension) (core.AggregateResult, error)
	SourceTotals(ctx context.Context, w core.Window) (map[core.Source]core.SourceTotal, error)
	MonthlyTrend(ctx context.Context, year int) ([]core.MonthlyTrendEntry, error)
	SurplusDeficit(ctx context.Context, w core.Window) (core.SurplusDeficit, error)
	YearlyComparison(ctx context.Context, fromYear, toYear int) ([]core.YearComparisonEntry, error)
	Dashboard(ctx context.Context, w core.Window) (core.DashboardSummary, error)
}

// Deps carries everything the server needs.
type Deps struct {
	Categories CategoryService
	Ledger     LedgerService
	Balances   BalanceService
	Analytics  AnalyticsService

	Views   cache.Store
	ViewTTL time.Duration

	Logger *log.Logger
}

type Server struct {
	http.Server

	categories CategoryService
	ledger     LedgerService
	balances   BalanceService
	analytics  AnalyticsService

	views   cache.Store
	viewTTL time.Duration

	limiter      *ratelimit.Limiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Views == nil {
		deps.Views = cache.NopStore{}
	}
	if deps.ViewTTL <= 0 {
		deps.ViewTTL = 5 * time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		categories: deps.Categories,
		ledger:     deps.Ledger,
		balances:   deps.Balances,
		analytics:  deps.Analytics,
		views:      deps.Views,
		viewTTL:    deps.ViewTTL,
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:     deps.Logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP, deps.Logger)

	handler := http.Handler(mux)
	handler = s.limitWrites(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)
	handler = log.Middleware(deps.Logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("PUT /api/categories/reorder", s.handleReorderCategories)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/categories/{id}/subcategories", s.handleCreateSubcategory)
	mux.HandleFunc("GET /api/categories/{id}/subcategories", s.handleListSubcategories)
	mux.HandleFunc("PUT /api/categories/{id}/subcategories/reorder", s.handleReorderSubcategories)
	mux.HandleFunc("GET /api/subcategories/{id}", s.handleGetSubcategory)
	mux.HandleFunc("PUT /api/subcategories/{id}", s.handleUpdateSubcategory)
	mux.HandleFunc("DELETE /api/subcategories/{id}", s.handleDeleteSubcategory)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /api/collections", s.handleCreateCollection)
	mux.HandleFunc("GET /api/collections", s.handleListCollections)
	mux.HandleFunc("GET /api/collections/{id}", s.handleGetCollection)
	mux.HandleFunc("PUT /api/collections/{id}", s.handleUpdateCollection)
	mux.HandleFunc("DELETE /api/collections/{id}", s.handleDeleteCollection)

	mux.HandleFunc("POST /api/payments", s.handleIngestPayment)

	mux.HandleFunc("POST /api/balances", s.handleCreateYearlyBalance)
	mux.HandleFunc("GET /api/balances", s.handleListYearlyBalances)
	mux.HandleFunc("GET /api/balances/{year}", s.handleGetYearlyBalance)
	mux.HandleFunc("PUT /api/balances/{year}", s.handleUpdateYearlyBalance)
	mux.HandleFunc("PUT /api/balances/{year}/closing", s.handleSetClosingBalance)
	mux.HandleFunc("DELETE /api/balances/{year}", s.handleDeleteYearlyBalance)
	mux.HandleFunc("GET /api/balances/{year}/summary", s.handleYearlySummary)

	mux.HandleFunc("GET /api/balance/current", s.handleCurrentBalance)
	mux.HandleFunc("GET /api/balance/snapshots", s.handleListSnapshots)
	mux.HandleFunc("POST /api/balance/snapshots", s.handleRecordSnapshot)
	mux.HandleFunc("PUT /api/balance/snapshots/{id}", s.handleCorrectSnapshot)

	mux.HandleFunc("GET /api/analytics/aggregate", s.handleAggregate)
	mux.HandleFunc("GET /api/analytics/sources", s.handleSourceTotals)
	mux.HandleFunc("GET /api/analytics/trend/{year}", s.handleTrend)
	mux.HandleFunc("GET /api/analytics/surplus", s.handleSurplusDeficit)
	mux.HandleFunc("GET /api/analytics/comparison", s.handleYearlyComparison)
	mux.HandleFunc("GET /api/analytics/dashboard", s.handleDashboard)
}

// limitWrites rate limits mutating methods only; reads stay unthrottled
// because the view cache already absorbs them.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			ip := clientIP(r)
			if !s.limiter.Allow(ip) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, honouring proxy headers.
func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		if i := strings.IndexByte(v, ','); i >= 0 {
			return strings.TrimSpace(v[:i])
		}
		return strings.TrimSpace(v)
	}
	if v := r.Header.Get("X-Real-IP"); v != "" {
		return v
	}
	return r.RemoteAddr
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
