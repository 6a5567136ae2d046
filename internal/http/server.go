// Package http serves the dashboard: full pages, HTMX partials, chart data
// as JSON and the category assignment endpoint.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"vye/internal/cache"
	"vye/internal/categorize"
	"vye/internal/log"
	"vye/internal/middleware/ratelimit"
	"vye/internal/middleware/security"
	"vye/internal/middleware/trace"
	"vye/internal/queries"
	appweb "vye/web"
)

// Pinger checks that the data store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the dashboard server.
type Deps struct {
	Queries     *queries.Service
	Categorizer *categorize.Service
	Store       Pinger
	Logger      *log.Logger
	// Now is the clock for month-relative views; nil means time.Now.
	Now func() time.Time
	// MutationLimit bounds categorization requests per client per minute.
	MutationLimit int
}

type Server struct {
	http.Server
	templates   *template.Template
	queries     *queries.Service
	categorizer *categorize.Service
	store       Pinger
	logger      *log.Logger
	now         func() time.Time
	started     time.Time

	slots    *cache.Slots
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		queries:     deps.Queries,
		categorizer: deps.Categorizer,
		store:       deps.Store,
		logger:      logger,
		now:         now,
		started:     time.Now(),
		slots:       cache.NewSlots(),
		detector:    security.NewDetector(),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{Requests: deps.MutationLimit, Period: time.Minute}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.withClientID(handler)
	handler = headers.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = log.Middleware(logger, trace.RequestID)(handler)
	handler = s.tracer.Middleware(handler)

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

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Pages
	mux.HandleFunc("GET /{$}", s.page("overview_page", "Overview", pageOverview))
	mux.HandleFunc("GET /transactions", s.page("transactions_page", "Transactions", pageTransactions))
	mux.HandleFunc("GET /analytics", s.page("analytics_page", "Analytics", pageAnalytics))
	mux.HandleFunc("GET /accounts", s.page("accounts_page", "Accounts", pageAccounts))

	// UI partials
	mux.HandleFunc("GET /ui/summary", s.handleSummary)
	mux.HandleFunc("GET /ui/accounts", s.handleAccountCards)
	mux.HandleFunc("GET /ui/recent", s.handleRecentTransactions)
	mux.HandleFunc("GET /ui/transactions", s.handleTransactions)
	mux.HandleFunc("GET /ui/operations", s.handleOperations)
	mux.HandleFunc("GET /ui/uncategorized", s.handleUncategorized)
	mux.HandleFunc("GET /ui/operations/{id}/categorize", s.handleCategorizeModal)
	mux.HandleFunc("GET /ui/dialog/{kind}", s.handleKindDialog)
	mux.HandleFunc("GET /ui/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /ui/activity", s.handleAccountActivity)
	mux.HandleFunc("GET /ui/accounts/{id}/average", s.handleAverageBalance)

	// Chart data
	mux.HandleFunc("GET /api/charts/balance", s.handleBalanceChart)
	mux.HandleFunc("GET /api/charts/expenses-by-category", s.handleExpensesByCategoryChart)
	mux.HandleFunc("GET /api/charts/income-expenses", s.handleIncomeExpensesChart)
	mux.HandleFunc("GET /api/charts/category-spending", s.handleCategorySpendingChart)
	mux.HandleFunc("GET /api/charts/account-balances", s.handleAccountBalancesChart)
	mux.HandleFunc("GET /api/charts/spending-trends", s.handleSpendingTrendsChart)
	mux.HandleFunc("GET /api/charts/transactions/{kind}", s.handleKindChart)

	// Mutation
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldPath, r.URL.Path)
		NewHTMXResponse().
			Status(http.StatusTooManyRequests).
			TriggerErrorNotification("Too many requests, please wait a moment").
			Write(w)
	})
	mux.Handle("POST /operations/{id}/category", limited(http.HandlerFunc(s.handleCategorize)))
}

// Shutdown stops the limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
