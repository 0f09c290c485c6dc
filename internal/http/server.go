package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"gastos/internal/cache"
	applog "gastos/internal/log"
	"gastos/internal/metrics"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/middleware/security"
	"gastos/internal/services"
	"gastos/internal/store"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Config    *services.ConfigService
	Sync      *services.SyncService
	Variables *services.VariableExpenseService
	// Publisher queues async syncs. When nil an async sync runs in the
	// background of this process.
	Publisher services.Publisher
	History   store.HistoryReader
	Ready     Pinger
}

// Options tune the server.
type Options struct {
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	// Docs holds the Markdown documents served under /api/docs.
	Docs fs.FS
	// Static is served at the root. Nil disables the web UI.
	Static fs.FS
	Logger *applog.Logger
}

type Server struct {
	http.Server
	deps    Deps
	opts    Options
	limiter *ratelimit.Limiter
	docs    *cache.LRUCache[[]byte]
	md      goldmark.Markdown
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 90 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:    deps,
		opts:    opts,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		docs:    cache.NewLRUCache[[]byte](64, 5*time.Minute),
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applog.Middleware(s.opts.Logger))
	r.Use(applog.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(security.CORS(security.DefaultCORSConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.limiter.Middleware(clientIP, isWrite, s.onRateLimit))

		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handleSaveConfig)
		r.Get("/config/download", s.handleDownloadConfig)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/commitments", s.handleCommitments)
		r.Post("/parse-amount", s.handleParseAmount)

		r.Post("/salary", s.handleSalary)
		r.Post("/expenses", s.handleUpsertExpense)
		r.Delete("/expenses/{key}", s.handleDeleteExpense)
		r.Post("/debts", s.handleUpsertDebt)
		r.Delete("/debts/{key}", s.handleDeleteDebt)
		r.Post("/flows/{kind}", s.handleToggleFlow)
		r.Post("/categories", s.handleAddCategory)
		r.Put("/categories/{index}", s.handleRenameCategory)
		r.Delete("/categories/{index}", s.handleDeleteCategory)
		r.Post("/balance", s.handleBankBalance)
		r.Post("/extra-income", s.handleAddExtraIncome)
		r.Delete("/extra-income/{index}", s.handleRemoveExtraIncome)

		r.Post("/sync-drive", s.handleSyncDrive)
		r.Get("/excel", s.handleExcel)
		r.Post("/variables", s.handleRecordVariable)
		r.Get("/variables", s.handleListVariables)
		r.Get("/history", s.handleHistory)

		r.Get("/docs/*", s.handleDocs)
	})

	if s.opts.Static != nil {
		static := http.FileServerFS(s.opts.Static)
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		})
	}

	return r
}

// instrument logs every request and records its metrics under the matched
// route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		log := requestLog(r.Context())
		log.LogHTTPStart(r.Context(), r, ip)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		elapsed := time.Since(start)
		metrics.ObserveHTTP(route, r.Method, status, elapsed)
		log.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), ip)
	})
}

// requestLog logs through the request-scoped logger carried by ctx.
func requestLog(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP(r), "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "Demasiadas solicitudes. Intenta de nuevo en un minuto."})
}

// Shutdown drains connections and stops the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready.Ping(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
