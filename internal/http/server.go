package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"caseledger/internal/core"
	"caseledger/internal/log"
	"caseledger/internal/middleware/ratelimit"
	"caseledger/internal/middleware/security"
	"caseledger/internal/middleware/trace"
	"caseledger/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Ledger is the case service surface the handlers use.
// *services.CaseService satisfies it.
type Ledger interface {
	CreateCase(ctx context.Context, in core.CaseInput) (core.Case, error)
	GetCase(ctx context.Context, id uuid.UUID) (core.Case, error)
	ListCases(ctx context.Context) ([]core.Case, error)
	DeleteCase(ctx context.Context, id uuid.UUID) error
	PreviewTransaction(ctx context.Context, caseID uuid.UUID, in core.TransactionInput) (core.Preview, error)
	RecordTransaction(ctx context.Context, caseID uuid.UUID, in core.TransactionInput) (services.TransactionResult, error)
	UpdateTransaction(ctx context.Context, caseID, txID uuid.UUID, in core.TransactionInput) (services.TransactionResult, error)
	DeleteTransaction(ctx context.Context, caseID, txID uuid.UUID) error
	ListTransactions(ctx context.Context, caseID uuid.UUID) ([]core.Transaction, error)
	Summary(ctx context.Context, caseID uuid.UUID) (services.Summary, error)
}

// Config tunes the HTTP server.
type Config struct {
	RateLimitPerMinute int
	// Ready backs /readyz. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server
	ledger   Ledger
	ready    func(ctx context.Context) error
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires the router and middleware chain around ledger.
func NewServer(addr string, ledger Ledger, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limits := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		ledger:   ledger,
		ready:    cfg.Ready,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(limits),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, codeMethodDenied, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cases", func(r chi.Router) {
			r.Get("/", s.handleListCases)
			r.Post("/", s.handleCreateCase)
			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", s.handleGetCase)
				r.Delete("/", s.handleDeleteCase)
				r.Get("/transactions", s.handleListTransactions)
				r.Post("/transactions", s.handleRecordTransaction)
				r.Post("/transactions/preview", s.handlePreviewTransaction)
				r.Put("/transactions/{txID}", s.handleUpdateTransaction)
				r.Delete("/transactions/{txID}", s.handleDeleteTransaction)
			})
		})
		r.Route("/calculator", func(r chi.Router) {
			r.Post("/interest", handleCalculateInterest)
			r.Post("/balance", handleCalculateBalance)
			r.Post("/payoff", handleCalculatePayoff)
		})
	})

	return r
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// recoverer turns a handler panic into a logged JSON 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path,
					"panic", rec)
				writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded, try again later")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
