package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"insight-gateway/internal/cache"
	"insight-gateway/internal/handlers"
	"insight-gateway/internal/metrics"
	"insight-gateway/internal/middleware"
	"insight-gateway/internal/respond"
	"insight-gateway/pkg/logging/logging"
)

type Options struct {
	RequestTimeout time.Duration // default: 15s
	MaxBodyBytes   int64         // default: 512 KiB
	// Ready is pinged by /readyz; nil means always ready.
	Ready cache.Pinger
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, analyzeHandler *handlers.AnalyzeHandler, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 512 * 1024
	}

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())                    // panic recovery
	r.Use(middleware.Timeout(opts.RequestTimeout))   // request timeout
	r.Use(middleware.MaxBodySize(opts.MaxBodyBytes)) // max body

	// chi answers methods outside its method table itself; keep its 405
	// in the same JSON + CORS shape as the handler's.
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	// the handler does its own method dispatch (OPTIONS / POST / 405)
	r.HandleFunc("/", analyzeHandler.Analyze)
	r.HandleFunc("/api/analyze", analyzeHandler.Analyze)

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ready.Ping(ctx); err != nil {
				logging.L(ctx).Warn("readiness check failed", zap.Error(err))
				respond.Error(w, http.StatusServiceUnavailable, "cache_unavailable", nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
