package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"insight-gateway/internal/respond"
	"insight-gateway/pkg/logging/logging"
)

// Timeout cancels the request context after d and returns 504 if still running.
// The handler writes into a buffer that is only flushed if it finished in time.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{header: make(http.Header)}
			r = r.WithContext(ctx)

			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.flushLocked(w)
			case <-ctx.Done():
				tw.expire(ctx, w, done, d)
			}
		})
	}
}

// expire answers 504 unless the handler completed while the deadline fired,
// in which case its buffered response wins.
func (tw *timeoutWriter) expire(ctx context.Context, w http.ResponseWriter, done <-chan struct{}, d time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	select {
	case <-done:
		tw.flushLocked(w)
		return
	default:
	}

	tw.timedOut = true
	logging.L(ctx).Warn("request timeout", zap.Duration("timeout", d))
	respond.Error(w, http.StatusGatewayTimeout, "gateway_timeout", nil)
}

// flushLocked copies the buffered response to w. Callers hold tw.mu.
func (tw *timeoutWriter) flushLocked(w http.ResponseWriter) {
	dst := w.Header()
	for k, vv := range tw.header {
		dst[k] = vv
	}
	if tw.code == 0 {
		tw.code = http.StatusOK
	}
	w.WriteHeader(tw.code)
	_, _ = w.Write(tw.buf.Bytes())
}

type timeoutWriter struct {
	mu       sync.Mutex
	header   http.Header
	buf      bytes.Buffer
	code     int
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.code == 0 {
		tw.code = http.StatusOK
	}
	return tw.buf.Write(p)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.code != 0 {
		return
	}
	tw.code = code
}
