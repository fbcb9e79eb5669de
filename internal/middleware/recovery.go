package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"insight-gateway/internal/respond"
	"insight-gateway/pkg/logging/logging"
)

// Recoverer turns a panic into a logged 500 with a JSON body.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logging.L(r.Context()).Error("panic recovered",
					zap.Any("error", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				respond.Error(w, http.StatusInternalServerError, "internal_server_error", nil)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
