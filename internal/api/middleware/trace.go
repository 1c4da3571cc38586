package middleware

import (
	"log/slog"
	"net/http"

	"github.com/edforge/edforge-api/internal/api/shared"
)

// TraceMiddleware stamps every request context with a trace ID and logs
// the request start. Install it before any handler that writes error
// responses so the ID lands in both logs and bodies.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
