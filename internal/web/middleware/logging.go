// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/thermomap/internal/logging"
)

// Logger writes one structured access log entry per request.
//
// Fields: method, path, status, bytes, duration_ms, ip and user_id when the
// x-user-id header is present. Server errors are logged at warn level.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("ip", r.RemoteAddr),
			}
			if userID := r.Header.Get(UserIDHeader); userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}
			logging.FromContext(r.Context()).LogAttrs(r.Context(), level, "request", attrs...)
		}()

		next.ServeHTTP(ww, r)
	})
}
