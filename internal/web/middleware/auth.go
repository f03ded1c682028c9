package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/thermomap/internal/core"
)

// UserIDHeader carries the id of the authenticated caller, set by the gateway.
const UserIDHeader = "X-User-Id"

// maxUserIDLength bounds what is stored as uploaded_by.
const maxUserIDLength = 128

// UserID stores the x-user-id header in the request context so uploads
// record who made them. When required is true, requests without the header
// are rejected with 401.
func UserID(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if len(userID) > maxUserIDLength {
				userID = ""
			}

			if userID == "" {
				if required {
					slog.Warn("auth: missing user id",
						"path", r.URL.Path,
						"method", r.Method,
						"remote_addr", r.RemoteAddr,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"error":"missing user id","code":"REQ002"}`))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := core.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
