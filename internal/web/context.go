package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/thermomap/internal/core"
)

// withRequestMetadata adds the client IP (already resolved by TrustedRealIP)
// to the context for service logs.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithIPAddress(ctx, r.RemoteAddr)
}
