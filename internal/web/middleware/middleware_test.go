package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/thermomap/internal/core"
	"github.com/JonMunkholm/thermomap/internal/logging"
)

// ----------------------------------------------------------------------------
// UserID
// ----------------------------------------------------------------------------

func TestUserID(t *testing.T) {
	tests := []struct {
		name       string
		required   bool
		header     string
		wantStatus int
		wantUser   string
	}{
		{"optional without header", false, "", http.StatusOK, ""},
		{"optional with header", false, "u-17", http.StatusOK, "u-17"},
		{"required with header", true, " u-17 ", http.StatusOK, "u-17"},
		{"required without header", true, "", http.StatusUnauthorized, ""},
		{"oversized header", true, string(bytes.Repeat([]byte("x"), 200)), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			h := UserID(tt.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = core.GetUserIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/logger-data/summary", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), "REQ002")
			}
		})
	}
}

// ----------------------------------------------------------------------------
// TrustedRealIP
// ----------------------------------------------------------------------------

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"untrusted ignores headers", []string{"10.0.0.0/8"}, "203.0.113.5:4000",
			map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.5:4000"},
		{"trusted uses X-Real-IP", []string{"10.0.0.0/8"}, "10.1.2.3:4000",
			map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted uses first forwarded", []string{"10.0.0.0/8"}, "10.1.2.3:4000",
			map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"single ip entry", []string{"127.0.0.1"}, "127.0.0.1:9000",
			map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
		{"invalid header keeps addr", []string{"10.0.0.0/8"}, "10.1.2.3:4000",
			map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3:4000"},
		{"no trusted proxies", nil, "10.1.2.3:4000",
			map[string]string{"X-Real-IP": "1.2.3.4"}, "10.1.2.3:4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ----------------------------------------------------------------------------
// Logger
// ----------------------------------------------------------------------------

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/logger-data", nil)
	req.Header.Set(UserIDHeader, "u-5")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(5), entry["bytes"])
	assert.Equal(t, "u-5", entry["user_id"])
	assert.Equal(t, http.StatusCreated, rec.Code)
}
