package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "203.0.113.9:54321", nil, "203.0.113.9"},
		{"x-forwarded-for single", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.4"}, "198.51.100.4"},
		{"x-forwarded-for chain", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"}, "198.51.100.4"},
		{"x-real-ip", "127.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"forwarded-for wins over real-ip", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.4", "X-Real-IP": "198.51.100.7"}, "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/auth/signin", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestRateLimiterNilClientPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, 10, 0)
	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/signin", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
