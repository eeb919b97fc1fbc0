package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-engine/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("Blocks requests beyond the burst", func(t *testing.T) {
		rl := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}, logger)
		handler := rl.Middleware(okHandler)

		send := func(remoteAddr string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = remoteAddr
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		assert.Equal(t, http.StatusOK, send("127.0.0.1:12345").Code)
		assert.Equal(t, http.StatusOK, send("127.0.0.1:12345").Code)

		blocked := send("127.0.0.1:12345")
		assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
		var response map[string]map[string]string
		require.NoError(t, json.NewDecoder(blocked.Body).Decode(&response))
		assert.Equal(t, "Rate limit exceeded", response["error"]["message"])

		assert.Equal(t, http.StatusOK, send("10.0.0.9:555").Code, "other clients have their own bucket")
	})

	t.Run("Disabled limiter passes everything", func(t *testing.T) {
		rl := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}, logger)
		handler := rl.Middleware(okHandler)

		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("Sweep drops refilled limiters", func(t *testing.T) {
		rl := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, logger)
		rl.getLimiter("127.0.0.1").Allow()

		rl.sweep(time.Now().Add(time.Minute))

		_, exists := rl.limiters.Load("127.0.0.1")
		assert.False(t, exists)
	})
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:80", "198.51.100.2"},
		{"garbage header falls back", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.1:80", "10.0.0.1"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractIP(req))
		})
	}
}
